package t4

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-paynorth/internal/deduction"
	"go-paynorth/internal/employee"
	employeeerrors "go-paynorth/internal/employee/errors"
	"go-paynorth/internal/paystub"
	"go-paynorth/internal/shared/contextutil"
	t4errors "go-paynorth/internal/t4/errors"
)

//go:generate mockgen -source=t4_service.go -destination=mock/t4_service_mock.go -package=mock
type Service interface {
	Generate(ctx context.Context, companyID string, req GenerateT4Request) (T4Response, error)
	GenerateForCompany(ctx context.Context, companyID string, taxYear int) ([]T4Response, error)
	GetByEmployeeAndYear(ctx context.Context, companyID string, employeeID string, taxYear int) (T4Response, error)
	GetAllByYear(ctx context.Context, companyID string, taxYear int) ([]T4Response, error)
}

type service struct {
	repo      Repository
	employees employee.Repository
	paystubs  paystub.Repository
	logger    *zap.Logger
}

func NewService(
	repo Repository,
	employees employee.Repository,
	paystubs paystub.Repository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("t4.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("t4.service")
	}
	return &service{
		repo:      repo,
		employees: employees,
		paystubs:  paystubs,
		logger:    l,
	}
}

// Generate aggregates the employee's paystubs for the tax year into a draft
// T4. An employee with no paystubs that year still gets a record, with every
// box at zero. Regenerating overwrites the prior draft for the same
// (employee, year).
func (s *service) Generate(
	ctx context.Context,
	companyID string,
	req GenerateT4Request,
) (T4Response, error) {
	rid := contextutil.GetRequestID(ctx)

	empl, err := s.employees.FindByIDAndCompany(ctx, companyID, req.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return T4Response{}, employeeerrors.ErrEmployeeNotFound
		}
		return T4Response{}, err
	}

	record, err := s.aggregate(ctx, companyID, empl, req.TaxYear)
	if err != nil {
		return T4Response{}, err
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		s.logger.Error("persist t4 failed",
			zap.String("request_id", rid),
			zap.String("employee_id", req.EmployeeID),
			zap.Int("tax_year", req.TaxYear),
			zap.Error(err),
		)
		return T4Response{}, err
	}

	s.logger.Info("t4 generated",
		zap.String("request_id", rid),
		zap.String("employee_id", req.EmployeeID),
		zap.Int("tax_year", req.TaxYear),
		zap.Int("paystub_count", record.PaystubCount),
	)

	return mapToResponse(record), nil
}

// GenerateForCompany regenerates drafts for every employee of the company,
// including terminated ones: anyone paid during the year gets a slip.
func (s *service) GenerateForCompany(
	ctx context.Context,
	companyID string,
	taxYear int,
) ([]T4Response, error) {
	employees, err := s.employees.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	responses := make([]T4Response, 0, len(employees))
	for i := range employees {
		record, err := s.aggregate(ctx, companyID, &employees[i], taxYear)
		if err != nil {
			s.logger.Warn("t4 aggregation failed for employee",
				zap.String("employee_id", employees[i].ID.String()),
				zap.Int("tax_year", taxYear),
				zap.Error(err),
			)
			continue
		}
		if err := s.repo.Upsert(ctx, record); err != nil {
			s.logger.Error("persist t4 failed",
				zap.String("employee_id", employees[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		responses = append(responses, mapToResponse(record))
	}

	s.logger.Info("company t4 generation finished",
		zap.String("company_id", companyID),
		zap.Int("tax_year", taxYear),
		zap.Int("generated", len(responses)),
	)

	return responses, nil
}

func (s *service) aggregate(
	ctx context.Context,
	companyID string,
	empl *employee.Employee,
	taxYear int,
) (*T4Record, error) {
	stubs, err := s.paystubs.FindAllByEmployeeAndYear(ctx, companyID, empl.ID.String(), taxYear)
	if err != nil {
		return nil, err
	}

	var box14, box16, box18, box22 float64
	for _, stub := range stubs {
		box14 += stub.GrossPay
		box16 += stub.CPP
		box18 += stub.EI
		box22 += stub.FederalTax + stub.ProvincialTax
	}

	return &T4Record{
		ID:                    uuid.New(),
		CompanyID:             empl.CompanyID,
		EmployeeID:            empl.ID,
		TaxYear:               taxYear,
		Box14EmploymentIncome: deduction.RoundCents(box14),
		Box16CPPContributions: deduction.RoundCents(box16),
		Box18EIPremiums:       deduction.RoundCents(box18),
		Box22IncomeTax:        deduction.RoundCents(box22),
		PaystubCount:          len(stubs),
		Status:                StatusDraft,
		GeneratedAt:           time.Now().UTC(),
	}, nil
}

func (s *service) GetByEmployeeAndYear(
	ctx context.Context,
	companyID string,
	employeeID string,
	taxYear int,
) (T4Response, error) {
	record, err := s.repo.FindByEmployeeAndYear(ctx, companyID, employeeID, taxYear)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return T4Response{}, t4errors.ErrT4NotFound
		}
		s.logger.Error("get t4 failed", zap.Error(err))
		return T4Response{}, err
	}
	return mapToResponse(record), nil
}

func (s *service) GetAllByYear(
	ctx context.Context,
	companyID string,
	taxYear int,
) ([]T4Response, error) {
	records, err := s.repo.FindAllByCompanyAndYear(ctx, companyID, taxYear)
	if err != nil {
		s.logger.Error("list t4s failed", zap.Error(err))
		return nil, err
	}
	return mapToListResponse(records), nil
}
