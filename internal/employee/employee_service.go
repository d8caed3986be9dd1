package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	employeeerrors "go-paynorth/internal/employee/errors"
	"go-paynorth/internal/shared/contextutil"
	"go-paynorth/internal/shared/counter"
	"go-paynorth/internal/taxtable"
	taxtableerrors "go-paynorth/internal/taxtable/errors"
)

const EmployeeOptionsKeyPrefix = "employees:options:"

func GetEmployeeOptionsKey(companyID string) string {
	return EmployeeOptionsKeyPrefix + companyID
}

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID string, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context, companyID string) ([]EmployeeResponse, error)
	GetOptions(ctx context.Context, companyID string) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, companyID, id string) (EmployeeResponse, error)
	Update(ctx context.Context, companyID, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	ChangeStatus(ctx context.Context, companyID, id string, req ChangeEmployeeStatusRequest) (EmployeeResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	counter counter.Repository
	tables  *taxtable.Provider
	rdb     *redis.Client
	sf      *singleflight.Group
	logger  *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	counter counter.Repository,
	tables *taxtable.Provider,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		counter: counter,
		tables:  tables,
		rdb:     rdb,
		sf:      &singleflight.Group{},
		logger:  l,
	}
}

func (s *service) Create(
	ctx context.Context,
	companyID string,
	req CreateEmployeeRequest,
) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.String("email", req.Email),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidCompanyID
	}

	if err := s.validateProvince(req.Province); err != nil {
		s.logger.Warn("create employee unsupported province",
			zap.String("province", req.Province))
		return EmployeeResponse{}, err
	}

	hireDate, err := time.Parse("2006-01-02", req.HireDate)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidHireDate
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if req.EmployeeNumber == "" {
		nextVal, err := s.counter.GetNextValue(ctx, companyID, "employee_number")
		if err != nil {
			s.logger.Error("create employee generate number failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
		req.EmployeeNumber = fmt.Sprintf("EMP-%06d", nextVal)
	}

	empl := &Employee{
		ID:                    uuid.New(),
		CompanyID:             companyUUID,
		EmployeeNumber:        req.EmployeeNumber,
		FullName:              req.FullName,
		Email:                 req.Email,
		PayType:               req.PayType,
		PayRate:               req.PayRate,
		PayFrequency:          req.PayFrequency,
		Province:              req.Province,
		FederalBPA:            req.FederalBPA,
		ProvincialBPA:         req.ProvincialBPA,
		UnionDues:             req.UnionDues,
		AdditionalWithholding: req.AdditionalWithholding,
		HealthPremium:         req.HealthPremium,
		DentalPremium:         req.DentalPremium,
		LifeInsurancePremium:  req.LifeInsurancePremium,
		Status:                StatusActive,
		HireDate:              hireDate,
	}

	if err := qtx.Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptionsCache(ctx, companyID)

	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.ID.String()),
	)

	return mapToResponse(*empl), nil
}

func (s *service) GetAll(
	ctx context.Context,
	companyID string,
) ([]EmployeeResponse, error) {
	employees, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	return mapToListResponse(employees), nil
}

// GetOptions serves the employee picker used when assembling a payroll run.
// Cached in redis and deduplicated through singleflight since firm staff tend
// to open run forms in bursts at period end.
func (s *service) GetOptions(ctx context.Context, companyID string) ([]EmployeeResponse, error) {
	cacheKey := GetEmployeeOptionsKey(companyID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []EmployeeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		emps, err := s.repo.FindActiveByCompany(ctx, companyID)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := mapToListResponse(emps)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, 1*time.Hour)
			}
		}

		return resp, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]EmployeeResponse), nil
}

func (s *service) GetByID(
	ctx context.Context,
	companyID, id string,
) (EmployeeResponse, error) {
	empl, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		s.logger.Error("get employee by id failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(*empl), nil
}

func (s *service) Update(
	ctx context.Context,
	companyID, id string,
	req UpdateEmployeeRequest,
) (EmployeeResponse, error) {
	s.logger.Debug("update employee requested",
		zap.String("company_id", companyID),
		zap.String("employee_id", id),
	)

	if err := s.validateProvince(req.Province); err != nil {
		return EmployeeResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	empl, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		s.logger.Error("update employee fetch existing failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	empl.FullName = req.FullName
	empl.Email = req.Email
	empl.PayType = req.PayType
	empl.PayRate = req.PayRate
	empl.PayFrequency = req.PayFrequency
	empl.Province = req.Province
	empl.FederalBPA = req.FederalBPA
	empl.ProvincialBPA = req.ProvincialBPA
	empl.UnionDues = req.UnionDues
	empl.AdditionalWithholding = req.AdditionalWithholding
	empl.HealthPremium = req.HealthPremium
	empl.DentalPremium = req.DentalPremium
	empl.LifeInsurancePremium = req.LifeInsurancePremium

	if err := qtx.Update(ctx, empl); err != nil {
		s.logger.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptionsCache(ctx, companyID)

	s.logger.Info("update employee success", zap.String("employee_id", id))

	return mapToResponse(*empl), nil
}

// ChangeStatus is the only way an employee leaves payroll. There is no hard
// delete: terminated employees keep their paystub history and T4s.
func (s *service) ChangeStatus(
	ctx context.Context,
	companyID, id string,
	req ChangeEmployeeStatusRequest,
) (EmployeeResponse, error) {
	empl, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if empl.Status == StatusTerminated && req.Status != StatusTerminated {
		return EmployeeResponse{}, employeeerrors.ErrInvalidStatusTransition
	}

	if err := s.repo.UpdateStatus(ctx, companyID, id, req.Status); err != nil {
		s.logger.Error("change employee status failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	empl.Status = req.Status

	s.invalidateOptionsCache(ctx, companyID)

	s.logger.Info("employee status changed",
		zap.String("employee_id", id),
		zap.String("status", req.Status),
	)

	return mapToResponse(*empl), nil
}

// validateProvince rejects provinces no published tax year covers, so a
// payroll run can never fail later for an employee we accepted today.
func (s *service) validateProvince(province string) error {
	if s.tables == nil {
		return nil
	}
	for _, year := range s.tables.Years() {
		t, err := s.tables.Table(year)
		if err != nil {
			continue
		}
		if t.SupportsProvince(province) {
			return nil
		}
	}
	return taxtableerrors.ErrUnsupportedProvince
}

func (s *service) invalidateOptionsCache(ctx context.Context, companyID string) {
	if s.rdb == nil {
		return
	}
	cacheKey := GetEmployeeOptionsKey(companyID)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate employee options cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}

func mapToResponse(empl Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:                    empl.ID.String(),
		CompanyID:             empl.CompanyID.String(),
		EmployeeNumber:        empl.EmployeeNumber,
		FullName:              empl.FullName,
		Email:                 empl.Email,
		PayType:               empl.PayType,
		PayRate:               empl.PayRate,
		PayFrequency:          empl.PayFrequency,
		Province:              empl.Province,
		FederalBPA:            empl.FederalBPA,
		ProvincialBPA:         empl.ProvincialBPA,
		UnionDues:             empl.UnionDues,
		AdditionalWithholding: empl.AdditionalWithholding,
		HealthPremium:         empl.HealthPremium,
		DentalPremium:         empl.DentalPremium,
		LifeInsurancePremium:  empl.LifeInsurancePremium,
		Status:                empl.Status,
		HireDate:              empl.HireDate.Format("2006-01-02"),
	}
}

func mapToListResponse(employees []Employee) []EmployeeResponse {
	resp := make([]EmployeeResponse, len(employees))
	for i, empl := range employees {
		resp[i] = mapToResponse(empl)
	}
	return resp
}
