package paystub

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	paystuberrors "go-paynorth/internal/paystub/errors"
)

//go:generate mockgen -source=paystub_service.go -destination=mock/paystub_service_mock.go -package=mock
type Service interface {
	GetByID(ctx context.Context, companyID, id string) (PaystubResponse, error)
	GetAllByEmployee(ctx context.Context, companyID, employeeID, yearFilter string) ([]PaystubResponse, error)
	GetSlip(ctx context.Context, companyID, id string) ([]byte, error)
	GenerateSlip(ctx context.Context, companyID, id string) error
	GenerateSlipsForRun(ctx context.Context, companyID, runID string) (int, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("paystub.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("paystub.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) GetByID(
	ctx context.Context,
	companyID, id string,
) (PaystubResponse, error) {
	stub, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return PaystubResponse{}, mapRepositoryError(err)
	}

	return MapToResponse(*stub), nil
}

func (s *service) GetAllByEmployee(
	ctx context.Context,
	companyID, employeeID, yearFilter string,
) ([]PaystubResponse, error) {
	if yearFilter != "" {
		year, err := strconv.Atoi(yearFilter)
		if err != nil {
			return nil, paystuberrors.ErrInvalidYearFilter
		}
		stubs, err := s.repo.FindAllByEmployeeAndYear(ctx, companyID, employeeID, year)
		if err != nil {
			return nil, mapRepositoryError(err)
		}
		return MapToListResponse(stubs), nil
	}

	stubs, err := s.repo.FindAllByEmployee(ctx, companyID, employeeID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	return MapToListResponse(stubs), nil
}

// GetSlip serves the stored slip PDF, rendering it on first access if the
// async consumer has not gotten to it yet.
func (s *service) GetSlip(ctx context.Context, companyID, id string) ([]byte, error) {
	slip, err := s.repo.FindSlipByPaystub(ctx, companyID, id)
	if err == nil {
		return slip.Content, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.GenerateSlip(ctx, companyID, id); err != nil {
		return nil, err
	}

	slip, err = s.repo.FindSlipByPaystub(ctx, companyID, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return slip.Content, nil
}

func (s *service) GenerateSlip(ctx context.Context, companyID, id string) error {
	stub, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return mapRepositoryError(err)
	}

	content, err := buildSlipPDF(slipLines(*stub))
	if err != nil {
		return err
	}

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return err
	}

	if err := s.repo.SaveSlip(ctx, &Slip{
		ID:          uuid.New(),
		PaystubID:   stub.ID,
		CompanyID:   companyUUID,
		Content:     content,
		GeneratedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Error("save slip failed",
			zap.String("paystub_id", id),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// GenerateSlipsForRun renders every member stub's slip. Individual failures
// are logged and skipped so one bad stub cannot starve the rest of the run.
func (s *service) GenerateSlipsForRun(ctx context.Context, companyID, runID string) (int, error) {
	stubs, err := s.repo.FindAllByRun(ctx, companyID, runID)
	if err != nil {
		return 0, mapRepositoryError(err)
	}

	generated := 0
	for _, stub := range stubs {
		if err := s.GenerateSlip(ctx, companyID, stub.ID.String()); err != nil {
			s.logger.Error("generate slip for run member failed",
				zap.String("run_id", runID),
				zap.String("paystub_id", stub.ID.String()),
				zap.Error(err),
			)
			continue
		}
		generated++
	}

	s.logger.Info("run slips generated",
		zap.String("run_id", runID),
		zap.Int("generated", generated),
		zap.Int("total", len(stubs)),
	)

	return generated, nil
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return paystuberrors.ErrPaystubNotFound
	}
	return err
}
