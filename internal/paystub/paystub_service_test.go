package paystub_test

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"go-paynorth/internal/paystub"
	paystuberrors "go-paynorth/internal/paystub/errors"
)

type fakePaystubRepository struct {
	findByIDAndCompanyFn       func(ctx context.Context, companyID string, id string) (*paystub.Paystub, error)
	findAllByEmployeeFn        func(ctx context.Context, companyID string, employeeID string) ([]paystub.Paystub, error)
	findAllByEmployeeAndYearFn func(ctx context.Context, companyID string, employeeID string, year int) ([]paystub.Paystub, error)
	findAllByRunFn             func(ctx context.Context, companyID string, runID string) ([]paystub.Paystub, error)
	saveSlipFn                 func(ctx context.Context, slip *paystub.Slip) error
	findSlipByPaystubFn        func(ctx context.Context, companyID string, paystubID string) (*paystub.Slip, error)
}

func (f *fakePaystubRepository) WithTx(tx *sql.Tx) paystub.Repository {
	return f
}

func (f *fakePaystubRepository) Create(ctx context.Context, stub *paystub.Paystub) error {
	return nil
}

func (f *fakePaystubRepository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*paystub.Paystub, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePaystubRepository) FindAllByEmployee(ctx context.Context, companyID string, employeeID string) ([]paystub.Paystub, error) {
	if f.findAllByEmployeeFn != nil {
		return f.findAllByEmployeeFn(ctx, companyID, employeeID)
	}
	return nil, nil
}

func (f *fakePaystubRepository) FindAllByEmployeeAndYear(ctx context.Context, companyID string, employeeID string, year int) ([]paystub.Paystub, error) {
	if f.findAllByEmployeeAndYearFn != nil {
		return f.findAllByEmployeeAndYearFn(ctx, companyID, employeeID, year)
	}
	return nil, nil
}

func (f *fakePaystubRepository) FindAllByRun(ctx context.Context, companyID string, runID string) ([]paystub.Paystub, error) {
	if f.findAllByRunFn != nil {
		return f.findAllByRunFn(ctx, companyID, runID)
	}
	return nil, nil
}

func (f *fakePaystubRepository) AttachToRun(ctx context.Context, companyID string, id string, runID string) error {
	return nil
}

func (f *fakePaystubRepository) HasOverlappingPeriod(ctx context.Context, companyID string, employeeID string, periodStart time.Time, periodEnd time.Time) (bool, error) {
	return false, nil
}

func (f *fakePaystubRepository) SumEarningsBefore(ctx context.Context, companyID string, employeeID string, year int, payDate time.Time) (float64, error) {
	return 0, nil
}

func (f *fakePaystubRepository) TotalsByRun(ctx context.Context, companyID string, runID string) (paystub.RunTotals, error) {
	return paystub.RunTotals{}, nil
}

func (f *fakePaystubRepository) SaveSlip(ctx context.Context, slip *paystub.Slip) error {
	if f.saveSlipFn != nil {
		return f.saveSlipFn(ctx, slip)
	}
	return nil
}

func (f *fakePaystubRepository) FindSlipByPaystub(ctx context.Context, companyID string, paystubID string) (*paystub.Slip, error) {
	if f.findSlipByPaystubFn != nil {
		return f.findSlipByPaystubFn(ctx, companyID, paystubID)
	}
	return nil, gorm.ErrRecordNotFound
}

func sampleStub(companyID uuid.UUID) *paystub.Paystub {
	return &paystub.Paystub{
		ID:              uuid.New(),
		CompanyID:       companyID,
		EmployeeID:      uuid.New(),
		PeriodStart:     time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:       time.Date(2023, 6, 14, 0, 0, 0, 0, time.UTC),
		PayDate:         time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC),
		GrossPay:        2561.54,
		FederalTax:      300.12,
		ProvincialTax:   110.45,
		CPP:             152.41,
		EI:              41.75,
		OtherDeductions: 25.50,
		NetPay:          1931.31,
		EmployeeName:    "Avery Tremblay",
		EmployeeNumber:  "EMP-000001",
	}
}

func TestPaystubService_GetByID(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("found", func(t *testing.T) {
		repo := &fakePaystubRepository{}
		stub := sampleStub(companyID)
		repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*paystub.Paystub, error) {
			return stub, nil
		}

		resp, err := paystub.NewService(repo).GetByID(ctx, companyID.String(), stub.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, 2561.54, resp.GrossPay)
		assert.Equal(t, "Avery Tremblay", resp.EmployeeName)
	})

	t.Run("not found", func(t *testing.T) {
		repo := &fakePaystubRepository{}

		_, err := paystub.NewService(repo).GetByID(ctx, companyID.String(), uuid.New().String())
		assert.ErrorIs(t, err, paystuberrors.ErrPaystubNotFound)
	})
}

func TestPaystubService_GetSlip_RendersOnFirstAccess(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	stub := sampleStub(companyID)

	repo := &fakePaystubRepository{}
	repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*paystub.Paystub, error) {
		return stub, nil
	}

	var stored *paystub.Slip
	repo.saveSlipFn = func(ctx context.Context, slip *paystub.Slip) error {
		stored = slip
		return nil
	}
	repo.findSlipByPaystubFn = func(ctx context.Context, cid, paystubID string) (*paystub.Slip, error) {
		if stored == nil {
			return nil, gorm.ErrRecordNotFound
		}
		return stored, nil
	}

	content, err := paystub.NewService(repo).GetSlip(ctx, companyID.String(), stub.ID.String())

	assert.NoError(t, err)
	assert.NotNil(t, stored)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestPaystubService_GenerateSlipsForRun_SkipsFailures(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	runID := uuid.New().String()

	good := sampleStub(companyID)
	missing := sampleStub(companyID)

	repo := &fakePaystubRepository{}
	repo.findAllByRunFn = func(ctx context.Context, cid, rid string) ([]paystub.Paystub, error) {
		return []paystub.Paystub{*good, *missing}, nil
	}
	repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*paystub.Paystub, error) {
		if id == good.ID.String() {
			return good, nil
		}
		return nil, gorm.ErrRecordNotFound
	}

	generated, err := paystub.NewService(repo).GenerateSlipsForRun(ctx, companyID.String(), runID)

	assert.NoError(t, err)
	assert.Equal(t, 1, generated)
}

func TestPaystubService_GetAllByEmployee_YearFilter(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	employeeID := uuid.New().String()

	repo := &fakePaystubRepository{}
	var filteredYear int
	repo.findAllByEmployeeAndYearFn = func(ctx context.Context, cid, eid string, year int) ([]paystub.Paystub, error) {
		filteredYear = year
		return []paystub.Paystub{*sampleStub(companyID)}, nil
	}

	svc := paystub.NewService(repo)

	resp, err := svc.GetAllByEmployee(ctx, companyID.String(), employeeID, "2023")
	assert.NoError(t, err)
	assert.Equal(t, 2023, filteredYear)
	assert.Len(t, resp, 1)

	_, err = svc.GetAllByEmployee(ctx, companyID.String(), employeeID, "20x3")
	assert.ErrorIs(t, err, paystuberrors.ErrInvalidYearFilter)
}
