package employee_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"go-paynorth/internal/employee"
	employeeerrors "go-paynorth/internal/employee/errors"
	"go-paynorth/internal/taxtable"
	taxtableerrors "go-paynorth/internal/taxtable/errors"
)

type fakeEmployeeRepository struct {
	withTxFn              func(tx *sql.Tx) employee.Repository
	createFn              func(ctx context.Context, empl *employee.Employee) error
	findAllByCompanyFn    func(ctx context.Context, companyID string) ([]employee.Employee, error)
	findActiveByCompanyFn func(ctx context.Context, companyID string) ([]employee.Employee, error)
	findByIDAndCompanyFn  func(ctx context.Context, companyID string, id string) (*employee.Employee, error)
	updateFn              func(ctx context.Context, empl *employee.Employee) error
	updateStatusFn        func(ctx context.Context, companyID string, id string, status string) error
}

func (f *fakeEmployeeRepository) WithTx(tx *sql.Tx) employee.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeEmployeeRepository) Create(ctx context.Context, empl *employee.Employee) error {
	if f.createFn != nil {
		return f.createFn(ctx, empl)
	}
	return nil
}

func (f *fakeEmployeeRepository) FindAllByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	if f.findAllByCompanyFn != nil {
		return f.findAllByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) FindActiveByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	if f.findActiveByCompanyFn != nil {
		return f.findActiveByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*employee.Employee, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEmployeeRepository) Update(ctx context.Context, empl *employee.Employee) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, empl)
	}
	return nil
}

func (f *fakeEmployeeRepository) UpdateStatus(ctx context.Context, companyID string, id string, status string) error {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, companyID, id, status)
	}
	return nil
}

type fakeCounterRepository struct {
	getNextValueFn func(ctx context.Context, companyID string, counterType string) (int64, error)
}

func (f *fakeCounterRepository) GetNextValue(ctx context.Context, companyID string, counterType string) (int64, error) {
	if f.getNextValueFn != nil {
		return f.getNextValueFn(ctx, companyID, counterType)
	}
	return 1, nil
}

type employeeServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service employee.Service
	repo    *fakeEmployeeRepository
	counter *fakeCounterRepository
}

func setupEmployeeServiceTest(t *testing.T) *employeeServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeEmployeeRepository{}
	counterRepo := &fakeCounterRepository{}
	svc := employee.NewService(db, repo, counterRepo, taxtable.NewProvider(), nil)

	return &employeeServiceDeps{db: db, sqlMock: sqlMock, service: svc, repo: repo, counter: counterRepo}
}

func validCreateRequest() employee.CreateEmployeeRequest {
	return employee.CreateEmployeeRequest{
		FullName:      "Avery Tremblay",
		Email:         "avery.tremblay@example.ca",
		PayType:       employee.PayTypeSalary,
		PayRate:       66600,
		PayFrequency:  "biweekly",
		Province:      taxtable.ProvinceOntario,
		FederalBPA:    15000,
		ProvincialBPA: 11865,
		HireDate:      "2023-01-09",
	}
}

func TestEmployeeService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()

	t.Run("auto numbering", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		deps.counter.getNextValueFn = func(ctx context.Context, cid, counterType string) (int64, error) {
			assert.Equal(t, "employee_number", counterType)
			return 12, nil
		}

		var created *employee.Employee
		deps.repo.createFn = func(ctx context.Context, empl *employee.Employee) error {
			created = empl
			return nil
		}

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		resp, err := deps.service.Create(ctx, companyID, validCreateRequest())

		assert.NoError(t, err)
		assert.Equal(t, "EMP-000012", resp.EmployeeNumber)
		assert.Equal(t, employee.StatusActive, resp.Status)
		assert.NotNil(t, created)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("unsupported province rejected upfront", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		req := validCreateRequest()
		req.Province = "QC"

		_, err := deps.service.Create(ctx, companyID, req)

		assert.ErrorIs(t, err, taxtableerrors.ErrUnsupportedProvince)
	})

	t.Run("invalid company id", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(ctx, "nope", validCreateRequest())

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidCompanyID)
	})

	t.Run("malformed hire date", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		req := validCreateRequest()
		req.HireDate = "09/01/2023"

		_, err := deps.service.Create(ctx, companyID, req)

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidHireDate)
	})
}

func TestEmployeeService_GetByID(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()

	t.Run("not found mapped", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetByID(ctx, companyID, uuid.New().String())
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})
}

func TestEmployeeService_ChangeStatus(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()

	t.Run("terminated is terminal", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*employee.Employee, error) {
			return &employee.Employee{ID: uuid.MustParse(id), Status: employee.StatusTerminated}, nil
		}

		_, err := deps.service.ChangeStatus(ctx, companyID, uuid.New().String(), employee.ChangeEmployeeStatusRequest{
			Status: employee.StatusActive,
		})

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidStatusTransition)
	})

	t.Run("active to on_leave", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*employee.Employee, error) {
			return &employee.Employee{ID: uuid.MustParse(id), CompanyID: uuid.MustParse(companyID), Status: employee.StatusActive}, nil
		}

		var updatedStatus string
		deps.repo.updateStatusFn = func(ctx context.Context, cid, id, status string) error {
			updatedStatus = status
			return nil
		}

		resp, err := deps.service.ChangeStatus(ctx, companyID, uuid.New().String(), employee.ChangeEmployeeStatusRequest{
			Status: employee.StatusOnLeave,
		})

		assert.NoError(t, err)
		assert.Equal(t, employee.StatusOnLeave, updatedStatus)
		assert.Equal(t, employee.StatusOnLeave, resp.Status)
	})
}

func TestEmployee_FixedDeductions(t *testing.T) {
	empl := &employee.Employee{
		UnionDues:             25.50,
		AdditionalWithholding: 100,
		HealthPremium:         40.25,
		DentalPremium:         15,
		LifeInsurancePremium:  9.75,
	}

	total, err := empl.FixedDeductions()
	assert.NoError(t, err)
	assert.Equal(t, 190.50, total)

	empl.DentalPremium = -1
	_, err = empl.FixedDeductions()
	assert.ErrorIs(t, err, employeeerrors.ErrInvalidEmployeeData)
}
