package payrollrun_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"go-paynorth/internal/employee"
	"go-paynorth/internal/events"
	"go-paynorth/internal/messaging/kafka"
	"go-paynorth/internal/paystub"
	"go-paynorth/internal/payrollrun"
	payrollrunerrors "go-paynorth/internal/payrollrun/errors"
	"go-paynorth/internal/taxtable"
)

type fakeRunRepository struct {
	withTxFn             func(tx *sql.Tx) payrollrun.Repository
	createFn             func(ctx context.Context, run *payrollrun.PayrollRun, memberIDs []uuid.UUID) error
	findByIDAndCompanyFn func(ctx context.Context, companyID string, id string) (*payrollrun.PayrollRun, error)
	findAllByCompanyFn   func(ctx context.Context, companyID string) ([]payrollrun.PayrollRun, error)
	listMemberIDsFn      func(ctx context.Context, runID uuid.UUID) ([]uuid.UUID, error)
	isMemberFn           func(ctx context.Context, runID uuid.UUID, employeeID uuid.UUID) (bool, error)
	updateTotalsFn       func(ctx context.Context, runID uuid.UUID, gross, net, deductions float64) error
	approveFn            func(ctx context.Context, companyID string, id string, approvedBy uuid.UUID, approvedAt time.Time) (int64, error)
}

func (f *fakeRunRepository) WithTx(tx *sql.Tx) payrollrun.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeRunRepository) Create(ctx context.Context, run *payrollrun.PayrollRun, memberIDs []uuid.UUID) error {
	if f.createFn != nil {
		return f.createFn(ctx, run, memberIDs)
	}
	return nil
}

func (f *fakeRunRepository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*payrollrun.PayrollRun, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRunRepository) FindAllByCompany(ctx context.Context, companyID string) ([]payrollrun.PayrollRun, error) {
	if f.findAllByCompanyFn != nil {
		return f.findAllByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeRunRepository) ListMemberIDs(ctx context.Context, runID uuid.UUID) ([]uuid.UUID, error) {
	if f.listMemberIDsFn != nil {
		return f.listMemberIDsFn(ctx, runID)
	}
	return nil, nil
}

func (f *fakeRunRepository) IsMember(ctx context.Context, runID uuid.UUID, employeeID uuid.UUID) (bool, error) {
	if f.isMemberFn != nil {
		return f.isMemberFn(ctx, runID, employeeID)
	}
	return true, nil
}

func (f *fakeRunRepository) UpdateTotals(ctx context.Context, runID uuid.UUID, gross, net, deductions float64) error {
	if f.updateTotalsFn != nil {
		return f.updateTotalsFn(ctx, runID, gross, net, deductions)
	}
	return nil
}

func (f *fakeRunRepository) Approve(ctx context.Context, companyID string, id string, approvedBy uuid.UUID, approvedAt time.Time) (int64, error) {
	if f.approveFn != nil {
		return f.approveFn(ctx, companyID, id, approvedBy, approvedAt)
	}
	return 1, nil
}

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

type fakePaystubRepository struct {
	withTxFn                   func(tx *sql.Tx) paystub.Repository
	createFn                   func(ctx context.Context, stub *paystub.Paystub) error
	findByIDAndCompanyFn       func(ctx context.Context, companyID string, id string) (*paystub.Paystub, error)
	findAllByEmployeeFn        func(ctx context.Context, companyID string, employeeID string) ([]paystub.Paystub, error)
	findAllByEmployeeAndYearFn func(ctx context.Context, companyID string, employeeID string, year int) ([]paystub.Paystub, error)
	findAllByRunFn             func(ctx context.Context, companyID string, runID string) ([]paystub.Paystub, error)
	attachToRunFn              func(ctx context.Context, companyID string, id string, runID string) error
	hasOverlappingPeriodFn     func(ctx context.Context, companyID string, employeeID string, periodStart time.Time, periodEnd time.Time) (bool, error)
	sumEarningsBeforeFn        func(ctx context.Context, companyID string, employeeID string, year int, payDate time.Time) (float64, error)
	totalsByRunFn              func(ctx context.Context, companyID string, runID string) (paystub.RunTotals, error)
	saveSlipFn                 func(ctx context.Context, slip *paystub.Slip) error
	findSlipByPaystubFn        func(ctx context.Context, companyID string, paystubID string) (*paystub.Slip, error)
}

func (f *fakePaystubRepository) WithTx(tx *sql.Tx) paystub.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakePaystubRepository) Create(ctx context.Context, stub *paystub.Paystub) error {
	if f.createFn != nil {
		return f.createFn(ctx, stub)
	}
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
	if f.attachToRunFn != nil {
		return f.attachToRunFn(ctx, companyID, id, runID)
	}
	return nil
}

func (f *fakePaystubRepository) HasOverlappingPeriod(ctx context.Context, companyID string, employeeID string, periodStart time.Time, periodEnd time.Time) (bool, error) {
	if f.hasOverlappingPeriodFn != nil {
		return f.hasOverlappingPeriodFn(ctx, companyID, employeeID, periodStart, periodEnd)
	}
	return false, nil
}

func (f *fakePaystubRepository) SumEarningsBefore(ctx context.Context, companyID string, employeeID string, year int, payDate time.Time) (float64, error) {
	if f.sumEarningsBeforeFn != nil {
		return f.sumEarningsBeforeFn(ctx, companyID, employeeID, year, payDate)
	}
	return 0, nil
}

func (f *fakePaystubRepository) TotalsByRun(ctx context.Context, companyID string, runID string) (paystub.RunTotals, error) {
	if f.totalsByRunFn != nil {
		return f.totalsByRunFn(ctx, companyID, runID)
	}
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

type fakeCounterRepository struct {
	getNextValueFn func(ctx context.Context, companyID string, counterType string) (int64, error)
}

func (f *fakeCounterRepository) GetNextValue(ctx context.Context, companyID string, counterType string) (int64, error) {
	if f.getNextValueFn != nil {
		return f.getNextValueFn(ctx, companyID, counterType)
	}
	return 1, nil
}

type fakeOutboxRepository struct {
	withTxFn func(tx *sql.Tx) kafka.OutboxRepository
	createFn func(ctx context.Context, event kafka.OutboxEvent) error
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	if f.createFn != nil {
		return f.createFn(ctx, event)
	}
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error {
	return nil
}

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type runServiceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   payrollrun.Service
	repo      *fakeRunRepository
	employees *fakeEmployeeRepository
	paystubs  *fakePaystubRepository
	counter   *fakeCounterRepository
	outbox    *fakeOutboxRepository
}

func setupRunServiceTest(t *testing.T) *runServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeRunRepository{}
	employees := &fakeEmployeeRepository{}
	paystubs := &fakePaystubRepository{}
	counterRepo := &fakeCounterRepository{}
	outbox := &fakeOutboxRepository{}

	svc := payrollrun.NewService(
		db, repo, employees, paystubs, counterRepo,
		taxtable.NewProvider(), outbox,
	)

	return &runServiceDeps{
		db: db, sqlMock: sqlMock, service: svc,
		repo: repo, employees: employees, paystubs: paystubs,
		counter: counterRepo, outbox: outbox,
	}
}

func activeEmployee(companyID uuid.UUID) *employee.Employee {
	return &employee.Employee{
		ID:             uuid.New(),
		CompanyID:      companyID,
		EmployeeNumber: "EMP-000001",
		FullName:       "Avery Tremblay",
		PayType:        employee.PayTypeSalary,
		PayRate:        66600,
		PayFrequency:   "biweekly",
		Province:       taxtable.ProvinceOntario,
		FederalBPA:     15000,
		ProvincialBPA:  11865,
		Status:         employee.StatusActive,
	}
}

func draftRun(companyID uuid.UUID) *payrollrun.PayrollRun {
	return &payrollrun.PayrollRun{
		ID:          uuid.New(),
		CompanyID:   companyID,
		RunNumber:   "PR-2023-0001",
		PeriodStart: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2023, 6, 14, 0, 0, 0, 0, time.UTC),
		PayDate:     time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC),
		Status:      payrollrun.StatusDraft,
	}
}

func TestRunService_CreateRun(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	userID := uuid.New().String()

	t.Run("all active employees with year scoped number", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		emplA := activeEmployee(companyID)
		emplB := activeEmployee(companyID)
		deps.employees.findActiveByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			return []employee.Employee{*emplA, *emplB}, nil
		}

		var counterType string
		deps.counter.getNextValueFn = func(ctx context.Context, cid, ct string) (int64, error) {
			counterType = ct
			return 7, nil
		}

		var createdMembers []uuid.UUID
		deps.repo.createFn = func(ctx context.Context, run *payrollrun.PayrollRun, memberIDs []uuid.UUID) error {
			createdMembers = memberIDs
			return nil
		}

		resp, err := deps.service.CreateRun(ctx, companyID.String(), userID, payrollrun.CreateRunRequest{
			PeriodStart: "2023-06-01",
			PeriodEnd:   "2023-06-14",
			PayDate:     "2023-06-16",
		})

		assert.NoError(t, err)
		assert.Equal(t, "PR-2023-0007", resp.RunNumber)
		assert.Equal(t, "payroll_run:2023", counterType)
		assert.Equal(t, payrollrun.StatusDraft, resp.Status)
		assert.Equal(t, 2, resp.EmployeeCount)
		assert.Len(t, createdMembers, 2)
	})

	t.Run("explicit member list", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		empl := activeEmployee(companyID)
		deps.employees.findAllByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			return []employee.Employee{*empl}, nil
		}

		resp, err := deps.service.CreateRun(ctx, companyID.String(), userID, payrollrun.CreateRunRequest{
			PeriodStart: "2023-06-01",
			PeriodEnd:   "2023-06-14",
			PayDate:     "2023-06-16",
			EmployeeIDs: []string{empl.ID.String()},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, resp.EmployeeCount)
	})

	t.Run("unknown explicit employee", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		deps.employees.findAllByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			return nil, nil
		}

		_, err := deps.service.CreateRun(ctx, companyID.String(), userID, payrollrun.CreateRunRequest{
			PeriodStart: "2023-06-01",
			PeriodEnd:   "2023-06-14",
			PayDate:     "2023-06-16",
			EmployeeIDs: []string{uuid.New().String()},
		})

		assert.Error(t, err)
	})

	t.Run("period end before start", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.CreateRun(ctx, companyID.String(), userID, payrollrun.CreateRunRequest{
			PeriodStart: "2023-06-14",
			PeriodEnd:   "2023-06-01",
			PayDate:     "2023-06-16",
		})

		assert.ErrorIs(t, err, payrollrunerrors.ErrInvalidDateRange)
	})

	t.Run("no active employees", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		deps.employees.findActiveByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			return nil, nil
		}

		_, err := deps.service.CreateRun(ctx, companyID.String(), userID, payrollrun.CreateRunRequest{
			PeriodStart: "2023-06-01",
			PeriodEnd:   "2023-06-14",
			PayDate:     "2023-06-16",
		})

		assert.ErrorIs(t, err, payrollrunerrors.ErrNoEligibleEmployees)
	})
}

func TestRunService_ProcessEmployee(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := draftRun(companyID)
	empl := activeEmployee(companyID)

	deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.employees.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*employee.Employee, error) {
		return empl, nil
	}

	// Mid-year employee: true YTD must flow into the stub, not zero.
	var ytdQueried bool
	deps.paystubs.sumEarningsBeforeFn = func(ctx context.Context, cid, eid string, year int, payDate time.Time) (float64, error) {
		ytdQueried = true
		assert.Equal(t, 2023, year)
		assert.Equal(t, run.PayDate, payDate)
		return 30738.48, nil
	}

	var created *paystub.Paystub
	deps.paystubs.createFn = func(ctx context.Context, stub *paystub.Paystub) error {
		created = stub
		return nil
	}
	deps.paystubs.totalsByRunFn = func(ctx context.Context, cid, runID string) (paystub.RunTotals, error) {
		return paystub.RunTotals{GrossPay: 2561.54, NetPay: 1900, TotalDeductions: 661.54, PaystubCount: 1}, nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	resp, err := deps.service.ProcessEmployee(ctx, companyID.String(), run.ID.String(), payrollrun.PeriodInput{
		EmployeeID: empl.ID.String(),
	})

	assert.NoError(t, err)
	assert.True(t, ytdQueried)
	assert.NotNil(t, created)
	assert.Equal(t, 2561.54, created.GrossPay)
	assert.Equal(t, 30738.48, created.YTDEarningsBefore)
	// Exemption consumed by mid-year YTD: CPP at the full rate.
	assert.InDelta(t, 2561.54*0.0595, created.CPP, 0.01)
	assert.Equal(t, 41.75, created.EI)
	assert.NotNil(t, created.RunID)
	assert.Equal(t, run.ID, *created.RunID)

	assert.Equal(t, 2561.54, resp.Run.TotalGrossPay)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestRunService_ProcessEmployee_NotMember(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := draftRun(companyID)
	deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.repo.isMemberFn = func(ctx context.Context, runID, employeeID uuid.UUID) (bool, error) {
		return false, nil
	}

	_, err := deps.service.ProcessEmployee(ctx, companyID.String(), run.ID.String(), payrollrun.PeriodInput{
		EmployeeID: uuid.New().String(),
	})

	assert.ErrorIs(t, err, payrollrunerrors.ErrEmployeeNotInRun)
}

func TestRunService_ProcessRun_CollectsPerEmployeeErrors(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := draftRun(companyID)
	good := activeEmployee(companyID)
	bad := activeEmployee(companyID)
	bad.UnionDues = -50 // malformed record, fatal for this employee only

	deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.repo.listMemberIDsFn = func(ctx context.Context, runID uuid.UUID) ([]uuid.UUID, error) {
		return []uuid.UUID{good.ID, bad.ID}, nil
	}
	deps.employees.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*employee.Employee, error) {
		if id == good.ID.String() {
			return good, nil
		}
		return bad, nil
	}

	var createdCount int
	deps.paystubs.createFn = func(ctx context.Context, stub *paystub.Paystub) error {
		createdCount++
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	resp, err := deps.service.ProcessRun(ctx, companyID.String(), run.ID.String(), payrollrun.ProcessRunRequest{
		Inputs: []payrollrun.PeriodInput{
			{EmployeeID: good.ID.String()},
			{EmployeeID: bad.ID.String()},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Processed)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, 1, createdCount)
	assert.Len(t, resp.Results, 2)

	for _, result := range resp.Results {
		if result.EmployeeID == good.ID.String() {
			assert.NotEmpty(t, result.PaystubID)
			assert.Empty(t, result.Error)
		} else {
			assert.Empty(t, result.PaystubID)
			assert.NotEmpty(t, result.Error)
		}
	}

	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestRunService_ProcessRun_MissingInput(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := draftRun(companyID)
	member := uuid.New()
	other := activeEmployee(companyID)

	deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.repo.listMemberIDsFn = func(ctx context.Context, runID uuid.UUID) ([]uuid.UUID, error) {
		return []uuid.UUID{member, other.ID}, nil
	}
	deps.employees.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*employee.Employee, error) {
		return other, nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	resp, err := deps.service.ProcessRun(ctx, companyID.String(), run.ID.String(), payrollrun.ProcessRunRequest{
		Inputs: []payrollrun.PeriodInput{{EmployeeID: other.ID.String()}},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Processed)
	assert.Equal(t, 1, resp.Failed)
}

func TestRunService_ProcessRun_NotDraft(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := draftRun(companyID)
	run.Status = payrollrun.StatusApproved
	deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}

	_, err := deps.service.ProcessRun(ctx, companyID.String(), run.ID.String(), payrollrun.ProcessRunRequest{
		Inputs: []payrollrun.PeriodInput{{EmployeeID: uuid.New().String()}},
	})

	assert.ErrorIs(t, err, payrollrunerrors.ErrRunNotDraft)
}

func TestRunService_ProcessAdhoc(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	empl := activeEmployee(companyID)
	empl.PayType = employee.PayTypeHourly
	empl.PayRate = 30

	deps.employees.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*employee.Employee, error) {
		return empl, nil
	}

	var created *paystub.Paystub
	deps.paystubs.createFn = func(ctx context.Context, stub *paystub.Paystub) error {
		created = stub
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	resp, err := deps.service.ProcessAdhoc(ctx, companyID.String(), payrollrun.AdhocProcessRequest{
		PeriodStart: "2023-07-01",
		PeriodEnd:   "2023-07-14",
		PayDate:     "2023-07-18",
		Input: payrollrun.PeriodInput{
			EmployeeID:     empl.ID.String(),
			RegularHours:   80,
			OvertimeHours:  4,
			Bonus:          100,
			Reimbursements: 55.20,
		},
	})

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Nil(t, created.RunID)
	// 80h at 30 plus 4h at 45 plus the bonus; reimbursement excluded.
	assert.Equal(t, 2680.0, created.GrossPay)
	assert.Equal(t, 55.2, created.Reimbursements)
	assert.Equal(t, 2680.0, resp.GrossPay)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestRunService_Approve(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	approverID := uuid.New().String()

	t.Run("success publishes outbox event in tx", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		run := draftRun(companyID)
		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return run, nil
		}

		var published *kafka.OutboxEvent
		deps.outbox.createFn = func(ctx context.Context, event kafka.OutboxEvent) error {
			published = &event
			return nil
		}

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		resp, err := deps.service.Approve(ctx, companyID.String(), run.ID.String(), approverID)

		assert.NoError(t, err)
		assert.Equal(t, payrollrun.StatusApproved, resp.Status)
		assert.NotNil(t, resp.ApprovedBy)
		assert.Equal(t, approverID, *resp.ApprovedBy)
		assert.NotNil(t, resp.ApprovedAt)

		assert.NotNil(t, published)
		assert.Equal(t, events.PayrollRunApprovedTopic, published.Topic)
		assert.Equal(t, run.ID.String(), published.AggregateID)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("second approval rejected", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		run := draftRun(companyID)
		run.Status = payrollrun.StatusApproved
		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return run, nil
		}

		_, err := deps.service.Approve(ctx, companyID.String(), run.ID.String(), approverID)

		assert.ErrorIs(t, err, payrollrunerrors.ErrAlreadyApproved)
	})

	t.Run("lost race surfaces as already approved", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		run := draftRun(companyID)
		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return run, nil
		}
		deps.repo.approveFn = func(ctx context.Context, cid, id string, approvedBy uuid.UUID, approvedAt time.Time) (int64, error) {
			return 0, nil
		}

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		_, err := deps.service.Approve(ctx, companyID.String(), run.ID.String(), approverID)

		assert.ErrorIs(t, err, payrollrunerrors.ErrAlreadyApproved)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("unknown run", func(t *testing.T) {
		deps := setupRunServiceTest(t)
		defer deps.db.Close()

		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return nil, gorm.ErrRecordNotFound
		}

		_, err := deps.service.Approve(ctx, companyID.String(), uuid.New().String(), approverID)

		assert.ErrorIs(t, err, payrollrunerrors.ErrRunNotFound)
	})
}

func TestRunService_TerminatedEmployeeFailsProcessing(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := draftRun(companyID)
	empl := activeEmployee(companyID)
	empl.Status = employee.StatusTerminated

	deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.employees.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*employee.Employee, error) {
		return empl, nil
	}

	_, err := deps.service.ProcessEmployee(ctx, companyID.String(), run.ID.String(), payrollrun.PeriodInput{
		EmployeeID: empl.ID.String(),
	})

	assert.ErrorIs(t, err, payrollrunerrors.ErrEmployeeNotActive)
}

func TestRunService_UnsupportedTaxYear(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := draftRun(companyID)
	run.PayDate = time.Date(1999, 1, 15, 0, 0, 0, 0, time.UTC)
	empl := activeEmployee(companyID)

	deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.employees.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*employee.Employee, error) {
		return empl, nil
	}

	_, err := deps.service.ProcessEmployee(ctx, companyID.String(), run.ID.String(), payrollrun.PeriodInput{
		EmployeeID: empl.ID.String(),
	})

	assert.Error(t, err)
}

func TestRunService_GetByID_InvalidID(t *testing.T) {
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.GetByID(context.Background(), uuid.New().String(), "not-a-uuid")
	assert.ErrorIs(t, err, payrollrunerrors.ErrInvalidRunID)
}

func TestRunService_RepoErrorPassthrough(t *testing.T) {
	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	boom := errors.New("connection refused")
	deps.repo.findAllByCompanyFn = func(ctx context.Context, cid string) ([]payrollrun.PayrollRun, error) {
		return nil, boom
	}

	_, err := deps.service.GetAll(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, boom)
}

func TestRunNumberFormat(t *testing.T) {
	// Sanity on the zero-padded shape used across firm reports.
	assert.Equal(t, "PR-2024-0042", fmt.Sprintf("PR-%d-%04d", 2024, 42))
}

// Two off-cycle payments landing on the same payday must see each other's
// earnings: the second one's EI room is whatever the first left behind.
func TestRunService_SamePayDateAdhocConsumesRoomOnce(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	empl := activeEmployee(companyID)
	empl.PayType = employee.PayTypeHourly
	empl.PayRate = 30

	deps.employees.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*employee.Employee, error) {
		return empl, nil
	}

	// In-memory ledger standing in for the paystubs table. Earlier in the
	// year the employee earned 63,000 of the 63,200 EI maximum.
	ledger := []paystub.Paystub{{
		EmployeeID: empl.ID,
		GrossPay:   63000,
		PayDate:    time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC),
	}}
	deps.paystubs.createFn = func(ctx context.Context, stub *paystub.Paystub) error {
		ledger = append(ledger, *stub)
		return nil
	}
	deps.paystubs.sumEarningsBeforeFn = func(ctx context.Context, cid, eid string, year int, payDate time.Time) (float64, error) {
		var total float64
		for _, s := range ledger {
			if s.PayDate.Year() == year && !s.PayDate.After(payDate) {
				total += s.GrossPay
			}
		}
		return total, nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()
	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	first, err := deps.service.ProcessAdhoc(ctx, companyID.String(), payrollrun.AdhocProcessRequest{
		PeriodStart: "2023-06-01",
		PeriodEnd:   "2023-06-07",
		PayDate:     "2023-06-16",
		Input:       payrollrun.PeriodInput{EmployeeID: empl.ID.String(), Bonus: 5000},
	})
	assert.NoError(t, err)

	second, err := deps.service.ProcessAdhoc(ctx, companyID.String(), payrollrun.AdhocProcessRequest{
		PeriodStart: "2023-06-08",
		PeriodEnd:   "2023-06-15",
		PayDate:     "2023-06-16",
		Input:       payrollrun.PeriodInput{EmployeeID: empl.ID.String(), Bonus: 5000},
	})
	assert.NoError(t, err)

	// First payment withholds on the remaining 200 of insurable room.
	assert.InDelta(t, 3.26, first.EI, 0.001)
	assert.Equal(t, 63000.0, first.YTDEarningsBefore)

	// Second payment sees the first one's 5,000 and is past both caps.
	assert.Equal(t, 68000.0, second.YTDEarningsBefore)
	assert.Equal(t, 0.0, second.EI)
	assert.Equal(t, 0.0, second.CPP)

	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestRunService_ProcessEmployee_DuplicatePeriodRejected(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	run := draftRun(companyID)
	empl := activeEmployee(companyID)

	deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.employees.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*employee.Employee, error) {
		return empl, nil
	}

	var ledger []paystub.Paystub
	deps.paystubs.createFn = func(ctx context.Context, stub *paystub.Paystub) error {
		ledger = append(ledger, *stub)
		return nil
	}
	deps.paystubs.hasOverlappingPeriodFn = func(ctx context.Context, cid, eid string, start, end time.Time) (bool, error) {
		for _, s := range ledger {
			if s.RunID != nil && !s.PeriodEnd.Before(start) && !s.PeriodStart.After(end) {
				return true, nil
			}
		}
		return false, nil
	}

	input := payrollrun.PeriodInput{EmployeeID: empl.ID.String()}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	_, err := deps.service.ProcessEmployee(ctx, companyID.String(), run.ID.String(), input)
	assert.NoError(t, err)
	assert.Len(t, ledger, 1)

	// Re-running the same member for the same period must not pay twice.
	_, err = deps.service.ProcessEmployee(ctx, companyID.String(), run.ID.String(), input)
	assert.ErrorIs(t, err, payrollrunerrors.ErrPeriodAlreadyProcessed)
	assert.Len(t, ledger, 1)

	// An off-cycle payment sharing the period is still allowed.
	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	_, err = deps.service.ProcessAdhoc(ctx, companyID.String(), payrollrun.AdhocProcessRequest{
		PeriodStart: "2023-06-01",
		PeriodEnd:   "2023-06-14",
		PayDate:     "2023-06-16",
		Input:       payrollrun.PeriodInput{EmployeeID: empl.ID.String(), Bonus: 500},
	})
	assert.NoError(t, err)
	assert.Len(t, ledger, 2)

	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestRunService_MalformedDatesRejected(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	deps := setupRunServiceTest(t)
	defer deps.db.Close()

	// Bypassing the HTTP binding must not smuggle in the zero time.
	_, err := deps.service.CreateRun(ctx, companyID.String(), uuid.New().String(), payrollrun.CreateRunRequest{
		PeriodStart: "06/01/2023",
		PeriodEnd:   "2023-06-14",
		PayDate:     "2023-06-16",
	})
	assert.ErrorIs(t, err, payrollrunerrors.ErrInvalidPeriodInput)

	_, err = deps.service.ProcessAdhoc(ctx, companyID.String(), payrollrun.AdhocProcessRequest{
		PeriodStart: "2023-06-01",
		PeriodEnd:   "2023-06-14",
		PayDate:     "not-a-date",
		Input:       payrollrun.PeriodInput{EmployeeID: uuid.New().String()},
	})
	assert.ErrorIs(t, err, payrollrunerrors.ErrInvalidPeriodInput)
}
