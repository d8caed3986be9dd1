package payrollrun

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-paynorth/internal/deduction"
	"go-paynorth/internal/employee"
	employeeerrors "go-paynorth/internal/employee/errors"
	"go-paynorth/internal/events"
	"go-paynorth/internal/messaging/kafka"
	"go-paynorth/internal/paystub"
	payrollrunerrors "go-paynorth/internal/payrollrun/errors"
	"go-paynorth/internal/shared/contextutil"
	"go-paynorth/internal/shared/counter"
	"go-paynorth/internal/taxtable"
)

//go:generate mockgen -source=payrollrun_service.go -destination=mock/payrollrun_service_mock.go -package=mock
type Service interface {
	CreateRun(ctx context.Context, companyID string, userID string, req CreateRunRequest) (RunResponse, error)
	GetAll(ctx context.Context, companyID string) ([]RunResponse, error)
	GetByID(ctx context.Context, companyID string, id string) (RunResponse, error)
	GetPaystubs(ctx context.Context, companyID string, id string) ([]paystub.PaystubResponse, error)
	ProcessRun(ctx context.Context, companyID string, id string, req ProcessRunRequest) (ProcessRunResponse, error)
	ProcessEmployee(ctx context.Context, companyID string, id string, input PeriodInput) (ProcessEmployeeResponse, error)
	ProcessAdhoc(ctx context.Context, companyID string, req AdhocProcessRequest) (paystub.PaystubResponse, error)
	Approve(ctx context.Context, companyID string, id string, approverID string) (RunResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees employee.Repository
	paystubs  paystub.Repository
	counter   counter.Repository
	tables    *taxtable.Provider
	outbox    kafka.OutboxRepository
	logger    *zap.Logger

	// One mutex per employee id. Paystub creation reads the YTD sum and
	// then writes a new row; two concurrent periods for the same employee
	// would both read the same YTD and double-count contribution room.
	locks sync.Map
}

func NewService(
	db *sql.DB,
	repo Repository,
	employees employee.Repository,
	paystubs paystub.Repository,
	counter counter.Repository,
	tables *taxtable.Provider,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("payrollrun.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payrollrun.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		paystubs:  paystubs,
		counter:   counter,
		tables:    tables,
		outbox:    outbox,
		logger:    l,
	}
}

func (s *service) CreateRun(
	ctx context.Context,
	companyID string,
	userID string,
	req CreateRunRequest,
) (RunResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create payroll run requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return RunResponse{}, employeeerrors.ErrInvalidCompanyID
	}

	periodStart, periodEnd, payDate, err := parsePeriodDates(req.PeriodStart, req.PeriodEnd, req.PayDate)
	if err != nil {
		return RunResponse{}, err
	}

	memberIDs, err := s.resolveMembers(ctx, companyID, req.EmployeeIDs)
	if err != nil {
		return RunResponse{}, err
	}

	year := payDate.Year()
	seq, err := s.counter.GetNextValue(ctx, companyID, fmt.Sprintf("payroll_run:%d", year))
	if err != nil {
		s.logger.Error("create run sequence failed", zap.Error(err))
		return RunResponse{}, err
	}

	run := &PayrollRun{
		ID:            uuid.New(),
		CompanyID:     companyUUID,
		RunNumber:     fmt.Sprintf("PR-%d-%04d", year, seq),
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		PayDate:       payDate,
		Status:        StatusDraft,
		EmployeeCount: len(memberIDs),
	}
	if creator, err := uuid.Parse(userID); err == nil {
		run.CreatedBy = &creator
	}

	if err := s.repo.Create(ctx, run, memberIDs); err != nil {
		s.logger.Error("create run persist failed", zap.String("request_id", rid), zap.Error(err))
		return RunResponse{}, err
	}

	s.logger.Info("payroll run created",
		zap.String("request_id", rid),
		zap.String("run_id", run.ID.String()),
		zap.String("run_number", run.RunNumber),
		zap.Int("employee_count", run.EmployeeCount),
	)

	return mapRunToResponse(run), nil
}

// parsePeriodDates validates the three period dates. The HTTP binding
// already enforces the layout, but the service is also called directly and
// must not treat malformed input as the zero time.
func parsePeriodDates(start, end, pay string) (time.Time, time.Time, time.Time, error) {
	periodStart, err := time.Parse(dateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, payrollrunerrors.ErrInvalidPeriodInput
	}
	periodEnd, err := time.Parse(dateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, payrollrunerrors.ErrInvalidPeriodInput
	}
	payDate, err := time.Parse(dateLayout, pay)
	if err != nil {
		return time.Time{}, time.Time{}, time.Time{}, payrollrunerrors.ErrInvalidPeriodInput
	}

	if periodEnd.Before(periodStart) {
		return time.Time{}, time.Time{}, time.Time{}, payrollrunerrors.ErrInvalidDateRange
	}
	if payDate.Before(periodEnd) {
		return time.Time{}, time.Time{}, time.Time{}, payrollrunerrors.ErrPayDateBeforePeriodEnd
	}
	return periodStart, periodEnd, payDate, nil
}

// resolveMembers pins run membership: the explicit employee list if one was
// given, otherwise every active employee of the company.
func (s *service) resolveMembers(ctx context.Context, companyID string, explicit []string) ([]uuid.UUID, error) {
	if len(explicit) > 0 {
		known, err := s.employees.FindAllByCompany(ctx, companyID)
		if err != nil {
			return nil, err
		}
		index := make(map[string]struct{}, len(known))
		for _, empl := range known {
			index[empl.ID.String()] = struct{}{}
		}

		ids := make([]uuid.UUID, 0, len(explicit))
		seen := make(map[string]struct{}, len(explicit))
		for _, raw := range explicit {
			if _, ok := index[raw]; !ok {
				return nil, employeeerrors.ErrEmployeeNotFound
			}
			if _, dup := seen[raw]; dup {
				continue
			}
			seen[raw] = struct{}{}
			ids = append(ids, uuid.MustParse(raw))
		}
		return ids, nil
	}

	active, err := s.employees.FindActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, payrollrunerrors.ErrNoEligibleEmployees
	}

	ids := make([]uuid.UUID, 0, len(active))
	for _, empl := range active {
		ids = append(ids, empl.ID)
	}
	return ids, nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]RunResponse, error) {
	runs, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("get all payroll runs failed", zap.Error(err))
		return nil, err
	}
	return mapRunsToResponse(runs), nil
}

func (s *service) GetByID(ctx context.Context, companyID string, id string) (RunResponse, error) {
	run, err := s.findRun(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, err
	}
	return mapRunToResponse(run), nil
}

func (s *service) GetPaystubs(ctx context.Context, companyID string, id string) ([]paystub.PaystubResponse, error) {
	if _, err := s.findRun(ctx, companyID, id); err != nil {
		return nil, err
	}

	stubs, err := s.paystubs.FindAllByRun(ctx, companyID, id)
	if err != nil {
		s.logger.Error("get run paystubs failed", zap.Error(err))
		return nil, err
	}
	return paystub.MapToListResponse(stubs), nil
}

// ProcessRun computes a paystub for every member of a draft run that has a
// period input. Per-employee failures are collected and reported instead of
// aborting the run: one malformed employee record must not block the rest of
// the period's payroll.
func (s *service) ProcessRun(
	ctx context.Context,
	companyID string,
	id string,
	req ProcessRunRequest,
) (ProcessRunResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	run, err := s.findRun(ctx, companyID, id)
	if err != nil {
		return ProcessRunResponse{}, err
	}
	if run.Status != StatusDraft {
		return ProcessRunResponse{}, payrollrunerrors.ErrRunNotDraft
	}

	memberIDs, err := s.repo.ListMemberIDs(ctx, run.ID)
	if err != nil {
		s.logger.Error("process run list members failed", zap.Error(err))
		return ProcessRunResponse{}, err
	}

	inputs := make(map[string]PeriodInput, len(req.Inputs))
	for _, in := range req.Inputs {
		inputs[in.EmployeeID] = in
	}

	results := make([]EmployeeResult, 0, len(memberIDs))
	processed, failed := 0, 0

	for _, employeeID := range memberIDs {
		result := EmployeeResult{EmployeeID: employeeID.String()}

		input, ok := inputs[employeeID.String()]
		if !ok {
			result.Error = "no period input provided"
			failed++
			results = append(results, result)
			continue
		}

		stub, err := s.processOne(ctx, companyID, run, input)
		if err != nil {
			s.logger.Warn("process run employee failed",
				zap.String("request_id", rid),
				zap.String("run_id", id),
				zap.String("employee_id", employeeID.String()),
				zap.Error(err),
			)
			result.Error = err.Error()
			failed++
		} else {
			result.PaystubID = stub.ID.String()
			processed++
		}
		results = append(results, result)
	}

	if err := s.refreshTotals(ctx, companyID, run); err != nil {
		return ProcessRunResponse{}, err
	}

	s.logger.Info("payroll run processed",
		zap.String("request_id", rid),
		zap.String("run_id", id),
		zap.Int("processed", processed),
		zap.Int("failed", failed),
	)

	return ProcessRunResponse{
		Run:       mapRunToResponse(run),
		Processed: processed,
		Failed:    failed,
		Results:   results,
	}, nil
}

// ProcessEmployee computes one member's paystub inside a draft run.
func (s *service) ProcessEmployee(
	ctx context.Context,
	companyID string,
	id string,
	input PeriodInput,
) (ProcessEmployeeResponse, error) {
	run, err := s.findRun(ctx, companyID, id)
	if err != nil {
		return ProcessEmployeeResponse{}, err
	}
	if run.Status != StatusDraft {
		return ProcessEmployeeResponse{}, payrollrunerrors.ErrRunNotDraft
	}

	employeeUUID, err := uuid.Parse(input.EmployeeID)
	if err != nil {
		return ProcessEmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}
	member, err := s.repo.IsMember(ctx, run.ID, employeeUUID)
	if err != nil {
		return ProcessEmployeeResponse{}, err
	}
	if !member {
		return ProcessEmployeeResponse{}, payrollrunerrors.ErrEmployeeNotInRun
	}

	stub, err := s.processOne(ctx, companyID, run, input)
	if err != nil {
		return ProcessEmployeeResponse{}, err
	}

	if err := s.refreshTotals(ctx, companyID, run); err != nil {
		return ProcessEmployeeResponse{}, err
	}

	resp := paystub.MapToResponse(*stub)
	return ProcessEmployeeResponse{
		Run:     mapRunToResponse(run),
		Paystub: &resp,
	}, nil
}

// ProcessAdhoc computes a standalone paystub outside any run, for
// off-cycle payments such as a final pay on termination. The stub has no
// run id and never contributes to run rollups, but its gross pay still
// counts toward the employee's YTD for later CPP/EI cap math.
func (s *service) ProcessAdhoc(
	ctx context.Context,
	companyID string,
	req AdhocProcessRequest,
) (paystub.PaystubResponse, error) {
	periodStart, periodEnd, payDate, err := parsePeriodDates(req.PeriodStart, req.PeriodEnd, req.PayDate)
	if err != nil {
		return paystub.PaystubResponse{}, err
	}

	shadow := &PayrollRun{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		PayDate:     payDate,
	}

	stub, err := s.processOne(ctx, companyID, shadow, req.Input)
	if err != nil {
		return paystub.PaystubResponse{}, err
	}

	s.logger.Info("ad hoc paystub created",
		zap.String("company_id", companyID),
		zap.String("employee_id", req.Input.EmployeeID),
		zap.String("paystub_id", stub.ID.String()),
	)

	return paystub.MapToResponse(*stub), nil
}

// processOne is the per-employee pipeline: load the employee, derive gross
// pay, thread the true YTD into the deduction computation, and persist the
// paystub. A zero-value run ID means ad hoc processing with no run
// attachment.
func (s *service) processOne(
	ctx context.Context,
	companyID string,
	run *PayrollRun,
	input PeriodInput,
) (*paystub.Paystub, error) {
	unlock := s.lockEmployee(input.EmployeeID)
	defer unlock()

	empl, err := s.employees.FindByIDAndCompany(ctx, companyID, input.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employeeerrors.ErrEmployeeNotFound
		}
		return nil, err
	}
	if empl.Status == employee.StatusTerminated {
		return nil, payrollrunerrors.ErrEmployeeNotActive
	}

	// Run-attached processing must not pay the same period twice: a re-run
	// of a draft would double the rollups and re-consume CPP/EI room. Ad hoc
	// payments skip the check since they exist for off-cycle corrections
	// that can share a period with regular payroll.
	if run.ID != uuid.Nil {
		overlap, err := s.paystubs.HasOverlappingPeriod(ctx, companyID, input.EmployeeID, run.PeriodStart, run.PeriodEnd)
		if err != nil {
			return nil, err
		}
		if overlap {
			return nil, payrollrunerrors.ErrPeriodAlreadyProcessed
		}
	}

	gross, err := deriveGrossPay(empl, input)
	if err != nil {
		return nil, err
	}

	fixed, err := empl.FixedDeductions()
	if err != nil {
		return nil, err
	}

	taxYear := run.PayDate.Year()
	table, err := s.tables.Table(taxYear)
	if err != nil {
		return nil, err
	}

	ytd, err := s.paystubs.SumEarningsBefore(ctx, companyID, input.EmployeeID, taxYear, run.PayDate)
	if err != nil {
		return nil, err
	}

	result, err := deduction.Compute(deduction.Input{
		GrossPay:        gross,
		Frequency:       empl.PayFrequency,
		Province:        empl.Province,
		FederalBPA:      empl.FederalBPA,
		ProvincialBPA:   empl.ProvincialBPA,
		YTDEarnings:     ytd,
		OtherDeductions: fixed,
	}, table)
	if err != nil {
		return nil, err
	}

	stub := &paystub.Paystub{
		ID:                uuid.New(),
		CompanyID:         empl.CompanyID,
		EmployeeID:        empl.ID,
		PeriodStart:       run.PeriodStart,
		PeriodEnd:         run.PeriodEnd,
		PayDate:           run.PayDate,
		GrossPay:          result.GrossPay,
		FederalTax:        result.FederalTax,
		ProvincialTax:     result.ProvincialTax,
		CPP:               result.CPP,
		EI:                result.EI,
		OtherDeductions:   result.OtherDeductions,
		NetPay:            result.NetPay,
		Reimbursements:    deduction.RoundCents(input.Reimbursements),
		YTDEarningsBefore: ytd,
	}
	if run.ID != uuid.Nil {
		runID := run.ID
		stub.RunID = &runID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.paystubs.WithTx(tx)
	if err := qtx.Create(ctx, stub); err != nil {
		s.logger.Error("persist paystub failed",
			zap.String("employee_id", input.EmployeeID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	stub.EmployeeName = empl.FullName
	stub.EmployeeNumber = empl.EmployeeNumber
	return stub, nil
}

// deriveGrossPay applies the pay-basis formula: hours times rate with a 1.5
// overtime multiplier for hourly employees, annual salary divided by periods
// per year for salaried ones. Vacation pay, bonus, and commission are taxable
// and join gross; reimbursements do not.
func deriveGrossPay(empl *employee.Employee, input PeriodInput) (float64, error) {
	var base float64
	switch empl.PayType {
	case employee.PayTypeHourly:
		base = input.RegularHours*empl.PayRate + input.OvertimeHours*empl.PayRate*1.5
	case employee.PayTypeSalary:
		periods, err := deduction.PeriodsPerYear(empl.PayFrequency)
		if err != nil {
			return 0, err
		}
		base = empl.PayRate / float64(periods)
	default:
		return 0, employeeerrors.ErrInvalidEmployeeData
	}

	return deduction.RoundCents(base + input.VacationPay + input.Bonus + input.Commission), nil
}

// refreshTotals recomputes the run's rollups from its attached paystubs.
// Aggregation is a read over durable rows, never an in-memory accumulation,
// so a partially failed run still reports exact totals.
func (s *service) refreshTotals(ctx context.Context, companyID string, run *PayrollRun) error {
	totals, err := s.paystubs.TotalsByRun(ctx, companyID, run.ID.String())
	if err != nil {
		s.logger.Error("refresh run totals failed", zap.String("run_id", run.ID.String()), zap.Error(err))
		return err
	}

	if err := s.repo.UpdateTotals(ctx, run.ID, totals.GrossPay, totals.NetPay, totals.TotalDeductions); err != nil {
		s.logger.Error("persist run totals failed", zap.String("run_id", run.ID.String()), zap.Error(err))
		return err
	}

	run.TotalGrossPay = totals.GrossPay
	run.TotalNetPay = totals.NetPay
	run.TotalDeductions = totals.TotalDeductions
	return nil
}

// Approve transitions a draft run to approved, exactly once. The second
// attempt is rejected with a conflict, never silently re-approved. The
// approval event rides the outbox in the same transaction as the status
// flip so slip generation can never fire for a run that stayed draft.
func (s *service) Approve(
	ctx context.Context,
	companyID string,
	id string,
	approverID string,
) (RunResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	run, err := s.findRun(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, err
	}
	if run.Status == StatusApproved {
		return RunResponse{}, payrollrunerrors.ErrAlreadyApproved
	}

	approver, err := uuid.Parse(approverID)
	if err != nil {
		return RunResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve run begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return RunResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	affected, err := qtx.Approve(ctx, companyID, id, approver, now)
	if err != nil {
		s.logger.Error("approve run update failed", zap.String("request_id", rid), zap.Error(err))
		return RunResponse{}, err
	}
	if affected == 0 {
		// Lost the race against a concurrent approval.
		return RunResponse{}, payrollrunerrors.ErrAlreadyApproved
	}

	event := events.PayrollRunApprovedEvent{
		EventType:  events.PayrollRunApprovedEventType,
		RunID:      run.ID.String(),
		CompanyID:  companyID,
		ApprovedBy: approverID,
		OccurredAt: now,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return RunResponse{}, err
	}

	outboxEvent := kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     rid,
		AggregateType: "payroll_run",
		AggregateID:   run.ID.String(),
		EventType:     events.PayrollRunApprovedEventType,
		Topic:         events.PayrollRunApprovedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}
	if err := s.outbox.WithTx(tx).Create(ctx, outboxEvent); err != nil {
		s.logger.Error("approve run outbox write failed", zap.String("request_id", rid), zap.Error(err))
		return RunResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve run commit failed", zap.String("request_id", rid), zap.Error(err))
		return RunResponse{}, err
	}

	run.Status = StatusApproved
	run.ApprovedBy = &approver
	run.ApprovedAt = &now

	s.logger.Info("payroll run approved",
		zap.String("request_id", rid),
		zap.String("run_id", id),
		zap.String("run_number", run.RunNumber),
		zap.String("approved_by", approverID),
	)

	return mapRunToResponse(run), nil
}

func (s *service) findRun(ctx context.Context, companyID string, id string) (*PayrollRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, payrollrunerrors.ErrInvalidRunID
	}

	run, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payrollrunerrors.ErrRunNotFound
		}
		s.logger.Error("find payroll run failed", zap.String("run_id", id), zap.Error(err))
		return nil, err
	}
	return run, nil
}

func (s *service) lockEmployee(employeeID string) func() {
	v, _ := s.locks.LoadOrStore(employeeID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
