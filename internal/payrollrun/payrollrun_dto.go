package payrollrun

import (
	"time"

	"go-paynorth/internal/paystub"
)

type CreateRunRequest struct {
	PeriodStart string   `json:"period_start" binding:"required,datetime=2006-01-02"`
	PeriodEnd   string   `json:"period_end" binding:"required,datetime=2006-01-02"`
	PayDate     string   `json:"pay_date" binding:"required,datetime=2006-01-02"`
	EmployeeIDs []string `json:"employee_ids" binding:"omitempty,dive,uuid"`
}

// PeriodInput carries the per-employee variable earnings for one pay
// period. Hour fields only apply to hourly employees and are ignored
// for salaried ones.
type PeriodInput struct {
	EmployeeID     string  `json:"employee_id" binding:"required,uuid"`
	RegularHours   float64 `json:"regular_hours" binding:"gte=0"`
	OvertimeHours  float64 `json:"overtime_hours" binding:"gte=0"`
	VacationPay    float64 `json:"vacation_pay" binding:"gte=0"`
	Bonus          float64 `json:"bonus" binding:"gte=0"`
	Commission     float64 `json:"commission" binding:"gte=0"`
	Reimbursements float64 `json:"reimbursements" binding:"gte=0"`
}

type ProcessRunRequest struct {
	Inputs []PeriodInput `json:"inputs" binding:"required,min=1,dive"`
}

type ProcessEmployeeRequest struct {
	Input PeriodInput `json:"input" binding:"required"`
}

// AdhocProcessRequest is a standalone payroll computation with no run
// attached, used for off-cycle payments.
type AdhocProcessRequest struct {
	PeriodStart string      `json:"period_start" binding:"required,datetime=2006-01-02"`
	PeriodEnd   string      `json:"period_end" binding:"required,datetime=2006-01-02"`
	PayDate     string      `json:"pay_date" binding:"required,datetime=2006-01-02"`
	Input       PeriodInput `json:"input" binding:"required"`
}

type RunResponse struct {
	ID              string     `json:"id"`
	RunNumber       string     `json:"run_number"`
	PeriodStart     string     `json:"period_start"`
	PeriodEnd       string     `json:"period_end"`
	PayDate         string     `json:"pay_date"`
	Status          string     `json:"status"`
	EmployeeCount   int        `json:"employee_count"`
	TotalGrossPay   float64    `json:"total_gross_pay"`
	TotalNetPay     float64    `json:"total_net_pay"`
	TotalDeductions float64    `json:"total_deductions"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// EmployeeResult reports the outcome of processing one employee in a
// run. Exactly one of PaystubID or Error is set.
type EmployeeResult struct {
	EmployeeID string `json:"employee_id"`
	PaystubID  string `json:"paystub_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

type ProcessRunResponse struct {
	Run       RunResponse      `json:"run"`
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
	Results   []EmployeeResult `json:"results"`
}

type ProcessEmployeeResponse struct {
	Run     RunResponse              `json:"run"`
	Paystub *paystub.PaystubResponse `json:"paystub"`
}

const dateLayout = "2006-01-02"

func mapRunToResponse(run *PayrollRun) RunResponse {
	resp := RunResponse{
		ID:              run.ID.String(),
		RunNumber:       run.RunNumber,
		PeriodStart:     run.PeriodStart.Format(dateLayout),
		PeriodEnd:       run.PeriodEnd.Format(dateLayout),
		PayDate:         run.PayDate.Format(dateLayout),
		Status:          run.Status,
		EmployeeCount:   run.EmployeeCount,
		TotalGrossPay:   run.TotalGrossPay,
		TotalNetPay:     run.TotalNetPay,
		TotalDeductions: run.TotalDeductions,
		ApprovedAt:      run.ApprovedAt,
		CreatedAt:       run.CreatedAt,
	}
	if run.ApprovedBy != nil {
		approver := run.ApprovedBy.String()
		resp.ApprovedBy = &approver
	}
	return resp
}

func mapRunsToResponse(runs []PayrollRun) []RunResponse {
	responses := make([]RunResponse, 0, len(runs))
	for i := range runs {
		responses = append(responses, mapRunToResponse(&runs[i]))
	}
	return responses
}
