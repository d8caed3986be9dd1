package payrollrun

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusDraft    = "draft"
	StatusApproved = "approved"
)

// PayrollRun groups the paystubs of one pay period under a single
// approval lifecycle. Totals are rollups recomputed from the attached
// paystubs after every successful employee processing.
type PayrollRun struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CompanyID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	RunNumber       string     `gorm:"type:varchar(20);not null;uniqueIndex:uq_run_number_company" json:"run_number"`
	PeriodStart     time.Time  `gorm:"type:date;not null" json:"period_start"`
	PeriodEnd       time.Time  `gorm:"type:date;not null" json:"period_end"`
	PayDate         time.Time  `gorm:"type:date;not null" json:"pay_date"`
	Status          string     `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	EmployeeCount   int        `gorm:"not null;default:0" json:"employee_count"`
	TotalGrossPay   float64    `gorm:"type:numeric(14,2);not null;default:0" json:"total_gross_pay"`
	TotalNetPay     float64    `gorm:"type:numeric(14,2);not null;default:0" json:"total_net_pay"`
	TotalDeductions float64    `gorm:"type:numeric(14,2);not null;default:0" json:"total_deductions"`
	CreatedBy       *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PayrollRun) TableName() string {
	return "payroll_runs"
}

// RunMember pins an employee to a run. Membership is fixed at creation
// time so later hires or terminations never change who a draft run
// covers.
type RunMember struct {
	RunID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"run_id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;primaryKey" json:"employee_id"`
}

func (RunMember) TableName() string {
	return "payroll_run_members"
}
