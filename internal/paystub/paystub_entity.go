package paystub

import (
	"time"

	"github.com/google/uuid"
)

// Paystub is the itemized result of one payroll calculation for one employee
// and one pay period. It is immutable once created: corrections are new
// paystubs, not edits. The only post-creation mutation allowed is attaching
// the stub to a payroll run.
type Paystub struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	EmployeeID uuid.UUID  `gorm:"type:uuid;not null;index:idx_paystub_employee_paydate"`
	RunID      *uuid.UUID `gorm:"type:uuid;index"`

	PeriodStart time.Time `gorm:"type:date;not null"`
	PeriodEnd   time.Time `gorm:"type:date;not null"`
	PayDate     time.Time `gorm:"type:date;not null;index:idx_paystub_employee_paydate"`

	GrossPay        float64 `gorm:"type:numeric(12,2);not null"`
	FederalTax      float64 `gorm:"type:numeric(12,2);not null"`
	ProvincialTax   float64 `gorm:"type:numeric(12,2);not null"`
	CPP             float64 `gorm:"type:numeric(12,2);not null;column:cpp"`
	EI              float64 `gorm:"type:numeric(12,2);not null;column:ei"`
	OtherDeductions float64 `gorm:"type:numeric(12,2);not null;default:0"`
	NetPay          float64 `gorm:"type:numeric(12,2);not null"`

	// Reimbursements ride along untaxed; they are not part of gross pay.
	Reimbursements float64 `gorm:"type:numeric(12,2);not null;default:0"`

	// Gross earnings the employee had already accumulated this calendar year
	// when this stub was computed. Stored for auditability of CPP/EI caps.
	YTDEarningsBefore float64 `gorm:"type:numeric(12,2);not null;default:0"`

	SlipGeneratedAt *time.Time
	CreatedAt       time.Time

	// Joined, read-only.
	EmployeeName   string `gorm:"->;-:migration"`
	EmployeeNumber string `gorm:"->;-:migration"`
}

// Slip is the rendered PDF for a paystub, generated asynchronously after run
// approval or on first download.
type Slip struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PaystubID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Content     []byte    `gorm:"type:bytea;not null"`
	GeneratedAt time.Time
}

// RunTotals is the rollup aggregate over every paystub attached to a run.
type RunTotals struct {
	GrossPay        float64
	NetPay          float64
	TotalDeductions float64
	PaystubCount    int64
}
