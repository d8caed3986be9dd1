package employee

import (
	"math"
	"time"

	"github.com/google/uuid"

	employeeerrors "go-paynorth/internal/employee/errors"
)

const (
	PayTypeSalary = "salary"
	PayTypeHourly = "hourly"
)

const (
	StatusActive     = "active"
	StatusOnLeave    = "on_leave"
	StatusTerminated = "terminated"
)

// Employee is a client's payroll master record. Rows are never hard-deleted;
// termination is a status transition so historical paystubs stay attributable.
type Employee struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID      uuid.UUID `gorm:"type:uuid;not null;index"`
	EmployeeNumber string    `gorm:"type:varchar(20);not null"`
	FullName       string    `gorm:"type:varchar(120);not null"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex"`

	// Pay basis. PayRate is the annual salary for salaried employees and the
	// hourly rate for hourly ones.
	PayType      string  `gorm:"type:varchar(10);not null"`
	PayRate      float64 `gorm:"type:numeric(12,2);not null"`
	PayFrequency string  `gorm:"type:varchar(15);not null"`

	// Statutory context.
	Province      string  `gorm:"type:varchar(2);not null"`
	FederalBPA    float64 `gorm:"type:numeric(10,2);not null"`
	ProvincialBPA float64 `gorm:"type:numeric(10,2);not null"`

	// Fixed per-period deductions.
	UnionDues             float64 `gorm:"type:numeric(10,2);not null;default:0"`
	AdditionalWithholding float64 `gorm:"type:numeric(10,2);not null;default:0"`
	HealthPremium         float64 `gorm:"type:numeric(10,2);not null;default:0"`
	DentalPremium         float64 `gorm:"type:numeric(10,2);not null;default:0"`
	LifeInsurancePremium  float64 `gorm:"type:numeric(10,2);not null;default:0"`

	Status    string    `gorm:"type:varchar(15);not null;default:'active';index"`
	HireDate  time.Time `gorm:"type:date;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FixedDeductions sums the employee's per-period deduction fields. Any
// negative or non-finite value marks the record as malformed; that employee
// fails, not the whole run.
func (e *Employee) FixedDeductions() (float64, error) {
	fields := []float64{
		e.UnionDues,
		e.AdditionalWithholding,
		e.HealthPremium,
		e.DentalPremium,
		e.LifeInsurancePremium,
	}

	var total float64
	for _, v := range fields {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, employeeerrors.ErrInvalidEmployeeData
		}
		total += v
	}
	return total, nil
}
