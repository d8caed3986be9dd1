package t4

import (
	"time"

	"github.com/google/uuid"
)

const StatusDraft = "draft"

// T4Record is a draft Statement of Remuneration Paid, aggregated from the
// employee's paystubs for one tax year. One record per (employee, year):
// regeneration overwrites the previous draft instead of appending.
type T4Record struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_t4_employee_year" json:"employee_id"`
	TaxYear    int       `gorm:"not null;uniqueIndex:uq_t4_employee_year" json:"tax_year"`

	// CRA box numbers.
	Box14EmploymentIncome float64 `gorm:"type:numeric(12,2);not null;column:box14_employment_income" json:"box14_employment_income"`
	Box16CPPContributions float64 `gorm:"type:numeric(12,2);not null;column:box16_cpp_contributions" json:"box16_cpp_contributions"`
	Box18EIPremiums       float64 `gorm:"type:numeric(12,2);not null;column:box18_ei_premiums" json:"box18_ei_premiums"`
	Box22IncomeTax        float64 `gorm:"type:numeric(12,2);not null;column:box22_income_tax" json:"box22_income_tax"`

	PaystubCount int       `gorm:"not null;default:0" json:"paystub_count"`
	Status       string    `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	GeneratedAt  time.Time `gorm:"not null" json:"generated_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (T4Record) TableName() string {
	return "t4_records"
}
