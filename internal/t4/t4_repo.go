package t4

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"go-paynorth/internal/tenant"
)

//go:generate mockgen -source=t4_repo.go -destination=mock/t4_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Upsert(ctx context.Context, record *T4Record) error
	FindByEmployeeAndYear(ctx context.Context, companyID string, employeeID string, year int) (*T4Record, error)
	FindAllByCompanyAndYear(ctx context.Context, companyID string, year int) ([]T4Record, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

// Upsert inserts the record, or overwrites the existing draft for the same
// (employee, year). Regeneration is idempotent recomputation, never append.
func (r *repository) Upsert(ctx context.Context, record *T4Record) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO t4_records (
			id, company_id, employee_id, tax_year,
			box14_employment_income, box16_cpp_contributions,
			box18_ei_premiums, box22_income_tax,
			paystub_count, status, generated_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now(), now())
		ON CONFLICT (employee_id, tax_year) DO UPDATE SET
			box14_employment_income = EXCLUDED.box14_employment_income,
			box16_cpp_contributions = EXCLUDED.box16_cpp_contributions,
			box18_ei_premiums = EXCLUDED.box18_ei_premiums,
			box22_income_tax = EXCLUDED.box22_income_tax,
			paystub_count = EXCLUDED.paystub_count,
			status = EXCLUDED.status,
			generated_at = EXCLUDED.generated_at,
			updated_at = now()
	`,
		record.ID, record.CompanyID, record.EmployeeID, record.TaxYear,
		record.Box14EmploymentIncome, record.Box16CPPContributions,
		record.Box18EIPremiums, record.Box22IncomeTax,
		record.PaystubCount, record.Status, record.GeneratedAt,
	).Error
}

func (r *repository) FindByEmployeeAndYear(ctx context.Context, companyID string, employeeID string, year int) (*T4Record, error) {
	var record T4Record
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("tax_year = ?", year).
		First(&record).Error
	return &record, err
}

func (r *repository) FindAllByCompanyAndYear(ctx context.Context, companyID string, year int) ([]T4Record, error) {
	var records []T4Record
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("tax_year = ?", year).
		Order("employee_id ASC").
		Find(&records).Error
	return records, err
}
