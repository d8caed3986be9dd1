package paystub

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"go-paynorth/internal/tenant"
)

//go:generate mockgen -source=paystub_repo.go -destination=mock/paystub_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, stub *Paystub) error
	FindByIDAndCompany(ctx context.Context, companyID string, id string) (*Paystub, error)
	FindAllByEmployee(ctx context.Context, companyID string, employeeID string) ([]Paystub, error)
	FindAllByEmployeeAndYear(ctx context.Context, companyID string, employeeID string, year int) ([]Paystub, error)
	FindAllByRun(ctx context.Context, companyID string, runID string) ([]Paystub, error)
	AttachToRun(ctx context.Context, companyID string, id string, runID string) error
	HasOverlappingPeriod(ctx context.Context, companyID string, employeeID string, periodStart time.Time, periodEnd time.Time) (bool, error)
	SumEarningsBefore(ctx context.Context, companyID string, employeeID string, year int, payDate time.Time) (float64, error)
	TotalsByRun(ctx context.Context, companyID string, runID string) (RunTotals, error)
	SaveSlip(ctx context.Context, slip *Slip) error
	FindSlipByPaystub(ctx context.Context, companyID string, paystubID string) (*Slip, error)
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

func (r *repository) Create(ctx context.Context, stub *Paystub) error {
	return r.db.WithContext(ctx).Create(stub).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*Paystub, error) {
	var stub Paystub
	err := r.db.WithContext(ctx).
		Table("paystubs").
		Select("paystubs.*, employees.full_name AS employee_name, employees.employee_number AS employee_number").
		Joins("JOIN employees ON employees.id = paystubs.employee_id").
		Where("paystubs.id = ?", id).
		Where("paystubs.company_id = ?", companyID).
		First(&stub).Error
	return &stub, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID string, employeeID string) ([]Paystub, error) {
	var stubs []Paystub
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Order("pay_date DESC, created_at DESC").
		Find(&stubs).Error
	return stubs, err
}

func (r *repository) FindAllByEmployeeAndYear(ctx context.Context, companyID string, employeeID string, year int) ([]Paystub, error) {
	var stubs []Paystub
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("EXTRACT(YEAR FROM pay_date) = ?", year).
		Order("pay_date ASC").
		Find(&stubs).Error
	return stubs, err
}

func (r *repository) FindAllByRun(ctx context.Context, companyID string, runID string) ([]Paystub, error) {
	var stubs []Paystub
	err := r.db.WithContext(ctx).
		Table("paystubs").
		Select("paystubs.*, employees.full_name AS employee_name, employees.employee_number AS employee_number").
		Joins("JOIN employees ON employees.id = paystubs.employee_id").
		Where("paystubs.company_id = ?", companyID).
		Where("paystubs.run_id = ?", runID).
		Order("employees.employee_number ASC").
		Find(&stubs).Error
	return stubs, err
}

func (r *repository) AttachToRun(ctx context.Context, companyID string, id string, runID string) error {
	res := r.db.WithContext(ctx).
		Model(&Paystub{}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Update("run_id", runID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HasOverlappingPeriod reports whether the employee already has a run-attached
// paystub whose period overlaps [periodStart, periodEnd]. Ad hoc stubs are
// excluded: off-cycle payments may legitimately share a period with regular
// payroll.
func (r *repository) HasOverlappingPeriod(
	ctx context.Context,
	companyID string,
	employeeID string,
	periodStart time.Time,
	periodEnd time.Time,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Paystub{}).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("run_id IS NOT NULL").
		Where("NOT (period_end < ? OR period_start > ?)", periodStart, periodEnd).
		Count(&count).Error
	return count > 0, err
}

// SumEarningsBefore returns the employee's gross earnings for pay dates in
// the given calendar year on or before payDate. This is the YTD figure the
// CPP/EI cap math depends on. The inclusive bound matters: an off-cycle
// payment landing on a regular payday must see the earlier payment's
// earnings, and the stub being computed is not yet stored so it can never
// count itself.
func (r *repository) SumEarningsBefore(ctx context.Context, companyID string, employeeID string, year int, payDate time.Time) (float64, error) {
	var total sql.NullFloat64
	err := r.db.WithContext(ctx).
		Model(&Paystub{}).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("EXTRACT(YEAR FROM pay_date) = ?", year).
		Where("pay_date <= ?", payDate).
		Select("SUM(gross_pay)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}

func (r *repository) TotalsByRun(ctx context.Context, companyID string, runID string) (RunTotals, error) {
	var totals RunTotals
	err := r.db.WithContext(ctx).
		Model(&Paystub{}).
		Scopes(tenant.Scope(companyID)).
		Where("run_id = ?", runID).
		Select(`
			COALESCE(SUM(gross_pay), 0) AS gross_pay,
			COALESCE(SUM(net_pay), 0) AS net_pay,
			COALESCE(SUM(federal_tax + provincial_tax + cpp + ei + other_deductions), 0) AS total_deductions,
			COUNT(*) AS paystub_count
		`).
		Scan(&totals).Error
	return totals, err
}

func (r *repository) SaveSlip(ctx context.Context, slip *Slip) error {
	return r.db.WithContext(ctx).
		Exec(`
			INSERT INTO slips (id, paystub_id, company_id, content, generated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (paystub_id) DO UPDATE
			SET content = EXCLUDED.content, generated_at = EXCLUDED.generated_at
		`, slip.ID, slip.PaystubID, slip.CompanyID, slip.Content, slip.GeneratedAt).Error
}

func (r *repository) FindSlipByPaystub(ctx context.Context, companyID string, paystubID string) (*Slip, error) {
	var slip Slip
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&slip, "paystub_id = ?", paystubID).Error
	return &slip, err
}
