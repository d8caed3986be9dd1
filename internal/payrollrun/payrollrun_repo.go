package payrollrun

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-paynorth/internal/tenant"
)

//go:generate mockgen -source=payrollrun_repo.go -destination=mock/payrollrun_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, run *PayrollRun, memberIDs []uuid.UUID) error
	FindByIDAndCompany(ctx context.Context, companyID string, id string) (*PayrollRun, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]PayrollRun, error)
	ListMemberIDs(ctx context.Context, runID uuid.UUID) ([]uuid.UUID, error)
	IsMember(ctx context.Context, runID uuid.UUID, employeeID uuid.UUID) (bool, error)
	UpdateTotals(ctx context.Context, runID uuid.UUID, gross float64, net float64, deductions float64) error
	Approve(ctx context.Context, companyID string, id string, approvedBy uuid.UUID, approvedAt time.Time) (int64, error)
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

func (r *repository) Create(ctx context.Context, run *PayrollRun, memberIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		members := make([]RunMember, 0, len(memberIDs))
		for _, employeeID := range memberIDs {
			members = append(members, RunMember{RunID: run.ID, EmployeeID: employeeID})
		}
		return tx.Create(&members).Error
	})
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*PayrollRun, error) {
	var run PayrollRun
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&run, "id = ?", id).Error
	return &run, err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]PayrollRun, error) {
	var runs []PayrollRun
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("pay_date DESC, run_number DESC").
		Find(&runs).Error
	return runs, err
}

func (r *repository) ListMemberIDs(ctx context.Context, runID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&RunMember{}).
		Where("run_id = ?", runID).
		Order("employee_id ASC").
		Pluck("employee_id", &ids).Error
	return ids, err
}

func (r *repository) IsMember(ctx context.Context, runID uuid.UUID, employeeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RunMember{}).
		Where("run_id = ? AND employee_id = ?", runID, employeeID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) UpdateTotals(ctx context.Context, runID uuid.UUID, gross float64, net float64, deductions float64) error {
	return r.db.WithContext(ctx).
		Model(&PayrollRun{}).
		Where("id = ?", runID).
		Updates(map[string]interface{}{
			"total_gross_pay":  gross,
			"total_net_pay":    net,
			"total_deductions": deductions,
		}).Error
}

// Approve flips a draft run to approved. The status guard in the WHERE
// clause makes concurrent approvals race-safe: only one update can win.
// Inside a transaction the update runs on the tx so the status flip and the
// outbox event commit or roll back together.
func (r *repository) Approve(ctx context.Context, companyID string, id string, approvedBy uuid.UUID, approvedAt time.Time) (int64, error) {
	if r.tx != nil {
		res, err := r.tx.ExecContext(ctx, `
			UPDATE payroll_runs
			SET status = $1, approved_by = $2, approved_at = $3, updated_at = now()
			WHERE id = $4 AND company_id = $5 AND status = $6
		`, StatusApproved, approvedBy, approvedAt, id, companyID, StatusDraft)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}

	res := r.db.WithContext(ctx).
		Model(&PayrollRun{}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ? AND status = ?", id, StatusDraft).
		Updates(map[string]interface{}{
			"status":      StatusApproved,
			"approved_by": approvedBy,
			"approved_at": approvedAt,
		})
	return res.RowsAffected, res.Error
}
