package tenant

import "gorm.io/gorm"

// Scope restricts a query to one client's rows. Every repository query runs
// through it; cross-tenant reads are a bug, not a configuration choice.
func Scope(companyID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID)
	}
}
