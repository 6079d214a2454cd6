package models

import "gorm.io/gorm"

// AutoMigrateAll creates/updates the HR schema. Used by the import tool and
// dev setups; production schema changes go through migrations.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Employee{},
		&FormerEmployee{},
		&NewJoiner{},
		&InstructorPerformance{},
		&FinanceKpi{},
		&MonthlyRevenue{},
		&HrKpiSnapshot{},
	)
}
