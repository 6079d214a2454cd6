package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HrKpiSnapshot is a persisted precomputed-metrics row written by
// cmd/snapshot-kpis. The overview engine prefers these values when they are
// present and non-zero; the raw tables remain the source of truth.
//
// Structured fields (nationality split, reasons) are stored as JSON text.
type HrKpiSnapshot struct {
	ID                    int             `gorm:"primary_key" json:"id"`
	SnapshotDate          time.Time       `gorm:"type:date;index" json:"snapshot_date"`
	AttritionRate         float64         `gorm:"type:decimal(5,2)" json:"attrition_rate"`
	MonthlyPayroll        decimal.Decimal `gorm:"type:decimal(14,2)" json:"monthly_payroll"`
	AvgTenureYears        float64         `gorm:"type:decimal(5,1)" json:"avg_tenure_years"`
	NationalitySplitJson  string          `gorm:"type:text" json:"nationality_split_json"`
	MarriedPct            float64         `gorm:"type:decimal(5,1)" json:"married_pct"`
	SinglePct             float64         `gorm:"type:decimal(5,1)" json:"single_pct"`
	TurnoverLastYear      int             `json:"turnover_last_year"`
	TopTurnoverDepartment string          `gorm:"size:100" json:"top_turnover_department"`
	TopTurnoverPct        float64         `gorm:"type:decimal(5,1)" json:"top_turnover_pct"`
	TurnoverReasonsJson   string          `gorm:"type:text" json:"turnover_reasons_json"`
	TurnoverCost          decimal.Decimal `gorm:"type:decimal(14,2)" json:"turnover_cost"`
	EngagementScore       float64         `gorm:"type:decimal(5,1)" json:"engagement_score"`
	CreatedAt             time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// GetLatestKpiSnapshot returns the newest snapshot row, or nil when none
// has been written yet (nil is valid: the engine then derives everything).
func GetLatestKpiSnapshot(ctx context.Context) (*HrKpiSnapshot, error) {
	db := config.GetDB()
	var row HrKpiSnapshot
	if err := db.WithContext(ctx).Order("snapshot_date DESC, id DESC").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
