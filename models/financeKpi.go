package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FinanceKpi is the finance team's latest revenue/expense figures, loaded
// by their own pipeline. The HR backend only reads the most recent row.
type FinanceKpi struct {
	ID         int             `gorm:"primary_key" json:"id"`
	RevenueQr  decimal.Decimal `gorm:"type:decimal(14,2)" json:"revenue_qr"`
	ExpensesQr decimal.Decimal `gorm:"type:decimal(14,2)" json:"expenses_qr"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (FinanceKpi) TableName() string {
	return "finance_kpi"
}

type MonthlyRevenue struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Year      int             `gorm:"index" json:"year"`
	Month     int             `gorm:"index" json:"month"`
	MonthName string          `gorm:"size:20" json:"month_name"`
	RevenueQr decimal.Decimal `gorm:"type:decimal(14,2)" json:"revenue_qr"`
}

func (MonthlyRevenue) TableName() string {
	return "monthly_revenue"
}

type FinancialSummary struct {
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

// FetchFinancialSummary returns the latest finance KPI row with derived
// profit. A missing row is zeroed figures, not an error.
func FetchFinancialSummary(ctx context.Context) (*FinancialSummary, error) {
	db := config.GetDB()
	var row FinanceKpi
	if err := db.WithContext(ctx).Order("id DESC").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &FinancialSummary{
				Revenue:  decimal.Zero,
				Expenses: decimal.Zero,
				Profit:   decimal.Zero,
			}, nil
		}
		return nil, err
	}
	return &FinancialSummary{
		Revenue:  row.RevenueQr,
		Expenses: row.ExpensesQr,
		Profit:   row.RevenueQr.Sub(row.ExpensesQr),
	}, nil
}

func ListMonthlyRevenue(ctx context.Context) ([]*MonthlyRevenue, error) {
	db := config.GetDB()
	var records []*MonthlyRevenue
	if err := db.WithContext(ctx).Order("year, month").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
