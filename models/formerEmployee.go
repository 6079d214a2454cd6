package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"github.com/shopspring/decimal"
)

// FormerEmployee is one employee who has left, terminated or resigned.
// It carries the salary columns itself so turnover cost never needs a join
// back to the active roster.
type FormerEmployee struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	EmployeeId           string          `gorm:"size:20;index" json:"employee_id"`
	FirstName            string          `gorm:"size:100" json:"first_name"`
	LastName             string          `gorm:"size:100" json:"last_name"`
	Nationality          string          `gorm:"size:100" json:"nationality"`
	Position             string          `gorm:"size:100" json:"position"`
	Department           string          `gorm:"size:100;index" json:"department"`
	DateOfJoining        *time.Time      `gorm:"type:date" json:"date_of_joining"`
	DateOfLeaving        *time.Time      `gorm:"type:date;index" json:"date_of_leaving"`
	ContractType         ContractType    `gorm:"size:20" json:"contract_type"`
	BasicSalary          decimal.Decimal `gorm:"type:decimal(12,2)" json:"basic_salary"`
	HousingAllowance     decimal.Decimal `gorm:"type:decimal(12,2)" json:"housing_allowance"`
	TransportAllowance   decimal.Decimal `gorm:"type:decimal(12,2)" json:"transport_allowance"`
	LeavingReason        string          `gorm:"type:text" json:"leaving_reason"`
	TerminationType      TerminationType `gorm:"size:20;index" json:"termination_type"`
	TerminationSubReason string          `gorm:"size:255" json:"termination_sub_reason"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *FormerEmployee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

func (e *FormerEmployee) TotalSalary() decimal.Decimal {
	return e.BasicSalary.Add(e.HousingAllowance).Add(e.TransportAllowance)
}

func ListFormerEmployees(ctx context.Context) ([]*FormerEmployee, error) {
	db := config.GetDB()
	var records []*FormerEmployee
	if err := db.WithContext(ctx).Order("date_of_leaving DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
