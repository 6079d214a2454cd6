package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/shopspring/decimal"
)

// Employee is one currently active employee. The analytics core treats
// this table as read-only; writes happen only through the import tool.
type Employee struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	EmployeeId         string          `gorm:"size:20;index" json:"employee_id"`
	FirstName          string          `gorm:"size:100" json:"first_name"`
	LastName           string          `gorm:"size:100" json:"last_name"`
	Nationality        string          `gorm:"size:100;index" json:"nationality"`
	Position           string          `gorm:"size:100" json:"position"`
	Department         string          `gorm:"size:100;index" json:"department"`
	DateOfJoining      *time.Time      `gorm:"type:date" json:"date_of_joining"`
	ContractType       ContractType    `gorm:"size:20" json:"contract_type"`
	BasicSalary        decimal.Decimal `gorm:"type:decimal(12,2)" json:"basic_salary"`
	HousingAllowance   decimal.Decimal `gorm:"type:decimal(12,2)" json:"housing_allowance"`
	TransportAllowance decimal.Decimal `gorm:"type:decimal(12,2)" json:"transport_allowance"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// TotalSalary is basic + housing + transport per month.
func (e *Employee) TotalSalary() decimal.Decimal {
	return e.BasicSalary.Add(e.HousingAllowance).Add(e.TransportAllowance)
}

// TenureYears as of the given date; 0 when the join date is unrecorded.
func (e *Employee) TenureYears(asOf time.Time) float64 {
	if e.DateOfJoining == nil {
		return 0
	}
	return utils.YearsBetween(*e.DateOfJoining, asOf)
}

func ListEmployees(ctx context.Context) ([]*Employee, error) {
	db := config.GetDB()
	var records []*Employee
	if err := db.WithContext(ctx).Order("employee_id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func CountEmployees(ctx context.Context) (int64, error) {
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Employee{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
