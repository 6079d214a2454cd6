package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
)

// NewJoiner is an employee hired within the tracked onboarding window.
// The table name keeps the window explicit; widening it is a data
// migration, not a code change.
type NewJoiner struct {
	ID              int             `gorm:"primary_key" json:"id"`
	EmployeeId      string          `gorm:"size:20;index" json:"employee_id"`
	FirstName       string          `gorm:"size:100" json:"first_name"`
	LastName        string          `gorm:"size:100" json:"last_name"`
	Nationality     string          `gorm:"size:100" json:"nationality"`
	Department      string          `gorm:"size:100" json:"department"`
	DateOfJoining   *time.Time      `gorm:"type:date" json:"date_of_joining"`
	ContractType    ContractType    `gorm:"size:20" json:"contract_type"`
	ProbationStatus ProbationStatus `gorm:"size:20;index" json:"probation_status"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (NewJoiner) TableName() string {
	return "new_joiners_2023_2024"
}

func (e *NewJoiner) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

func ListNewJoiners(ctx context.Context) ([]*NewJoiner, error) {
	db := config.GetDB()
	var records []*NewJoiner
	if err := db.WithContext(ctx).Order("date_of_joining DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
