package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
)

// InstructorPerformance is one review of a driving instructor.
type InstructorPerformance struct {
	ID            int               `gorm:"primary_key" json:"id"`
	EmployeeName  string            `gorm:"size:200;index" json:"employee_name"`
	ReviewDate    *time.Time        `gorm:"type:date;index" json:"review_date"`
	OverallScore  float64           `gorm:"type:decimal(5,2)" json:"overall_score"`
	OverallRating PerformanceRating `gorm:"size:30" json:"overall_rating"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (InstructorPerformance) TableName() string {
	return "instructor_performance"
}

func ListInstructorPerformance(ctx context.Context) ([]*InstructorPerformance, error) {
	db := config.GetDB()
	var records []*InstructorPerformance
	if err := db.WithContext(ctx).Order("review_date DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
