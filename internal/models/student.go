package models

import (
	"time"

	"gorm.io/gorm"
)

// Student represents a student record, the unit of notification targeting.
// GuardianPhone may be empty; such students are skipped by send runs.
type Student struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string         `gorm:"size:100;not null;index" json:"name"`
	NIS           string         `gorm:"uniqueIndex;size:30;not null" json:"nis"` // student ID number
	ClassLabel    string         `gorm:"size:20" json:"class_label"`
	GuardianPhone string         `gorm:"size:20" json:"guardian_phone"`
	Payments      []Payment      `gorm:"foreignKey:StudentID" json:"payments,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasPhone reports whether the student can be reached over WhatsApp.
func (s *Student) HasPhone() bool {
	return s.GuardianPhone != ""
}

// TableName specifies the table name for the Student model
func (Student) TableName() string {
	return "student"
}
