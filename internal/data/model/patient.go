package model

import (
	"time"

	"gorm.io/gorm"
)

// Patient is the subset of the records service's patient table this service
// reads. Only counting happens here; the table is written elsewhere.
type Patient struct {
	PatientID string         `gorm:"primaryKey;column:patient_id;type:varchar(64)"`
	AccountID string         `gorm:"column:account_id;type:varchar(64);not null;index"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Patient) TableName() string { return "patient" }
