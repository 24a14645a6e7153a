package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Upload is one file ingestion run. Only the run that created it mutates it
// until it reaches completed or error.
type Upload struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	Filename         string       `gorm:"not null" json:"filename"`
	FilePath         string       `gorm:"not null" json:"file_path"`
	FileKind         string       `gorm:"not null;default:''" json:"file_kind"`
	CarrierID        snowflake.ID `gorm:"not null;index" json:"carrier_id"`
	CarrierName      string       `gorm:"not null" json:"carrier_name"`
	Status           Status       `gorm:"not null;index" json:"status"`
	TotalRecords     int          `gorm:"not null;default:0" json:"total_records"`
	ProcessedRecords int          `gorm:"not null;default:0" json:"processed_records"`
	ConflictCount    int          `gorm:"not null;default:0" json:"conflict_count"`
	ErrorMessage     string       `gorm:"not null;default:''" json:"error,omitempty"`
	UserID           string       `gorm:"not null;default:''" json:"user_id"`
	CreatedAt        time.Time    `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null" json:"updated_at"`
}

func (Upload) TableName() string { return "uploads" }

// Progress is the counter snapshot written while an upload runs.
type Progress struct {
	TotalRecords     int
	ProcessedRecords int
	ConflictCount    int
}
