package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Type string

const (
	TypeMismatch  Type = "mismatch"
	TypeDuplicate Type = "duplicate"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusResolved, StatusRejected:
		return true
	}
	return false
}

type Resolution string

const (
	ResolutionAcceptNew   Resolution = "accept_new"
	ResolutionKeepCurrent Resolution = "keep_current"
	ResolutionManual      Resolution = "manual"
)

func (r Resolution) Valid() bool {
	switch r {
	case ResolutionAcceptNew, ResolutionKeepCurrent, ResolutionManual:
		return true
	}
	return false
}

// Conflict is one disputed field, or a whole-record duplicate when FieldName
// is empty, between a new record and the existing record it matched.
type Conflict struct {
	ID               snowflake.ID   `gorm:"primaryKey" json:"id"`
	RecordID         snowflake.ID   `gorm:"not null;index" json:"record_id"`
	UploadID         snowflake.ID   `gorm:"not null;index" json:"upload_id"`
	ExistingRecordID snowflake.ID   `gorm:"not null" json:"existing_record_id"`
	ConflictType     Type           `gorm:"not null" json:"conflict_type"`
	FieldName        string         `gorm:"not null;default:''" json:"field_name"`
	CurrentValue     datatypes.JSON `json:"current_value"`
	NewValue         datatypes.JSON `json:"new_value"`
	Status           Status         `gorm:"not null;index" json:"status"`
	Resolution       *Resolution    `json:"resolution,omitempty"`
	ResolvedValue    datatypes.JSON `json:"resolved_value,omitempty"`
	ResolvedAt       *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
}

func (Conflict) TableName() string { return "conflicts" }

// EncodeValue stores a dynamically typed mapped value as JSON.
func EncodeValue(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

// DecodeValue is the inverse of EncodeValue. Numbers decode as float64.
func DecodeValue(raw datatypes.JSON) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
