package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConflict  Status = "conflict"
	StatusValidated Status = "validated"
	StatusRejected  Status = "rejected"
	StatusProcessed Status = "processed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConflict, StatusValidated, StatusRejected, StatusProcessed:
		return true
	}
	return false
}

// MatchableStatuses are the statuses a new record is compared against.
var MatchableStatuses = []Status{StatusValidated, StatusPending}

// ConflictSummary is the snapshot of one detector finding stored on the record.
type ConflictSummary struct {
	Type             string `json:"type"`
	Field            string `json:"field,omitempty"`
	ExistingValue    any    `json:"existing_value,omitempty"`
	NewValue         any    `json:"new_value,omitempty"`
	ExistingRecordID string `json:"existing_record_id"`
}

// ExtractedRecord is one row of an upload. MappedData holds canonical fields
// plus the raw row under the reserved "_raw" key.
type ExtractedRecord struct {
	ID         snowflake.ID                         `gorm:"primaryKey" json:"id"`
	UploadID   snowflake.ID                         `gorm:"not null;index" json:"upload_id"`
	CarrierID  snowflake.ID                         `gorm:"not null;index:idx_extracted_records_carrier_status" json:"carrier_id"`
	RawData    datatypes.JSONMap                    `gorm:"not null" json:"raw_data"`
	MappedData datatypes.JSONMap                    `gorm:"not null" json:"mapped_data"`
	Status     Status                               `gorm:"not null;index:idx_extracted_records_carrier_status" json:"status"`
	Conflicts  datatypes.JSONSlice[ConflictSummary] `gorm:"not null" json:"conflicts"`
	CreatedAt  time.Time                            `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time                            `gorm:"not null" json:"updated_at"`
}

func (ExtractedRecord) TableName() string { return "extracted_records" }

// MaxIndexedValueLen bounds RecordField.Value. Longer values are not indexed
// and therefore never match as a primary key.
const MaxIndexedValueLen = 512

// RecordField indexes one non-reserved mapped field of a record by its
// canonical JSON encoding, so primary-key lookups stay dialect-neutral.
type RecordField struct {
	RecordID  snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	Field     string       `gorm:"primaryKey;size:191;index:idx_record_fields_lookup,priority:2"`
	CarrierID snowflake.ID `gorm:"not null;index:idx_record_fields_lookup,priority:1"`
	Value     string       `gorm:"not null;size:512;index:idx_record_fields_lookup,priority:3"`
}

func (RecordField) TableName() string { return "record_fields" }

// FieldValue is one primary-key criterion: Field must equal Value (canonical encoding).
type FieldValue struct {
	Field string
	Value string
}

// LockTTL bounds how long a record lock survives a crashed holder.
const LockTTL = 30 * time.Second

// LockKey names the per-record lock shared by validation, rejection and
// conflict resolution.
func LockKey(id snowflake.ID) string {
	return "record:" + id.String()
}
