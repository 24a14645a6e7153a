package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type FileType string

const (
	FileTypeAuto  FileType = "auto"
	FileTypeExcel FileType = "excel"
	FileTypeCSV   FileType = "csv"
	FileTypePDF   FileType = "pdf"
)

func (t FileType) Valid() bool {
	switch t {
	case FileTypeAuto, FileTypeExcel, FileTypeCSV, FileTypePDF:
		return true
	}
	return false
}

// Carrier is the per-source ingestion configuration. FieldMappings maps a
// carrier column name to a canonical field name.
type Carrier struct {
	ID               snowflake.ID                          `gorm:"primaryKey" json:"id"`
	Name             string                                `gorm:"not null" json:"name"`
	Code             string                                `gorm:"not null;uniqueIndex" json:"code"`
	Description      string                                `gorm:"not null;default:''" json:"description"`
	FieldMappings    datatypes.JSONType[map[string]string] `gorm:"not null" json:"field_mappings"`
	PrimaryKeyFields datatypes.JSONSlice[string]           `gorm:"not null" json:"primary_key_fields"`
	CustomFields     datatypes.JSONSlice[string]           `gorm:"not null" json:"custom_fields"`
	HeaderRow        *int                                  `json:"header_row"`
	DataStartRow     *int                                  `json:"data_start_row"`
	FileType         FileType                              `gorm:"not null;default:'auto'" json:"file_type"`
	CreatedAt        time.Time                             `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time                             `gorm:"not null" json:"updated_at"`
}

func (Carrier) TableName() string { return "carriers" }

// Mappings returns the field mappings, never nil.
func (c Carrier) Mappings() map[string]string {
	m := c.FieldMappings.Data()
	if m == nil {
		return map[string]string{}
	}
	return m
}

// PrimaryKeys returns the primary-key field names, never nil.
func (c Carrier) PrimaryKeys() []string {
	if c.PrimaryKeyFields == nil {
		return []string{}
	}
	return []string(c.PrimaryKeyFields)
}
