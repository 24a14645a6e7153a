package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeCurrency FieldType = "currency"
	FieldTypeDate     FieldType = "date"
	FieldTypeBoolean  FieldType = "boolean"
)

// CustomField is an administrator-declared canonical field name.
type CustomField struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	FieldName  string       `gorm:"not null;uniqueIndex" json:"field_name"`
	FieldLabel string       `gorm:"not null" json:"field_label"`
	FieldType  FieldType    `gorm:"not null;default:'text'" json:"field_type"`
	CreatedBy  string       `gorm:"not null;default:''" json:"created_by"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
}

func (CustomField) TableName() string { return "custom_fields" }
