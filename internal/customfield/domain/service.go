package domain

import (
	"context"
	"errors"
)

type CreateCustomFieldRequest struct {
	FieldName  string `json:"field_name" form:"field_name"`
	FieldLabel string `json:"field_label" form:"field_label"`
	FieldType  string `json:"field_type" form:"field_type"`
}

type Service interface {
	Create(ctx context.Context, req CreateCustomFieldRequest) (CustomField, error)
	List(ctx context.Context) ([]CustomField, error)
	Delete(ctx context.Context, name string) error
}

var (
	ErrInvalidFieldName  = errors.New("invalid_field_name")
	ErrInvalidFieldLabel = errors.New("invalid_field_label")
	ErrInvalidFieldType  = errors.New("invalid_field_type")
	ErrFieldExists       = errors.New("custom_field_exists")
	ErrNotFound          = errors.New("custom_field_not_found")
)
