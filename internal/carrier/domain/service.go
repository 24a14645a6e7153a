package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/revbox/internal/providers/llm"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
)

type CreateCarrierRequest struct {
	Name             string            `json:"name"`
	Code             string            `json:"code"`
	Description      string            `json:"description"`
	FieldMappings    map[string]string `json:"field_mappings"`
	PrimaryKeyFields []string          `json:"primary_key_fields"`
	CustomFields     []string          `json:"custom_fields"`
	HeaderRow        *int              `json:"header_row"`
	DataStartRow     *int              `json:"data_start_row"`
	FileType         string            `json:"file_type"`
}

// UpdateCarrierRequest replaces every editable attribute, like a create.
type UpdateCarrierRequest = CreateCarrierRequest

type UpdateFieldMappingsRequest struct {
	FieldMappings    map[string]string `json:"field_mappings"`
	PrimaryKeyFields []string          `json:"primary_key_fields"`
}

type ListCarrierRequest struct {
	PageToken string
	PageSize  int
	Code      string
}

type ListCarrierFilter struct {
	Code string
}

type ListCarrierResponse struct {
	pagination.PageInfo
	Carriers []Carrier `json:"carriers"`
}

type SuggestMappingsRequest struct {
	CarrierID string
	Filename  string
	Content   []byte
}

type Service interface {
	Create(ctx context.Context, req CreateCarrierRequest) (Carrier, error)
	Get(ctx context.Context, id string) (Carrier, error)
	List(ctx context.Context, req ListCarrierRequest) (ListCarrierResponse, error)
	Update(ctx context.Context, id string, req UpdateCarrierRequest) (Carrier, error)
	UpdateFieldMappings(ctx context.Context, id string, req UpdateFieldMappingsRequest) (Carrier, error)
	Delete(ctx context.Context, id string) error
	SuggestMappings(ctx context.Context, req SuggestMappingsRequest) (llm.Suggestion, error)
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidCode        = errors.New("invalid_code")
	ErrInvalidFileType    = errors.New("invalid_file_type")
	ErrInvalidRowIndex    = errors.New("invalid_row_index")
	ErrInvalidMapping     = errors.New("invalid_field_mapping")
	ErrCodeExists         = errors.New("carrier_code_exists")
	ErrNotFound           = errors.New("carrier_not_found")
	ErrSuggestionDisabled = errors.New("mapping_suggestion_not_configured")
	ErrSampleNotTabular   = errors.New("sample_not_tabular")
)
