package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
)

type ResolveRequest struct {
	Resolution  string          `json:"resolution"`
	ManualValue json.RawMessage `json:"manual_value,omitempty"`
}

type ListConflictRequest struct {
	PageToken string
	PageSize  int
	Status    string
	RecordID  string
	UploadID  string
}

type ListConflictFilter struct {
	Status   Status
	RecordID *snowflake.ID
	UploadID *snowflake.ID
}

type ListConflictResponse struct {
	pagination.PageInfo
	Conflicts []Conflict `json:"conflicts"`
}

type UploadSummary struct {
	Filename    string    `json:"filename"`
	CarrierName string    `json:"carrier_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Details is a conflict with both sides of the dispute and where they came from.
type Details struct {
	Conflict       Conflict                      `json:"conflict"`
	NewRecord      *recorddomain.ExtractedRecord `json:"new_record"`
	NewUpload      *UploadSummary                `json:"new_upload"`
	ExistingRecord *recorddomain.ExtractedRecord `json:"existing_record"`
	ExistingUpload *UploadSummary                `json:"existing_upload"`
	Reason         string                        `json:"reason"`
}

type ResolveResponse struct {
	Conflict     Conflict            `json:"conflict"`
	RecordStatus recorddomain.Status `json:"record_status"`
	Remaining    int64               `json:"remaining_pending"`
}

type Service interface {
	// Resolve applies a human decision to a conflict. Resolving the same
	// conflict twice reapplies the same overwrite.
	Resolve(ctx context.Context, id string, req ResolveRequest) (ResolveResponse, error)
	Get(ctx context.Context, id string) (Conflict, error)
	List(ctx context.Context, req ListConflictRequest) (ListConflictResponse, error)
	Details(ctx context.Context, id string) (Details, error)
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidResolution  = errors.New("invalid_resolution")
	ErrManualValueMissing = errors.New("manual_value_required")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrNotFound           = errors.New("conflict_not_found")
	ErrRecordNotFound     = errors.New("conflict_record_not_found")
)

// Reason explains a conflict in plain language.
func Reason(c Conflict) string {
	switch c.ConflictType {
	case TypeMismatch:
		return "The field '" + c.FieldName + "' has different values in the existing record vs the new upload. " +
			"This happens when the same record (matched by primary key) has conflicting data."
	case TypeDuplicate:
		return "A record with the same primary key values already exists. " +
			"This could be a true duplicate or an update to existing data."
	default:
		return "Data conflict detected between existing and newly uploaded records."
	}
}
