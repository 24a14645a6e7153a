package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
)

type ListRecordRequest struct {
	PageToken string
	PageSize  int
	Status    string
	CarrierID string
	UploadID  string
}

type ListRecordFilter struct {
	Status    Status
	CarrierID *snowflake.ID
	UploadID  *snowflake.ID
}

type ListRecordResponse struct {
	pagination.PageInfo
	Records []ExtractedRecord `json:"records"`
}

type Service interface {
	Get(ctx context.Context, id string) (ExtractedRecord, error)
	List(ctx context.Context, req ListRecordRequest) (ListRecordResponse, error)
	// Validate moves the record to validated from any status and resolves
	// every conflict that references it.
	Validate(ctx context.Context, id string) (ExtractedRecord, error)
	// Reject moves the record to rejected from any status and rejects
	// every conflict that references it.
	Reject(ctx context.Context, id string) (ExtractedRecord, error)
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrNotFound      = errors.New("record_not_found")
)
