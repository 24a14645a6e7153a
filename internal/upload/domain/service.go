package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/internal/extraction"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
)

type IngestRequest struct {
	CarrierID string
	Filename  string
	Content   []byte
	// UserID defaults to the caller in ctx.
	UserID string
}

type ListUploadRequest struct {
	PageToken string
	PageSize  int
	Status    string
	CarrierID string
}

type ListUploadFilter struct {
	Status    Status
	CarrierID *snowflake.ID
}

type ListUploadResponse struct {
	pagination.PageInfo
	Uploads []Upload `json:"uploads"`
}

type DeleteUploadResponse struct {
	DeletedRecords   int64 `json:"deleted_records"`
	DeletedConflicts int64 `json:"deleted_conflicts"`
}

type Service interface {
	// Ingest stores the file, extracts and reconciles every row. Configuration
	// errors are returned before anything is persisted; extraction and
	// persistence errors are recorded on the returned Upload instead.
	Ingest(ctx context.Context, req IngestRequest) (Upload, error)
	Get(ctx context.Context, id string) (Upload, error)
	List(ctx context.Context, req ListUploadRequest) (ListUploadResponse, error)
	Records(ctx context.Context, id string) ([]recorddomain.ExtractedRecord, error)
	Delete(ctx context.Context, id string) (DeleteUploadResponse, error)
	Preview(ctx context.Context, filename string, content []byte) (extraction.Preview, error)
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrEmptyFile          = errors.New("empty_file")
	ErrFileTypeMismatch   = errors.New("file_type_mismatch")
	ErrPreviewExcelOnly   = errors.New("preview_excel_only")
	ErrNotFound           = errors.New("upload_not_found")
	ErrCarrierNotFound    = errors.New("carrier_not_found")
	ErrIngestionAbandoned = errors.New("ingestion abandoned")
)
