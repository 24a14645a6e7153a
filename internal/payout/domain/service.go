package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
)

type GenerateRequest struct {
	RecordIDs []string `json:"record_ids"`
}

type GenerateResponse struct {
	Created []Payout `json:"created"`
	// Skipped lists ids that were malformed, unknown or not validated.
	Skipped []string `json:"skipped"`
}

type ListPayoutRequest struct {
	PageToken string
	PageSize  int
	Status    string
	AgentID   string
}

type ListPayoutFilter struct {
	Status  Status
	AgentID *snowflake.ID
}

type ListPayoutResponse struct {
	pagination.PageInfo
	Payouts []Payout `json:"payouts"`
}

type Service interface {
	// Generate creates one payout per validated record and moves the record
	// to processed. Records in any other status are skipped.
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Get(ctx context.Context, id string) (Payout, error)
	List(ctx context.Context, req ListPayoutRequest) (ListPayoutResponse, error)
	Complete(ctx context.Context, id string) (Payout, error)
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrEmptyRequest  = errors.New("record_ids_required")
	ErrNotFound      = errors.New("payout_not_found")
)
