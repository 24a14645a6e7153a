package domain

import (
	"context"

	"github.com/shopspring/decimal"
	conflictdomain "github.com/smallbiznis/revbox/internal/conflict/domain"
	uploaddomain "github.com/smallbiznis/revbox/internal/upload/domain"
)

// RecentLimit bounds the recent uploads and conflicts lists.
const RecentLimit = 5

type Stats struct {
	TotalCarriers   int64                     `json:"total_carriers"`
	TotalAgents     int64                     `json:"total_agents"`
	TotalUploads    int64                     `json:"total_uploads"`
	PendingReviews  int64                     `json:"pending_reviews"`
	TotalConflicts  int64                     `json:"total_conflicts"`
	TotalPayouts    decimal.Decimal           `json:"total_payouts"`
	RecentUploads   []uploaddomain.Upload     `json:"recent_uploads"`
	RecentConflicts []conflictdomain.Conflict `json:"recent_conflicts"`
}

type Service interface {
	Stats(ctx context.Context) (Stats, error)
}
