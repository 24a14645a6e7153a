package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payout *Payout) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payout, error)
	List(ctx context.Context, db *gorm.DB, filter ListPayoutFilter, page pagination.Pagination) ([]*Payout, error)
	// Complete moves a pending payout to completed and reports whether it did.
	Complete(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	SumAmount(ctx context.Context, db *gorm.DB) (decimal.Decimal, error)
}
