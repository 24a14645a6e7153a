package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, agent *Agent) error
	Update(ctx context.Context, db *gorm.DB, agent *Agent) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Agent, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Agent, error)
	List(ctx context.Context, db *gorm.DB, filter ListAgentFilter, page pagination.Pagination) ([]*Agent, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	// IncrementTotalPayouts adds amount in a single UPDATE so concurrent
	// payout batches never lose an increment.
	IncrementTotalPayouts(ctx context.Context, db *gorm.DB, id snowflake.ID, amount decimal.Decimal) error
}
