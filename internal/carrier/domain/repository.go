package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, carrier *Carrier) error
	Update(ctx context.Context, db *gorm.DB, carrier *Carrier) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Carrier, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Carrier, error)
	List(ctx context.Context, db *gorm.DB, filter ListCarrierFilter, page pagination.Pagination) ([]*Carrier, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
}
