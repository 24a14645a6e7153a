package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, conflicts []*Conflict) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Conflict, error)
	List(ctx context.Context, db *gorm.DB, filter ListConflictFilter, page pagination.Pagination) ([]*Conflict, error)
	MarkResolved(ctx context.Context, db *gorm.DB, id snowflake.ID, resolution Resolution, value datatypes.JSON, now time.Time) error
	// SetStatusByRecord moves every conflict of a record to status.
	SetStatusByRecord(ctx context.Context, db *gorm.DB, recordID snowflake.ID, status Status, now time.Time) (int64, error)
	CountPendingByRecord(ctx context.Context, db *gorm.DB, recordID snowflake.ID) (int64, error)
	CountByStatus(ctx context.Context, db *gorm.DB, status Status) (int64, error)
	DeleteByUpload(ctx context.Context, db *gorm.DB, uploadID snowflake.ID) (int64, error)
}
