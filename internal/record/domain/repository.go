package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	// Insert stores the record and its field index rows.
	Insert(ctx context.Context, db *gorm.DB, record *ExtractedRecord) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ExtractedRecord, error)
	List(ctx context.Context, db *gorm.DB, filter ListRecordFilter, page pagination.Pagination) ([]*ExtractedRecord, error)
	// ListAll returns every record matching filter in creation order.
	ListAll(ctx context.Context, db *gorm.DB, filter ListRecordFilter) ([]*ExtractedRecord, error)
	// FindPrimaryKeyMatch returns the oldest record of the carrier in one of
	// statuses whose index matches ANY of keys, or nil.
	FindPrimaryKeyMatch(ctx context.Context, db *gorm.DB, carrierID, excludeID snowflake.ID, statuses []Status, keys []FieldValue) (*ExtractedRecord, error)
	SetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, now time.Time) (bool, error)
	// TransitionStatus moves a record from one status to another and reports
	// whether this caller performed the transition.
	TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, now time.Time) (bool, error)
	// ReplaceMappedData rewrites mapped_data and the field index of a record.
	ReplaceMappedData(ctx context.Context, db *gorm.DB, record *ExtractedRecord, now time.Time) error
	DeleteByUpload(ctx context.Context, db *gorm.DB, uploadID snowflake.ID) (int64, error)
	CountByStatus(ctx context.Context, db *gorm.DB, statuses ...Status) (int64, error)
}
