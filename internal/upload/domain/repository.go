package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, upload *Upload) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Upload, error)
	List(ctx context.Context, db *gorm.DB, filter ListUploadFilter, page pagination.Pagination) ([]*Upload, error)
	UpdateProgress(ctx context.Context, db *gorm.DB, id snowflake.ID, progress Progress, now time.Time) error
	// Finish moves a processing upload to a terminal status. It reports false
	// when the upload was no longer processing.
	Finish(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, progress Progress, message string, now time.Time) (bool, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	// FailStale moves uploads still processing since before cutoff to error.
	FailStale(ctx context.Context, db *gorm.DB, cutoff time.Time, message string, now time.Time) (int64, error)
}
