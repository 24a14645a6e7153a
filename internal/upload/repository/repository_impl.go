package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/internal/upload/domain"
	"github.com/smallbiznis/revbox/pkg/db/option"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, upload *domain.Upload) error {
	return db.WithContext(ctx).Create(upload).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Upload, error) {
	var upload domain.Upload
	err := db.WithContext(ctx).Where("id = ?", id).Take(&upload).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListUploadFilter, page pagination.Pagination) ([]*domain.Upload, error) {
	var uploads []*domain.Upload
	stmt := db.WithContext(ctx).Model(&domain.Upload{})
	stmt = option.WithEquals("status", string(filter.Status)).Apply(stmt)
	if filter.CarrierID != nil {
		stmt = stmt.Where("carrier_id = ?", *filter.CarrierID)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	if err := stmt.Order("created_at desc, id desc").Find(&uploads).Error; err != nil {
		return nil, err
	}
	return uploads, nil
}

func (r *repo) UpdateProgress(ctx context.Context, db *gorm.DB, id snowflake.ID, progress domain.Progress, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Upload{}).
		Where("id = ? AND status = ?", id, domain.StatusProcessing).
		Updates(map[string]any{
			"total_records":     progress.TotalRecords,
			"processed_records": progress.ProcessedRecords,
			"conflict_count":    progress.ConflictCount,
			"updated_at":        now,
		}).Error
}

func (r *repo) Finish(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, progress domain.Progress, message string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Upload{}).
		Where("id = ? AND status = ?", id, domain.StatusProcessing).
		Updates(map[string]any{
			"status":            status,
			"total_records":     progress.TotalRecords,
			"processed_records": progress.ProcessedRecords,
			"conflict_count":    progress.ConflictCount,
			"error_message":     message,
			"updated_at":        now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Upload{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Upload{}).Count(&n).Error
	return n, err
}

func (r *repo) FailStale(ctx context.Context, db *gorm.DB, cutoff time.Time, message string, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Upload{}).
		Where("status = ? AND updated_at < ?", domain.StatusProcessing, cutoff).
		Updates(map[string]any{
			"status":        domain.StatusError,
			"error_message": message,
			"updated_at":    now,
		})
	return res.RowsAffected, res.Error
}
