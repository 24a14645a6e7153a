package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/internal/conflict/domain"
	"github.com/smallbiznis/revbox/pkg/db/option"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, conflicts []*domain.Conflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&conflicts).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Conflict, error) {
	var conflict domain.Conflict
	err := db.WithContext(ctx).Where("id = ?", id).Take(&conflict).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conflict, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListConflictFilter, page pagination.Pagination) ([]*domain.Conflict, error) {
	var conflicts []*domain.Conflict
	stmt := db.WithContext(ctx).Model(&domain.Conflict{})
	stmt = option.WithEquals("status", string(filter.Status)).Apply(stmt)
	if filter.RecordID != nil {
		stmt = stmt.Where("record_id = ?", *filter.RecordID)
	}
	if filter.UploadID != nil {
		stmt = stmt.Where("upload_id = ?", *filter.UploadID)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	if err := stmt.Order("created_at desc, id desc").Find(&conflicts).Error; err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (r *repo) MarkResolved(ctx context.Context, db *gorm.DB, id snowflake.ID, resolution domain.Resolution, value datatypes.JSON, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Conflict{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         domain.StatusResolved,
			"resolution":     resolution,
			"resolved_value": value,
			"resolved_at":    now,
		}).Error
}

func (r *repo) SetStatusByRecord(ctx context.Context, db *gorm.DB, recordID snowflake.ID, status domain.Status, now time.Time) (int64, error) {
	updates := map[string]any{"status": status}
	if status != domain.StatusPending {
		updates["resolved_at"] = now
	}
	res := db.WithContext(ctx).
		Model(&domain.Conflict{}).
		Where("record_id = ?", recordID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repo) CountPendingByRecord(ctx context.Context, db *gorm.DB, recordID snowflake.ID) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Conflict{}).
		Where("record_id = ? AND status = ?", recordID, domain.StatusPending).
		Count(&n).Error
	return n, err
}

func (r *repo) CountByStatus(ctx context.Context, db *gorm.DB, status domain.Status) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Conflict{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *repo) DeleteByUpload(ctx context.Context, db *gorm.DB, uploadID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Where("upload_id = ?", uploadID).Delete(&domain.Conflict{})
	return res.RowsAffected, res.Error
}
