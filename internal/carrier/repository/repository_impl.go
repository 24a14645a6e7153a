package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/internal/carrier/domain"
	"github.com/smallbiznis/revbox/pkg/db/option"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, carrier *domain.Carrier) error {
	return db.WithContext(ctx).Create(carrier).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, carrier *domain.Carrier) error {
	return db.WithContext(ctx).
		Model(&domain.Carrier{}).
		Where("id = ?", carrier.ID).
		Updates(map[string]any{
			"name":               carrier.Name,
			"code":               carrier.Code,
			"description":        carrier.Description,
			"field_mappings":     carrier.FieldMappings,
			"primary_key_fields": carrier.PrimaryKeyFields,
			"custom_fields":      carrier.CustomFields,
			"header_row":         carrier.HeaderRow,
			"data_start_row":     carrier.DataStartRow,
			"file_type":          carrier.FileType,
			"updated_at":         carrier.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Carrier{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Carrier, error) {
	return r.first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Carrier, error) {
	return r.first(db.WithContext(ctx).Where("code = ?", code))
}

func (r *repo) first(stmt *gorm.DB) (*domain.Carrier, error) {
	var carrier domain.Carrier
	err := stmt.Take(&carrier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &carrier, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCarrierFilter, page pagination.Pagination) ([]*domain.Carrier, error) {
	var carriers []*domain.Carrier
	stmt := db.WithContext(ctx).Model(&domain.Carrier{})
	stmt = option.WithEquals("code", filter.Code).Apply(stmt)
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&carriers).Error
	if err != nil {
		return nil, err
	}
	return carriers, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Carrier{}).Count(&n).Error
	return n, err
}
