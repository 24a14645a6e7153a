package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/revbox/internal/customfield/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, field *domain.CustomField) error {
	return db.WithContext(ctx).Create(field).Error
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.CustomField, error) {
	var field domain.CustomField
	err := db.WithContext(ctx).Where("field_name = ?", name).Take(&field).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.CustomField, error) {
	var fields []*domain.CustomField
	err := db.WithContext(ctx).Order("field_name asc").Find(&fields).Error
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *repo) DeleteByName(ctx context.Context, db *gorm.DB, name string) (bool, error) {
	res := db.WithContext(ctx).Where("field_name = ?", name).Delete(&domain.CustomField{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
