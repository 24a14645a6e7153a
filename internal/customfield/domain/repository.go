package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, field *CustomField) error
	FindByName(ctx context.Context, db *gorm.DB, name string) (*CustomField, error)
	List(ctx context.Context, db *gorm.DB) ([]*CustomField, error)
	DeleteByName(ctx context.Context, db *gorm.DB, name string) (bool, error)
}
