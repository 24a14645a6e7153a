package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/internal/mapping"
	"github.com/smallbiznis/revbox/internal/record/domain"
	"github.com/smallbiznis/revbox/pkg/db/option"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// IndexFields builds the field index rows for a record: one per non-reserved
// mapped field with a non-nil value short enough to index.
func IndexFields(record *domain.ExtractedRecord) []domain.RecordField {
	fields := make([]domain.RecordField, 0, len(record.MappedData))
	for _, field := range mapping.Fields(record.MappedData) {
		value := record.MappedData[field]
		if value == nil {
			continue
		}
		key := mapping.CanonicalKey(value)
		if len(key) > domain.MaxIndexedValueLen || len(field) > 191 {
			continue
		}
		fields = append(fields, domain.RecordField{
			RecordID:  record.ID,
			Field:     field,
			CarrierID: record.CarrierID,
			Value:     key,
		})
	}
	return fields
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.ExtractedRecord) error {
	db = db.WithContext(ctx)
	if err := db.Create(record).Error; err != nil {
		return err
	}
	if fields := IndexFields(record); len(fields) > 0 {
		return db.Create(&fields).Error
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ExtractedRecord, error) {
	var record domain.ExtractedRecord
	err := db.WithContext(ctx).Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func applyFilter(stmt *gorm.DB, filter domain.ListRecordFilter) *gorm.DB {
	stmt = option.WithEquals("status", string(filter.Status)).Apply(stmt)
	if filter.CarrierID != nil {
		stmt = stmt.Where("carrier_id = ?", *filter.CarrierID)
	}
	if filter.UploadID != nil {
		stmt = stmt.Where("upload_id = ?", *filter.UploadID)
	}
	return stmt
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRecordFilter, page pagination.Pagination) ([]*domain.ExtractedRecord, error) {
	var records []*domain.ExtractedRecord
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.ExtractedRecord{}), filter)
	stmt = option.ApplyPagination(page).Apply(stmt)
	if err := stmt.Order("created_at desc, id desc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB, filter domain.ListRecordFilter) ([]*domain.ExtractedRecord, error) {
	var records []*domain.ExtractedRecord
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.ExtractedRecord{}), filter)
	if err := stmt.Order("created_at asc, id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) FindPrimaryKeyMatch(ctx context.Context, db *gorm.DB, carrierID, excludeID snowflake.ID, statuses []domain.Status, keys []domain.FieldValue) (*domain.ExtractedRecord, error) {
	if len(keys) == 0 || len(statuses) == 0 {
		return nil, nil
	}

	db = db.WithContext(ctx)
	criteria := db.Where("f.field = ? AND f.value = ?", keys[0].Field, keys[0].Value)
	for _, key := range keys[1:] {
		criteria = criteria.Or("f.field = ? AND f.value = ?", key.Field, key.Value)
	}
	matches := db.Table("record_fields AS f").
		Select("1").
		Where("f.record_id = extracted_records.id").
		Where("f.carrier_id = ?", carrierID).
		Where(criteria)

	var record domain.ExtractedRecord
	err := db.Model(&domain.ExtractedRecord{}).
		Where("carrier_id = ?", carrierID).
		Where("id <> ?", excludeID).
		Where("status IN ?", statuses).
		Where("EXISTS (?)", matches).
		Order("created_at asc, id asc").
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repo) SetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.ExtractedRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.ExtractedRecord{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ReplaceMappedData(ctx context.Context, db *gorm.DB, record *domain.ExtractedRecord, now time.Time) error {
	db = db.WithContext(ctx)
	err := db.Model(&domain.ExtractedRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{"mapped_data": record.MappedData, "updated_at": now}).Error
	if err != nil {
		return err
	}
	if err := db.Where("record_id = ?", record.ID).Delete(&domain.RecordField{}).Error; err != nil {
		return err
	}
	if fields := IndexFields(record); len(fields) > 0 {
		return db.Create(&fields).Error
	}
	return nil
}

func (r *repo) DeleteByUpload(ctx context.Context, db *gorm.DB, uploadID snowflake.ID) (int64, error) {
	db = db.WithContext(ctx)
	ids := db.Model(&domain.ExtractedRecord{}).Select("id").Where("upload_id = ?", uploadID)
	if err := db.Where("record_id IN (?)", ids).Delete(&domain.RecordField{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("upload_id = ?", uploadID).Delete(&domain.ExtractedRecord{})
	return res.RowsAffected, res.Error
}

func (r *repo) CountByStatus(ctx context.Context, db *gorm.DB, statuses ...domain.Status) (int64, error) {
	var n int64
	stmt := db.WithContext(ctx).Model(&domain.ExtractedRecord{})
	if len(statuses) > 0 {
		stmt = stmt.Where("status IN ?", statuses)
	}
	err := stmt.Count(&n).Error
	return n, err
}
