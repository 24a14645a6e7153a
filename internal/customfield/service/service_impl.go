package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/revbox/internal/clock"
	"github.com/smallbiznis/revbox/internal/customfield/domain"
	"github.com/smallbiznis/revbox/internal/mapping"
	"github.com/smallbiznis/revbox/internal/usercontext"
	"github.com/smallbiznis/revbox/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customfield.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// NormalizeName turns a label-like name into lower_snake form.
func NormalizeName(name string) string {
	return strings.ReplaceAll(slug.Make(strings.TrimSpace(name)), "-", "_")
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomFieldRequest) (domain.CustomField, error) {
	name := NormalizeName(req.FieldName)
	if name == "" || mapping.IsReserved(name) {
		return domain.CustomField{}, domain.ErrInvalidFieldName
	}
	label := strings.TrimSpace(req.FieldLabel)
	if label == "" {
		return domain.CustomField{}, domain.ErrInvalidFieldLabel
	}
	fieldType := domain.FieldType(strings.ToLower(strings.TrimSpace(req.FieldType)))
	switch fieldType {
	case "":
		fieldType = domain.FieldTypeText
	case domain.FieldTypeText, domain.FieldTypeNumber, domain.FieldTypeCurrency, domain.FieldTypeDate, domain.FieldTypeBoolean:
	default:
		return domain.CustomField{}, domain.ErrInvalidFieldType
	}

	existing, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return domain.CustomField{}, err
	}
	if existing != nil {
		return domain.CustomField{}, domain.ErrFieldExists
	}

	createdBy, _ := usercontext.UserIDFromContext(ctx)
	field := domain.CustomField{
		ID:         s.genID.Generate(),
		FieldName:  name,
		FieldLabel: label,
		FieldType:  fieldType,
		CreatedBy:  createdBy,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, &field); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.CustomField{}, domain.ErrFieldExists
		}
		return domain.CustomField{}, err
	}
	s.log.Info("custom field created", zap.String("field_name", name))
	return field, nil
}

func (s *Service) List(ctx context.Context) ([]domain.CustomField, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	fields := make([]domain.CustomField, 0, len(items))
	for _, item := range items {
		fields = append(fields, *item)
	}
	return fields, nil
}

func (s *Service) Delete(ctx context.Context, name string) error {
	deleted, err := s.repo.DeleteByName(ctx, s.db, strings.TrimSpace(name))
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}
