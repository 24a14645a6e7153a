package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/internal/carrier/domain"
	"github.com/smallbiznis/revbox/internal/clock"
	"github.com/smallbiznis/revbox/internal/extraction"
	"github.com/smallbiznis/revbox/internal/mapping"
	"github.com/smallbiznis/revbox/internal/providers/llm"
	"github.com/smallbiznis/revbox/pkg/db"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Suggester llm.MappingSuggester `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	suggester llm.MappingSuggester
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("carrier.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		suggester: p.Suggester,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCarrierRequest) (domain.Carrier, error) {
	carrier, err := s.build(req)
	if err != nil {
		return domain.Carrier{}, err
	}

	existing, err := s.repo.FindByCode(ctx, s.db, carrier.Code)
	if err != nil {
		return domain.Carrier{}, err
	}
	if existing != nil {
		return domain.Carrier{}, domain.ErrCodeExists
	}

	now := s.clock.Now()
	carrier.ID = s.genID.Generate()
	carrier.CreatedAt = now
	carrier.UpdatedAt = now

	if err := s.repo.Insert(ctx, s.db, &carrier); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Carrier{}, domain.ErrCodeExists
		}
		return domain.Carrier{}, err
	}

	s.log.Info("carrier created",
		zap.String("carrier_id", carrier.ID.String()),
		zap.String("code", carrier.Code),
		zap.Int("mappings", len(req.FieldMappings)),
	)
	return carrier, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Carrier, error) {
	carrierID, err := s.parseID(id)
	if err != nil {
		return domain.Carrier{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, carrierID)
	if err != nil {
		return domain.Carrier{}, err
	}
	if item == nil {
		return domain.Carrier{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCarrierRequest) (domain.ListCarrierResponse, error) {
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	items, err := s.repo.List(ctx, s.db, domain.ListCarrierFilter{
		Code: strings.TrimSpace(req.Code),
	}, page)
	if err != nil {
		return domain.ListCarrierResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, req.PageSize, func(c *domain.Carrier) string {
		return pagination.CursorFor(c.ID.String(), c.CreatedAt)
	})

	carriers := make([]domain.Carrier, 0, len(items))
	for _, item := range items {
		carriers = append(carriers, *item)
	}
	return domain.ListCarrierResponse{PageInfo: pageInfo, Carriers: carriers}, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateCarrierRequest) (domain.Carrier, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Carrier{}, err
	}

	updated, err := s.build(req)
	if err != nil {
		return domain.Carrier{}, err
	}
	if updated.Code != current.Code {
		other, err := s.repo.FindByCode(ctx, s.db, updated.Code)
		if err != nil {
			return domain.Carrier{}, err
		}
		if other != nil && other.ID != current.ID {
			return domain.Carrier{}, domain.ErrCodeExists
		}
	}

	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, &updated); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Carrier{}, domain.ErrCodeExists
		}
		return domain.Carrier{}, err
	}
	return updated, nil
}

func (s *Service) UpdateFieldMappings(ctx context.Context, id string, req domain.UpdateFieldMappingsRequest) (domain.Carrier, error) {
	carrier, err := s.Get(ctx, id)
	if err != nil {
		return domain.Carrier{}, err
	}

	mappings, err := s.normalizeMappings(req.FieldMappings)
	if err != nil {
		return domain.Carrier{}, err
	}
	carrier.FieldMappings = datatypes.NewJSONType(mappings)
	carrier.PrimaryKeyFields = datatypes.JSONSlice[string](normalizeNames(req.PrimaryKeyFields))
	carrier.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, &carrier); err != nil {
		return domain.Carrier{}, err
	}
	s.log.Info("carrier field mappings updated",
		zap.String("carrier_id", carrier.ID.String()),
		zap.Int("mappings", len(mappings)),
		zap.Strings("primary_keys", carrier.PrimaryKeys()),
	)
	return carrier, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	carrierID, err := s.parseID(id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, s.db, carrierID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

// SuggestMappings reads the header fields of a tabular sample and asks the
// configured model for a mapping onto the standard fields.
func (s *Service) SuggestMappings(ctx context.Context, req domain.SuggestMappingsRequest) (llm.Suggestion, error) {
	carrier, err := s.Get(ctx, req.CarrierID)
	if err != nil {
		return llm.Suggestion{}, err
	}
	if s.suggester == nil || !s.suggester.Enabled() {
		return llm.Suggestion{}, domain.ErrSuggestionDisabled
	}

	fields, err := sampleFields(carrier, req.Filename, req.Content)
	if err != nil {
		return llm.Suggestion{}, err
	}

	suggestion, err := s.suggester.SuggestMappings(ctx, carrier.Name, fields)
	if err != nil {
		return llm.Suggestion{}, err
	}
	if suggestion.RawResponse != "" {
		s.log.Warn("mapping suggestion was not parseable",
			zap.String("carrier_id", carrier.ID.String()),
		)
	}
	return suggestion, nil
}

func sampleFields(carrier domain.Carrier, filename string, content []byte) ([]string, error) {
	kind, err := extraction.KindFromFilename(filename)
	if err != nil {
		return nil, err
	}

	switch kind {
	case extraction.KindExcel:
		sheet, err := extraction.LoadSpreadsheet(filename, content)
		if err != nil {
			return nil, err
		}
		_, layout := extraction.ExtractRows(sheet, extraction.Options{
			HeaderRow:    carrier.HeaderRow,
			DataStartRow: carrier.DataStartRow,
		})
		return normalizeNames(layout.Headers), nil
	case extraction.KindCSV:
		rows, err := extraction.ReadDelimited(filename, content)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return []string{}, nil
		}
		fields := make([]string, 0, len(rows[0]))
		for field := range rows[0] {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		return fields, nil
	default:
		return nil, domain.ErrSampleNotTabular
	}
}

func (s *Service) build(req domain.CreateCarrierRequest) (domain.Carrier, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Carrier{}, domain.ErrInvalidName
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return domain.Carrier{}, domain.ErrInvalidCode
	}

	fileType := domain.FileType(strings.ToLower(strings.TrimSpace(req.FileType)))
	if fileType == "" {
		fileType = domain.FileTypeAuto
	}
	if !fileType.Valid() {
		return domain.Carrier{}, domain.ErrInvalidFileType
	}
	if !validRow(req.HeaderRow) || !validRow(req.DataStartRow) {
		return domain.Carrier{}, domain.ErrInvalidRowIndex
	}

	mappings, err := s.normalizeMappings(req.FieldMappings)
	if err != nil {
		return domain.Carrier{}, err
	}

	return domain.Carrier{
		Name:             name,
		Code:             code,
		Description:      strings.TrimSpace(req.Description),
		FieldMappings:    datatypes.NewJSONType(mappings),
		PrimaryKeyFields: datatypes.JSONSlice[string](normalizeNames(req.PrimaryKeyFields)),
		CustomFields:     datatypes.JSONSlice[string](normalizeNames(req.CustomFields)),
		HeaderRow:        req.HeaderRow,
		DataStartRow:     req.DataStartRow,
		FileType:         fileType,
	}, nil
}

// normalizeMappings keeps source names verbatim and trims targets. A target
// equal to the reserved raw key is accepted but logged: the mapper overwrites it.
func (s *Service) normalizeMappings(in map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for source, target := range in {
		target = strings.TrimSpace(target)
		if strings.TrimSpace(source) == "" || target == "" {
			return nil, domain.ErrInvalidMapping
		}
		if target == mapping.ReservedRawKey {
			s.log.Warn("field mapping targets the reserved raw key and will be overwritten",
				zap.String("source", source),
			)
		}
		out[source] = target
	}
	return out, nil
}

func normalizeNames(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, name := range in {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func validRow(row *int) bool {
	return row == nil || *row >= 1
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
