package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/internal/clock"
	"github.com/smallbiznis/revbox/internal/config"
	"github.com/smallbiznis/revbox/internal/export/domain"
	"github.com/smallbiznis/revbox/internal/mapping"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Schema     *config.ExportConfigHolder
	RecordRepo recorddomain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	schema  *config.ExportConfigHolder
	records recorddomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("export.service"),
		clock:   p.Clock,
		schema:  p.Schema,
		records: p.RecordRepo,
	}
}

func (s *Service) Export(ctx context.Context, req domain.ExportRequest) (domain.Result, error) {
	format, err := domain.ParseFormat(req.Format)
	if err != nil {
		return domain.Result{}, err
	}

	filter := recorddomain.ListRecordFilter{Status: recorddomain.StatusValidated}
	if strings.TrimSpace(req.CarrierID) != "" {
		carrierID, err := snowflake.ParseString(strings.TrimSpace(req.CarrierID))
		if err != nil || carrierID == 0 {
			return domain.Result{}, domain.ErrInvalidID
		}
		filter.CarrierID = &carrierID
	}

	records, err := s.records.ListAll(ctx, s.db, filter)
	if err != nil {
		return domain.Result{}, err
	}
	if len(records) == 0 {
		return domain.Result{}, domain.ErrNoApprovedData
	}

	var out domain.Result
	switch format {
	case domain.FormatJSON:
		out = renderJSON(records)
	case domain.FormatZoho:
		out = renderZoho(records, s.schema.Get(), s.clock.Now().UTC().Format("2006-01-02"))
	default:
		out, err = renderCSV(records)
		if err != nil {
			return domain.Result{}, err
		}
	}

	s.log.Info("approved data exported",
		zap.String("format", string(format)),
		zap.String("carrier_id", strings.TrimSpace(req.CarrierID)),
		zap.Int("count", out.Count),
	)
	return out, nil
}

// observedFields is the sorted union of non-reserved mapped fields.
func observedFields(records []*recorddomain.ExtractedRecord) []string {
	union := make(map[string]any)
	for _, r := range records {
		for field := range r.MappedData {
			union[field] = nil
		}
	}
	return mapping.Fields(union)
}

func renderJSON(records []*recorddomain.ExtractedRecord) domain.Result {
	fields := observedFields(records)
	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		row := make(map[string]any, len(fields)+1)
		row[domain.RecordIDColumn] = r.ID.String()
		for _, field := range fields {
			row[field] = r.MappedData[field]
		}
		rows = append(rows, row)
	}
	return domain.Result{
		Format:  domain.FormatJSON,
		Count:   len(rows),
		Columns: append([]string{domain.RecordIDColumn}, fields...),
		Data:    rows,
	}
}

func renderZoho(records []*recorddomain.ExtractedRecord, schema config.ExportConfig, importDate string) domain.Result {
	columns := make([]string, 0, len(schema.CRMColumns))
	for _, col := range schema.CRMColumns {
		columns = append(columns, col.Name)
	}

	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		row := make(map[string]any, len(columns))
		for _, col := range schema.CRMColumns {
			row[col.Name] = crmValue(r.MappedData, col, importDate)
		}
		rows = append(rows, row)
	}
	return domain.Result{
		Format:  domain.FormatZoho,
		Count:   len(rows),
		Columns: columns,
		Data:    rows,
	}
}

// crmValue takes the first truthy source, falling back to the column default.
func crmValue(mapped map[string]any, col config.ExportColumn, importDate string) any {
	for _, source := range col.Sources {
		if source == config.ImportDateSource {
			return importDate
		}
		if value, ok := mapped[source]; ok && mapping.Truthy(value) {
			return value
		}
	}
	return col.Default
}

func renderCSV(records []*recorddomain.ExtractedRecord) (domain.Result, error) {
	fields := observedFields(records)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return domain.Result{}, err
	}
	line := make([]string, len(fields))
	for _, r := range records {
		for i, field := range fields {
			line[i] = mapping.Stringify(r.MappedData[field])
		}
		if err := w.Write(line); err != nil {
			return domain.Result{}, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return domain.Result{}, err
	}

	return domain.Result{
		Format:     domain.FormatCSV,
		Count:      len(records),
		Columns:    fields,
		CSVContent: buf.String(),
	}, nil
}
