package extraction

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Source is one uploaded file plus the carrier's parsing configuration.
type Source struct {
	Filename string
	Content  []byte
	Options  Options
	Mappings map[string]string
}

// Extractor dispatches a file to the tabular, delimited or document path.
type Extractor struct {
	docs    DocumentExtractor
	timeout time.Duration
	log     *zap.Logger
}

func NewExtractor(docs DocumentExtractor, timeout time.Duration, log *zap.Logger) *Extractor {
	if docs == nil {
		docs = Disabled{}
	}
	return &Extractor{docs: docs, timeout: timeout, log: log.Named("extraction")}
}

// Extract returns raw rows in source order. Errors are extraction errors:
// the caller records them on the upload instead of returning them to the user.
func (e *Extractor) Extract(ctx context.Context, src Source) ([]map[string]any, FileKind, error) {
	kind, err := KindFromFilename(src.Filename)
	if err != nil {
		return nil, "", err
	}

	switch kind {
	case KindExcel:
		sheet, err := LoadSpreadsheet(src.Filename, src.Content)
		if err != nil {
			return nil, kind, err
		}
		rows, layout := ExtractRows(sheet, src.Options)
		e.log.Debug("spreadsheet extracted",
			zap.Int("header_row", layout.HeaderRow),
			zap.Int("data_start_row", layout.DataStartRow),
			zap.Int("columns", len(layout.Headers)),
			zap.Int("rows", len(rows)),
		)
		return rows, kind, nil
	case KindCSV:
		rows, err := ReadDelimited(src.Filename, src.Content)
		return rows, kind, err
	default:
		rows, err := e.extractDocument(ctx, src)
		return rows, kind, err
	}
}

func (e *Extractor) extractDocument(ctx context.Context, src Source) ([]map[string]any, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	mimeType := mime.TypeByExtension(filepath.Ext(src.Filename))
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	rows, err := e.docs.Extract(ctx, Document{
		Name:     src.Filename,
		Content:  src.Content,
		MimeType: mimeType,
	}, src.Mappings)
	if err != nil {
		return nil, fmt.Errorf("document extraction: %w", err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}
