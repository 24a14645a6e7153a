package domain

import (
	"context"
	"errors"
	"strings"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatZoho Format = "zoho"
	FormatCSV  Format = "csv"
)

// ParseFormat reads a requested format. Empty selects csv.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FormatCSV, nil
	case FormatJSON, FormatZoho, FormatCSV:
		return f, nil
	default:
		return "", ErrInvalidFormat
	}
}

// RecordIDColumn carries the source record id in json exports.
const RecordIDColumn = "_record_id"

type ExportRequest struct {
	Format    string
	CarrierID string
}

// Result is one export. Columns lists the row keys in output order; csv
// exports carry the rendered file in CSVContent instead of Data.
type Result struct {
	Format     Format           `json:"format"`
	Count      int              `json:"count"`
	Columns    []string         `json:"columns"`
	Data       []map[string]any `json:"data,omitempty"`
	CSVContent string           `json:"csv_content,omitempty"`
}

type Service interface {
	// Export renders every validated record, optionally for one carrier.
	Export(ctx context.Context, req ExportRequest) (Result, error)
}

var (
	ErrInvalidFormat  = errors.New("invalid_export_format")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNoApprovedData = errors.New("no_approved_data")
)
