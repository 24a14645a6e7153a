package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smallbiznis/revbox/internal/extraction"
	"github.com/smallbiznis/revbox/internal/mapping"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// carrierFile is the on-disk form of a carrier's parsing configuration.
type carrierFile struct {
	Name             string            `yaml:"name"`
	FieldMappings    map[string]string `yaml:"field_mappings"`
	PrimaryKeyFields []string          `yaml:"primary_key_fields"`
	HeaderRow        *int              `yaml:"header_row"`
	DataStartRow     *int              `yaml:"data_start_row"`
}

type dryRunRow struct {
	Row          int            `json:"row"`
	Mapped       map[string]any `json:"mapped"`
	MissingKeys  []string       `json:"missing_primary_keys,omitempty"`
	UnmappedKeys []string       `json:"unmapped_source_fields,omitempty"`
}

func dryRunCmd() *cobra.Command {
	var carrierPath string
	cmd := &cobra.Command{
		Use:   "dry-run <file>",
		Short: "Extract and map a statement without touching the database",
		Long: `Dry-run extracts rows from a spreadsheet or CSV statement, applies the
field mappings from a carrier YAML file and prints the mapped rows as JSON.

Example carrier file:

  name: Acme Life
  field_mappings:
    Policy Number: policy_number
    Premium: amount
  primary_key_fields: [policy_number]
  header_row: 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer func() { _ = log.Sync() }()
			return runDryRun(cmd.Context(), cmd.OutOrStdout(), args[0], carrierPath, log)
		},
	}
	cmd.Flags().StringVarP(&carrierPath, "carrier", "c", "", "carrier mapping file (YAML)")
	_ = cmd.MarkFlagRequired("carrier")
	return cmd
}

func loadCarrierFile(path string) (carrierFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return carrierFile{}, err
	}
	var cf carrierFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return carrierFile{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(cf.FieldMappings) == 0 {
		return carrierFile{}, errors.New("carrier file has no field_mappings")
	}
	return cf, nil
}

func runDryRun(ctx context.Context, w io.Writer, path, carrierPath string, log *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cf, err := loadCarrierFile(carrierPath)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// No document extractor: pdf statements report ErrExtractorNotConfigured.
	extractor := extraction.NewExtractor(extraction.Disabled{}, time.Minute, log)
	rows, _, err := extractor.Extract(ctx, extraction.Source{
		Filename: filepath.Base(path),
		Content:  content,
		Options:  extraction.Options{HeaderRow: cf.HeaderRow, DataStartRow: cf.DataStartRow},
		Mappings: cf.FieldMappings,
	})
	if err != nil {
		return err
	}

	out := make([]dryRunRow, 0, len(rows))
	for i, raw := range rows {
		mapped := mapping.Apply(raw, cf.FieldMappings)
		row := dryRunRow{Row: i + 1, Mapped: mapped}
		for _, pk := range cf.PrimaryKeyFields {
			if v, ok := mapped[pk]; !ok || v == nil {
				row.MissingKeys = append(row.MissingKeys, pk)
			}
		}
		row.UnmappedKeys = unmapped(raw, cf.FieldMappings)
		out = append(out, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// unmapped lists source fields that no mapping claims, exact or case-insensitive.
func unmapped(raw map[string]any, mappings map[string]string) []string {
	var out []string
	for _, field := range mapping.Fields(raw) {
		if _, ok := mappings[field]; ok {
			continue
		}
		claimed := false
		for source := range mappings {
			if strings.EqualFold(source, field) {
				claimed = true
				break
			}
		}
		if !claimed {
			out = append(out, field)
		}
	}
	return out
}
