// Package detector finds earlier records that share a primary key with a
// newly mapped row and reports how they differ.
package detector

import (
	"context"

	"github.com/bwmarrin/snowflake"
	conflictdomain "github.com/smallbiznis/revbox/internal/conflict/domain"
	"github.com/smallbiznis/revbox/internal/mapping"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	"gorm.io/gorm"
)

// Finding is one conflict the detector would raise. Field is empty for a duplicate.
type Finding struct {
	Type          conflictdomain.Type
	Field         string
	ExistingValue any
	NewValue      any
}

type Result struct {
	Existing *recorddomain.ExtractedRecord
	Findings []Finding
}

// Matched reports whether an earlier record shares a primary key.
func (r Result) Matched() bool {
	return r.Existing != nil
}

type Detector struct {
	records recorddomain.Repository
}

func New(records recorddomain.Repository) *Detector {
	return &Detector{records: records}
}

// Detect runs one detection pass for a row of carrierID. A candidate matches
// when ANY primary key present in mapped equals the candidate's value; among
// candidates in validated or pending status the oldest wins.
func (d *Detector) Detect(ctx context.Context, db *gorm.DB, carrierID, excludeID snowflake.ID, mapped map[string]any, primaryKeys []string) (Result, error) {
	keys := Keys(mapped, primaryKeys)
	if len(keys) == 0 {
		return Result{}, nil
	}

	existing, err := d.records.FindPrimaryKeyMatch(ctx, db, carrierID, excludeID, recorddomain.MatchableStatuses, keys)
	if err != nil {
		return Result{}, err
	}
	if existing == nil {
		return Result{}, nil
	}

	return Result{
		Existing: existing,
		Findings: Compare(existing.MappedData, mapped),
	}, nil
}

// Keys returns the lookup criteria for the primary keys present in mapped
// with a non-nil value.
func Keys(mapped map[string]any, primaryKeys []string) []recorddomain.FieldValue {
	keys := make([]recorddomain.FieldValue, 0, len(primaryKeys))
	seen := make(map[string]struct{}, len(primaryKeys))
	for _, field := range primaryKeys {
		if _, dup := seen[field]; dup || mapping.IsReserved(field) {
			continue
		}
		seen[field] = struct{}{}

		value, ok := mapped[field]
		if !ok || value == nil {
			continue
		}
		key := mapping.CanonicalKey(value)
		if len(key) > recorddomain.MaxIndexedValueLen {
			continue
		}
		keys = append(keys, recorddomain.FieldValue{Field: field, Value: key})
	}
	return keys
}

// Compare reports a mismatch for every non-reserved field that is non-nil on
// both sides with differing string forms, or one duplicate when none differ.
func Compare(existing, incoming map[string]any) []Finding {
	var findings []Finding
	for _, field := range mapping.Fields(incoming) {
		newValue := incoming[field]
		if newValue == nil {
			continue
		}
		oldValue, ok := existing[field]
		if !ok || oldValue == nil {
			continue
		}
		if mapping.Stringify(oldValue) != mapping.Stringify(newValue) {
			findings = append(findings, Finding{
				Type:          conflictdomain.TypeMismatch,
				Field:         field,
				ExistingValue: oldValue,
				NewValue:      newValue,
			})
		}
	}
	if len(findings) == 0 {
		findings = append(findings, Finding{Type: conflictdomain.TypeDuplicate})
	}
	return findings
}
