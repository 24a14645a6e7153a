package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrExtractorNotConfigured = errors.New("extractor_not_configured")

// Document is an unstructured source file handed to an external extraction service.
type Document struct {
	Name     string
	Content  []byte
	MimeType string
}

// DocumentExtractor turns an unstructured document into raw rows. hints is
// the carrier's source->canonical mapping; its values name the fields to look for.
// A malformed service response yields an empty slice, not an error.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc Document, hints map[string]string) ([]map[string]any, error)
}

// Disabled is the DocumentExtractor used when no extraction service is configured.
type Disabled struct{}

func (Disabled) Extract(context.Context, Document, map[string]string) ([]map[string]any, error) {
	return nil, ErrExtractorNotConfigured
}

// Prompt is the instruction pair sent to the extraction service.
type Prompt struct {
	System string
	User   string
}

// TargetFields returns the distinct canonical names of a mapping, sorted.
func TargetFields(hints map[string]string) []string {
	seen := make(map[string]struct{}, len(hints))
	fields := make([]string, 0, len(hints))
	for _, target := range hints {
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		fields = append(fields, target)
	}
	sort.Strings(fields)
	return fields
}

func BuildExtractionPrompt(hints map[string]string) Prompt {
	targets, _ := json.Marshal(TargetFields(hints))
	if hints == nil {
		hints = map[string]string{}
	}
	mappings, _ := json.Marshal(hints)

	var b strings.Builder
	b.WriteString("You are a data extraction specialist for insurance commission documents.\n")
	b.WriteString("Extract structured data from the document and return it as a JSON array.\n\n")
	fmt.Fprintf(&b, "The expected fields to extract are: %s\n\n", targets)
	fmt.Fprintf(&b, "Map the document fields to these standard fields:\n%s\n\n", mappings)
	b.WriteString("Return ONLY a valid JSON array of objects keyed by the standard field names.\n")
	b.WriteString("If a field is not found, use null.\n")
	b.WriteString("Extract ALL records/rows from the document.")

	return Prompt{
		System: b.String(),
		User:   "Extract all payout/commission records from this insurance document. Return as JSON array.",
	}
}

// ParseRows returns the first well-formed JSON array of objects embedded in
// text. ok is false when no candidate decodes.
func ParseRows(text string) (rows []map[string]any, ok bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var candidate []map[string]any
		if err := dec.Decode(&candidate); err != nil {
			continue
		}
		rows = make([]map[string]any, 0, len(candidate))
		for _, row := range candidate {
			if row != nil {
				rows = append(rows, row)
			}
		}
		return rows, true
	}
	return []map[string]any{}, false
}
