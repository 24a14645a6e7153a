// Package mapping projects carrier rows onto the canonical record schema.
package mapping

import (
	"sort"
	"strings"
)

// ReservedRawKey holds the untouched source row inside every mapped record.
// A carrier mapping that targets this name is overwritten by the raw payload.
const ReservedRawKey = "_raw"

// IsReserved reports whether a mapped field is internal bookkeeping rather
// than carrier data. Reserved fields are skipped by comparison and export.
func IsReserved(field string) bool {
	return strings.HasPrefix(field, "_")
}

// Apply maps raw[source] to mapped[target] for every pair in mappings,
// matching the source name exactly first and case-insensitively second.
// Missing sources are skipped. The full raw row is attached under ReservedRawKey.
//
// Pairs are applied in ascending source order and case-insensitive lookups
// prefer the lowest raw key, so two sources sharing a target resolve the same
// way on every call.
func Apply(raw map[string]any, mappings map[string]string) map[string]any {
	mapped := make(map[string]any, len(mappings)+1)

	sources := make([]string, 0, len(mappings))
	for source := range mappings {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	var folded map[string]string
	for _, source := range sources {
		target := mappings[source]
		if value, ok := raw[source]; ok {
			mapped[target] = value
			continue
		}
		if folded == nil {
			folded = foldKeys(raw)
		}
		if key, ok := folded[strings.ToLower(source)]; ok {
			mapped[target] = raw[key]
		}
	}

	mapped[ReservedRawKey] = copyRow(raw)
	return mapped
}

// Fields returns the non-reserved field names of a mapped record, sorted.
func Fields(mapped map[string]any) []string {
	fields := make([]string, 0, len(mapped))
	for field := range mapped {
		if IsReserved(field) {
			continue
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func foldKeys(raw map[string]any) map[string]string {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	folded := make(map[string]string, len(keys))
	for _, key := range keys {
		lower := strings.ToLower(key)
		if _, exists := folded[lower]; !exists {
			folded[lower] = key
		}
	}
	return folded
}

func copyRow(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}
