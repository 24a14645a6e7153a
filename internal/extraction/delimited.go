package extraction

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadDelimited parses a comma-separated file whose first line is the header.
// Every later line is one record: cells present in the line are strings
// (possibly empty), cells missing from a short line are nil, and cells past
// the header width are dropped. No population threshold is applied.
func ReadDelimited(name string, content []byte) ([]map[string]any, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return nil, fileFormatError(name, errors.New("content is not UTF-8 text"))
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []map[string]any{}, nil
	}
	if err != nil {
		return nil, fileFormatError(name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([]map[string]any, 0)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fileFormatError(name, err)
		}

		row := make(map[string]any, len(header))
		for i, field := range header {
			if i < len(record) {
				row[field] = record[i]
			} else {
				row[field] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
