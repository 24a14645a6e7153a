package extraction

import (
	"strconv"
	"strings"

	"github.com/smallbiznis/revbox/internal/mapping"
)

const (
	headerScanRows     = 20
	headerScanCols     = 50
	headerMinCells     = 5
	minPopulatedFields = 3
)

// Options carries a carrier's explicit parsing hints. Nil means detect.
type Options struct {
	HeaderRow    *int
	DataStartRow *int
}

// Layout reports the rows the extractor settled on.
type Layout struct {
	HeaderRow    int
	DataStartRow int
	Headers      []string
}

// DetectHeaderRow returns the first of the leading rows with at least five
// non-blank cells among the leading columns, or 1 when none qualifies.
func DetectHeaderRow(g Grid) int {
	lastRow := min(headerScanRows, g.Rows())
	lastCol := min(headerScanCols, g.Cols())
	for row := 1; row <= lastRow; row++ {
		count := 0
		for col := 1; col <= lastCol; col++ {
			if !isBlank(g.Cell(row, col)) {
				count++
			}
		}
		if count >= headerMinCells {
			return row
		}
	}
	return 1
}

// ExtractRows turns the grid into raw rows keyed by header name, in sheet order.
// Rows with fewer than three non-null values are dropped.
func ExtractRows(g Grid, opts Options) ([]map[string]any, Layout) {
	layout := Layout{}
	if opts.HeaderRow != nil && *opts.HeaderRow > 0 {
		layout.HeaderRow = *opts.HeaderRow
	} else {
		layout.HeaderRow = DetectHeaderRow(g)
	}
	if opts.DataStartRow != nil && *opts.DataStartRow > 0 {
		layout.DataStartRow = *opts.DataStartRow
	} else {
		layout.DataStartRow = layout.HeaderRow + 1
	}

	cols := g.Cols()
	layout.Headers = make([]string, cols)
	for col := 1; col <= cols; col++ {
		layout.Headers[col-1] = headerName(g.Cell(layout.HeaderRow, col), col)
	}

	rows := make([]map[string]any, 0)
	for r := layout.DataStartRow; r <= g.Rows(); r++ {
		values := make([]any, cols)
		empty := true
		for col := 1; col <= cols; col++ {
			values[col-1] = g.Cell(r, col)
			if values[col-1] != nil {
				empty = false
			}
		}
		if empty {
			continue
		}

		row := make(map[string]any, cols)
		for i, value := range values {
			row[layout.Headers[i]] = value
		}
		if countNonNull(row) >= minPopulatedFields {
			rows = append(rows, row)
		}
	}
	return rows, layout
}

func headerName(value any, col int) string {
	if mapping.Truthy(value) {
		if name := strings.TrimSpace(mapping.Stringify(value)); name != "" {
			return name
		}
	}
	return "column_" + strconv.Itoa(col)
}

func isBlank(value any) bool {
	return value == nil || strings.TrimSpace(mapping.Stringify(value)) == ""
}

func countNonNull(row map[string]any) int {
	n := 0
	for _, v := range row {
		if v != nil {
			n++
		}
	}
	return n
}
