package extraction

import "github.com/smallbiznis/revbox/internal/mapping"

const (
	previewRows      = 10
	previewCols      = 19
	previewCellWidth = 50
)

// PreviewRow is one sheet row as shown to an operator configuring a carrier.
type PreviewRow struct {
	RowNumber int       `json:"row_number"`
	Values    []*string `json:"values"`
}

type Preview struct {
	Filename              string       `json:"filename"`
	TotalRows             int          `json:"total_rows"`
	TotalColumns          int          `json:"total_columns"`
	Rows                  []PreviewRow `json:"preview_rows"`
	SuggestedHeaderRow    int          `json:"suggested_header_row"`
	SuggestedDataStartRow int          `json:"suggested_data_start_row"`
}

// BuildPreview renders the top-left corner of a sheet with a header suggestion.
func BuildPreview(filename string, g Grid) Preview {
	p := Preview{
		Filename:           filename,
		TotalRows:          g.Rows(),
		TotalColumns:       g.Cols(),
		Rows:               make([]PreviewRow, 0, previewRows),
		SuggestedHeaderRow: 1,
	}

	lastRow := min(previewRows, g.Rows())
	lastCol := min(previewCols, g.Cols())
	for row := 1; row <= lastRow; row++ {
		values := make([]*string, lastCol)
		for col := 1; col <= lastCol; col++ {
			value := g.Cell(row, col)
			if !mapping.Truthy(value) {
				continue
			}
			text := truncateRunes(mapping.Stringify(value), previewCellWidth)
			values[col-1] = &text
		}
		p.Rows = append(p.Rows, PreviewRow{RowNumber: row, Values: values})
	}

	for _, row := range p.Rows {
		count := 0
		for _, v := range row.Values {
			if v != nil {
				count++
			}
		}
		if count >= headerMinCells {
			p.SuggestedHeaderRow = row.RowNumber
			break
		}
	}
	p.SuggestedDataStartRow = p.SuggestedHeaderRow + 1
	return p
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
