package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func commissionSheet() *Sheet {
	return NewSheet([][]any{
		{"ACME Insurance Commission Statement"},
		{"Period: 2025-01", nil, nil},
		nil,
		{"Policy Number", "Insured", "Agent Code", "Premium", "Commission", nil},
		{"P1", "Jane Roe", "A-1", 100.0, 10.0},
		{"P2", "John Doe", nil, 200.0, nil},
		{"Subtotal", nil, nil, 300.0, nil},
		{nil, nil, nil, nil, nil},
		{"P3", "Ann Lee", "A-2", 50.0, 5.0, "extra"},
	})
}

func TestDetectHeaderRow(t *testing.T) {
	assert.Equal(t, 4, DetectHeaderRow(commissionSheet()))
	assert.Equal(t, 1, DetectHeaderRow(NewSheet([][]any{{"a", "b"}, {1.0, 2.0}})))
	assert.Equal(t, 1, DetectHeaderRow(NewSheet(nil)))
}

func TestDetectHeaderRowIgnoresWhitespaceCells(t *testing.T) {
	g := NewSheet([][]any{
		{" ", "  ", "x", "y", "z", ""},
		{"a", "b", "c", "d", "e"},
	})
	assert.Equal(t, 2, DetectHeaderRow(g))
}

func TestDetectHeaderRowScansOnlyTwentyRows(t *testing.T) {
	cells := make([][]any, 25)
	for i := range cells {
		cells[i] = []any{"only one"}
	}
	cells[21] = []any{"a", "b", "c", "d", "e"}
	assert.Equal(t, 1, DetectHeaderRow(NewSheet(cells)))
}

func TestExtractRows(t *testing.T) {
	rows, layout := ExtractRows(commissionSheet(), Options{})

	assert.Equal(t, 4, layout.HeaderRow)
	assert.Equal(t, 5, layout.DataStartRow)
	assert.Equal(t, []string{"Policy Number", "Insured", "Agent Code", "Premium", "Commission", "column_6"}, layout.Headers)

	require.Len(t, rows, 3)
	assert.Equal(t, "P1", rows[0]["Policy Number"])
	assert.Equal(t, 100.0, rows[0]["Premium"])
	assert.Nil(t, rows[0]["column_6"])
	assert.Equal(t, "P2", rows[1]["Policy Number"], "three populated cells are enough")
	assert.Equal(t, "extra", rows[2]["column_6"])
}

func TestExtractRowsCountMatchesQualifyingRows(t *testing.T) {
	g := NewSheet([][]any{
		{"a", "b", "c", "d", "e"},
		{1.0, 2.0, 3.0, nil, nil},
		{1.0, 2.0, nil, nil, nil},
		{"x", "y", "z", "w", nil},
		{nil, nil, nil, nil, "only"},
	})
	rows, _ := ExtractRows(g, Options{})
	assert.Len(t, rows, 2)
}

func TestExtractRowsExplicitHints(t *testing.T) {
	rows, layout := ExtractRows(commissionSheet(), Options{HeaderRow: intPtr(4), DataStartRow: intPtr(9)})
	assert.Equal(t, 9, layout.DataStartRow)
	require.Len(t, rows, 1)
	assert.Equal(t, "P3", rows[0]["Policy Number"])
}

func TestExtractRowsDuplicateHeadersCollapse(t *testing.T) {
	g := NewSheet([][]any{
		{"Amount", "Amount", "Policy", "Agent", "Carrier"},
		{1.0, 2.0, "P1", nil, nil},
		{1.0, 2.0, "P2", "A", nil},
	})
	rows, _ := ExtractRows(g, Options{})
	require.Len(t, rows, 1, "the collapsed first row keeps only two values")
	assert.Equal(t, 2.0, rows[0]["Amount"])
}

func TestHeaderNamePlaceholders(t *testing.T) {
	assert.Equal(t, "column_3", headerName(nil, 3))
	assert.Equal(t, "column_2", headerName("   ", 2))
	assert.Equal(t, "column_1", headerName(0.0, 1))
	assert.Equal(t, "2024", headerName(2024.0, 1))
	assert.Equal(t, "Premium", headerName(" Premium ", 1))
}
