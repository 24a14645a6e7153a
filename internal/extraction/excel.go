package extraction

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// LoadSpreadsheet reads the active worksheet of an .xlsx or .xls file.
func LoadSpreadsheet(name string, content []byte) (*Sheet, error) {
	if isLegacyExcel(name) {
		return loadXLS(name, content)
	}
	return loadXLSX(name, content)
}

func loadXLSX(name string, content []byte) (*Sheet, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fileFormatError(name, err)
	}
	defer xl.Close()

	sheet := xl.GetSheetName(xl.GetActiveSheetIndex())
	if sheet == "" {
		sheet = xl.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fileFormatError(name, errors.New("workbook has no sheets"))
	}

	formatted, err := xl.GetRows(sheet)
	if err != nil {
		return nil, fileFormatError(name, err)
	}
	raw, err := xl.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fileFormatError(name, err)
	}

	cells := make([][]any, len(raw))
	for r, rawRow := range raw {
		row := make([]any, len(rawRow))
		for c, rawValue := range rawRow {
			text := ""
			if r < len(formatted) && c < len(formatted[r]) {
				text = formatted[r][c]
			}
			row[c] = typedCell(xl, sheet, r+1, c+1, rawValue, text)
		}
		cells[r] = row
	}
	return NewSheet(cells), nil
}

// typedCell restores the value type a spreadsheet user sees: text stays text,
// numbers displayed as numbers become float64, booleans become bool. Numbers
// displayed through a non-numeric format (dates, custom text) keep the
// displayed text.
func typedCell(xl *excelize.File, sheet string, row, col int, raw, text string) any {
	if raw == "" && text == "" {
		return nil
	}

	number, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return text
	}

	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return text
	}
	cellType, err := xl.GetCellType(sheet, ref)
	if err != nil {
		return text
	}

	switch cellType {
	case excelize.CellTypeBool:
		return number != 0
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if looksNumeric(text) {
			return number
		}
		return text
	default:
		return text
	}
}

func looksNumeric(text string) bool {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '¥', ',', ' ', '%', '(', ')':
			return -1
		}
		return r
	}, text)
	if cleaned == "" {
		return false
	}
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}

func loadXLS(name string, content []byte) (sheet *Sheet, err error) {
	// The legacy BIFF reader panics on some truncated files.
	defer func() {
		if r := recover(); r != nil {
			sheet = nil
			err = fileFormatError(name, fmt.Errorf("%v", r))
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fileFormatError(name, err)
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, fileFormatError(name, errors.New("workbook has no sheets"))
	}

	cells := make([][]any, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		xr := ws.Row(i)
		if xr == nil {
			cells = append(cells, nil)
			continue
		}
		row := make([]any, 0, xr.LastCol())
		for c := 0; c < xr.LastCol(); c++ {
			value := xr.Col(c)
			if value == "" {
				row = append(row, nil)
				continue
			}
			row = append(row, value)
		}
		cells = append(cells, row)
	}

	for len(cells) > 0 && len(cells[len(cells)-1]) == 0 {
		cells = cells[:len(cells)-1]
	}
	return NewSheet(cells), nil
}
