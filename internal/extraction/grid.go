package extraction

// Grid is a read-only view of one worksheet. Rows and columns are 1-based;
// empty cells read as nil.
type Grid interface {
	Rows() int
	Cols() int
	Cell(row, col int) any
}

// Sheet is the in-memory Grid produced by the spreadsheet loaders.
type Sheet struct {
	cells [][]any
	cols  int
}

// NewSheet builds a Sheet from row-major cells. Ragged rows are allowed.
func NewSheet(cells [][]any) *Sheet {
	cols := 0
	for _, row := range cells {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return &Sheet{cells: cells, cols: cols}
}

func (s *Sheet) Rows() int { return len(s.cells) }

func (s *Sheet) Cols() int { return s.cols }

func (s *Sheet) Cell(row, col int) any {
	if row < 1 || row > len(s.cells) {
		return nil
	}
	cells := s.cells[row-1]
	if col < 1 || col > len(cells) {
		return nil
	}
	return cells[col-1]
}
