package sheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/a3tai/assessment-forms/internal/record"
	"github.com/xuri/excelize/v2"
)

// Table is one worksheet read as named columns. Cells are kept raw and
// parsed into record values on access so that blank cells stay missing.
type Table struct {
	Name   string
	header []string
	index  map[string]int
	rows   [][]string
}

// FromRows builds a table whose first row is the header. Rows may be ragged;
// cells past a row's end read as missing.
func FromRows(name string, rows [][]string) *Table {
	t := &Table{Name: name, index: make(map[string]int)}
	if len(rows) == 0 {
		return t
	}
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		t.header = append(t.header, h)
		if h == "" {
			continue
		}
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	t.rows = dropTrailingBlankRows(rows[1:])
	return t
}

// ReadWorkbook reads the first worksheet of an .xlsx workbook. Cell values
// are read raw so date cells arrive as serial numbers.
func ReadWorkbook(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheetName)
	}

	return FromRows(sheetName, rows), nil
}

// Columns returns the header names in sheet order, blanks included
func (t *Table) Columns() []string {
	out := make([]string, len(t.header))
	copy(out, t.header)
	return out
}

// HasColumn reports whether a column with that exact name exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of data rows
func (t *Table) Len() int { return len(t.rows) }

// Column returns every cell of the named column parsed into values
func (t *Table) Column(name string) ([]record.Value, bool) {
	col, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]record.Value, len(t.rows))
	for i, row := range t.rows {
		if col < len(row) {
			out[i] = record.Parse(row[col])
		}
	}
	return out, true
}

func dropTrailingBlankRows(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && blankRow(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
