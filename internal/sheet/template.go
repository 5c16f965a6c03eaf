package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ValuesSuffix marks the answer column paired with an index column
const ValuesSuffix = " Values"

// Group is one block of the input workbook: an index column listing the
// question keys and an empty answer column next to it.
type Group struct {
	Name string
	Keys []string
}

// TemplateSheet is the worksheet name used for generated input workbooks
const TemplateSheet = "Assessment"

// WriteTemplate writes a blank input workbook with one index/values column
// pair per group, in the order given.
func WriteTemplate(w io.Writer, groups []Group) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(TemplateSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	col := 1
	for _, g := range groups {
		for offset, header := range []string{g.Name, g.Name + ValuesSuffix} {
			if err := setCell(f, col+offset, 1, header); err != nil {
				return err
			}
			cell, _ := excelize.CoordinatesToCellName(col+offset, 1)
			if err := f.SetCellStyle(TemplateSheet, cell, cell, headerStyle); err != nil {
				return fmt.Errorf("failed to style header %s: %w", cell, err)
			}
			name, err := excelize.ColumnNumberToName(col + offset)
			if err != nil {
				return fmt.Errorf("failed to convert column number: %w", err)
			}
			if err := f.SetColWidth(TemplateSheet, name, name, 22); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
		for i, key := range g.Keys {
			if err := setCell(f, col, i+2, key); err != nil {
				return err
			}
		}
		col += 2
	}

	if err := f.SetPanes(TemplateSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(TemplateSheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}
