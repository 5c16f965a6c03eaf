package sheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/a3tai/assessment-forms/internal/record"
	"github.com/xuri/excelize/v2"
)

// DisplayDate is the layout dates are printed in on every form
const DisplayDate = "02/01/06"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	DisplayDate,
}

// ParseDate reads a date cell. Numeric cells are spreadsheet serial dates,
// text cells must match one of the accepted layouts.
func ParseDate(v record.Value) (time.Time, error) {
	if f, ok := v.Float(); ok {
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid serial date %v: %w", f, err)
		}
		return t, nil
	}

	text := strings.TrimSpace(v.String())
	if text == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", text)
}

// FormatDate prints t as DD/MM/YY
func FormatDate(t time.Time) string {
	return t.Format(DisplayDate)
}

// AgeOn returns the age in whole years on the given day. A birthday later
// in the year than today has not happened yet.
func AgeOn(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}
