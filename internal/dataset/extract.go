package dataset

import (
	"strings"
	"time"

	ferrors "github.com/a3tai/assessment-forms/internal/errors"
	"github.com/a3tai/assessment-forms/internal/record"
	"github.com/a3tai/assessment-forms/internal/sheet"
)

// Extractor turns a worksheet into a master dataset
type Extractor struct {
	now func() time.Time
}

// NewExtractor creates an extractor. now supplies "today" for age
// calculation; nil means the wall clock.
func NewExtractor(now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{now: now}
}

// isValuesColumn reports whether a header names an answer column
func isValuesColumn(name string) bool {
	return strings.Contains(strings.ToLower(name), "values")
}

// Extract reads every "<Name> Values" column that holds at least one answer,
// pairs it with its "<Name>" index column and derives the general fields.
func (e *Extractor) Extract(table *sheet.Table) (*record.Master, error) {
	master := &record.Master{}
	var general *record.Answers
	seen := make(map[string]bool)

	for _, col := range table.Columns() {
		if col == "" || !isValuesColumn(col) {
			continue
		}
		values, _ := table.Column(col)
		generalCol := col == record.GeneralGroup+sheet.ValuesSuffix
		if !generalCol && !anyPresent(values) {
			continue
		}

		name := strings.ReplaceAll(col, sheet.ValuesSuffix, "")
		index, ok := table.Column(name)
		if !ok {
			return nil, ferrors.NewExtraction("Column '%s' has no matching index column '%s'", col, name)
		}
		if seen[name] {
			return nil, ferrors.NewExtraction("Column '%s' appears more than once", col)
		}
		seen[name] = true

		answers := record.NewAnswers()
		for row, raw := range index {
			key, ok := record.NormalizeKey(raw)
			if !ok {
				continue
			}
			answers.Set(key, values[row])
		}

		if name == record.GeneralGroup {
			general = answers
			continue
		}
		master.Instruments = append(master.Instruments, record.Instrument{Name: name, Answers: answers})
	}

	if general == nil {
		return nil, ferrors.NewExtraction("The '%s' columns are missing", record.GeneralGroup)
	}

	g, err := e.deriveGeneral(general)
	if err != nil {
		return nil, err
	}
	master.General = g
	return master, nil
}

func (e *Extractor) deriveGeneral(raw *record.Answers) (record.General, error) {
	g := record.NewGeneral()

	for _, key := range raw.Keys() {
		v := raw.Get(key)
		if v.IsMissing() {
			g.Set(key, "")
			continue
		}

		switch key {
		case record.FieldDate:
			t, err := sheet.ParseDate(v)
			if err != nil {
				return g, ferrors.NewExtraction("In column '%s', the field for '%s' is not a date: %v", record.GeneralGroup, key, err)
			}
			g.Set(key, sheet.FormatDate(t))
		case record.FieldDOB:
			dob, err := sheet.ParseDate(v)
			if err != nil {
				return g, ferrors.NewExtraction("In column '%s', the field for '%s' is not a date: %v", record.GeneralGroup, key, err)
			}
			g.Set(key, sheet.FormatDate(dob))
			g.SetAge(sheet.AgeOn(dob, e.now()))
		default:
			g.Set(key, strings.TrimSpace(v.String()))
		}
	}

	for _, key := range []string{record.FieldFirstName, record.FieldSurname} {
		if !raw.Has(key) {
			return g, ferrors.NewExtraction("In column '%s', the field '%s' is missing", record.GeneralGroup, key)
		}
	}
	g.Set(record.FieldPatientName, g.Get(record.FieldFirstName)+" "+g.Get(record.FieldSurname))
	return g, nil
}

func anyPresent(values []record.Value) bool {
	for _, v := range values {
		if !v.IsMissing() {
			return true
		}
	}
	return false
}
