package sheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/a3tai/assessment-forms/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFromRows(t *testing.T) {
	table := FromRows("Sheet1", [][]string{
		{"GENERAL", "GENERAL Values", "", "CANS"},
		{"patient_first_name", "Jane"},
		{"DOB", "36526", "", "1"},
		{"", "", "", ""},
	})

	assert.Equal(t, 2, table.Len(), "trailing blank rows are dropped")
	assert.True(t, table.HasColumn("CANS"))
	assert.False(t, table.HasColumn(""))

	values, ok := table.Column("GENERAL Values")
	require.True(t, ok)
	assert.Equal(t, record.Text("Jane"), values[0])
	assert.Equal(t, record.Number(36526), values[1])

	cans, ok := table.Column("CANS")
	require.True(t, ok)
	assert.True(t, cans[0].IsMissing(), "ragged rows read as missing")

	_, ok = table.Column("LSP")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   record.Value
	}{
		{"serial", record.Number(36526)},
		{"iso", record.Text("2000-01-01")},
		{"iso datetime", record.Text("2000-01-01 00:00:00")},
		{"day first", record.Text("01/01/2000")},
		{"short", record.Text("01/01/00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %v", got)
		})
	}

	_, err := ParseDate(record.Text("yesterday"))
	assert.Error(t, err)
	_, err = ParseDate(record.Missing())
	assert.Error(t, err)
}

func TestAgeOn(t *testing.T) {
	dob := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 24, AgeOn(dob, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 23, AgeOn(dob, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 23, AgeOn(dob, time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "15/06/00", FormatDate(dob))
}

func TestWriteTemplateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTemplate(&buf, []Group{
		{Name: "GENERAL", Keys: []string{"patient_first_name", "patient_surname"}},
		{Name: "BBS", Keys: []string{"1", "2"}},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(TemplateSheet, "D2", 3))
	var filled bytes.Buffer
	_, err = f.WriteTo(&filled)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	table, err := ReadWorkbook(&filled)
	require.NoError(t, err)
	assert.Equal(t, TemplateSheet, table.Name)
	assert.Equal(t, []string{"GENERAL", "GENERAL Values", "BBS", "BBS Values"}, table.Columns())

	keys, ok := table.Column("BBS")
	require.True(t, ok)
	assert.Equal(t, record.Number(1), keys[0])

	values, _ := table.Column("BBS Values")
	assert.Equal(t, record.Number(3), values[0])
	assert.True(t, values[1].IsMissing())
}

func TestReadWorkbookRejectsGarbage(t *testing.T) {
	_, err := ReadWorkbook(bytes.NewReader([]byte("not a zip")))
	assert.Error(t, err)
}
