// Package servicetest builds a Service over temporary directories for tests
package servicetest

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/assessment-forms/internal/config"
	"github.com/a3tai/assessment-forms/internal/instrument"
	"github.com/a3tai/assessment-forms/internal/pdf/flatten"
	"github.com/a3tai/assessment-forms/internal/pdf/pdftest"
	"github.com/a3tai/assessment-forms/internal/pipeline"
	"github.com/a3tai/assessment-forms/internal/service"
	"github.com/a3tai/assessment-forms/internal/templates"
)

// Fixture is a Service whose forms directory holds a BBS template only
type Fixture struct {
	Service *service.Service
	Config  *config.Config
}

// BBSForm is the blank BBS template installed by New
func BBSForm() []byte {
	return pdftest.Build(pdftest.Page{
		Width: 612, Height: 792,
		Fields: []pdftest.Field{
			{Name: "total", Rect: [4]float64{100, 100, 200, 120}},
			{Name: "1_4", Checkbox: true, Rect: [4]float64{10, 10, 20, 20}},
		},
	})
}

// New creates the fixture with flattening disabled
func New(t testing.TB) *Fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.FormsDirectory = filepath.Join(root, "forms")
	cfg.WorkDirectory = filepath.Join(root, "work")
	cfg.OutputDirectory = filepath.Join(root, "out")
	cfg.Flatten = false
	cfg.ServerName = "assessment-forms-test"
	cfg.Version = "1.0.0"
	for _, dir := range []string{cfg.FormsDirectory, cfg.WorkDirectory} {
		require.NoError(t, os.MkdirAll(dir, 0o750))
	}
	require.NoError(t, os.WriteFile(filepath.Join(cfg.FormsDirectory, "BBS.pdf"), BBSForm(), 0o600))

	registry := instrument.Default()
	provider := templates.NewDirProvider(cfg.FormsDirectory)
	p := pipeline.New(pipeline.Config{
		Workers: 2,
		Now:     func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) },
	}, registry, provider, flatten.NewAssembler(nil, flatten.WithFlatten(false)), nil)

	svc, err := service.NewService(cfg, registry, provider, p, nil)
	require.NoError(t, err)
	return &Fixture{Service: svc, Config: cfg}
}

// Scores returns fourteen identical BBS answers
func Scores(v string) []string {
	out := make([]string, 14)
	for i := range out {
		out[i] = v
	}
	return out
}

// WorkbookBytes encodes a GENERAL + BBS input workbook. Blank answers are
// left empty.
func WorkbookBytes(t testing.TB, bbs []string) []byte {
	t.Helper()
	general := [][]string{
		{"patient_first_name", "Jane"},
		{"patient_surname", "Doe"},
		{"DOB", "01/01/2000"},
		{"date", "15/06/2024"},
		{"gender", "F"},
	}

	x := excelize.NewFile()
	defer x.Close()
	header := []any{"GENERAL", "GENERAL Values", "BBS", "BBS Values"}
	require.NoError(t, x.SetSheetRow("Sheet1", "A1", &header))
	for i := 0; i < max(len(general), len(bbs)); i++ {
		row := make([]any, 4)
		if i < len(general) {
			row[0], row[1] = general[i][0], general[i][1]
		}
		if i < len(bbs) {
			row[2] = strconv.Itoa(i + 1)
			if bbs[i] != "" {
				n, err := strconv.Atoi(bbs[i])
				require.NoError(t, err)
				row[3] = n
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, x.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := x.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// Workbook writes an input workbook into the work directory
func (f *Fixture) Workbook(t testing.TB, name string, bbs []string) string {
	t.Helper()
	path := filepath.Join(f.Config.WorkDirectory, name)
	require.NoError(t, os.WriteFile(path, WorkbookBytes(t, bbs), 0o600))
	return path
}
