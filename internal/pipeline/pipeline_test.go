package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"io"
	"strconv"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	ferrors "github.com/a3tai/assessment-forms/internal/errors"
	"github.com/a3tai/assessment-forms/internal/instrument"
	"github.com/a3tai/assessment-forms/internal/pdf/flatten"
	"github.com/a3tai/assessment-forms/internal/pdf/forms"
	"github.com/a3tai/assessment-forms/internal/pdf/pdftest"
	"github.com/a3tai/assessment-forms/internal/sheet"
	"github.com/a3tai/assessment-forms/internal/templates"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fixedNow() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }

func templateFS() fstest.MapFS {
	bbs := pdftest.Build(pdftest.Page{
		Width: 500, Height: 700,
		Fields: []pdftest.Field{
			{Name: "total", Rect: [4]float64{100, 100, 200, 120}},
			{Name: "1_4", Checkbox: true, Rect: [4]float64{10, 10, 20, 20}},
		},
	})
	casp := pdftest.Build(
		pdftest.Page{Width: 600, Height: 800, Fields: []pdftest.Field{{Name: "total", Rect: [4]float64{100, 100, 300, 120}}}},
		pdftest.Page{Width: 600, Height: 800},
	)
	return fstest.MapFS{
		"BBS.pdf":  {Data: bbs},
		"CASP.pdf": {Data: casp},
	}
}

// table lays out GENERAL plus the given instrument columns side by side
func table(instruments map[string][]string, order ...string) *sheet.Table {
	type col struct {
		name         string
		keys, values []string
	}
	cols := []col{{
		name:   "GENERAL",
		keys:   []string{"patient_first_name", "patient_surname", "DOB", "date", "gender"},
		values: []string{"Jane", "Doe", "2000-01-01", "2024-06-15", "F"},
	}}
	for _, name := range order {
		values := instruments[name]
		keys := make([]string, len(values))
		for i := range values {
			keys[i] = strconv.Itoa(i + 1)
		}
		cols = append(cols, col{name: name, keys: keys, values: values})
	}

	height := 0
	for _, c := range cols {
		height = max(height, len(c.keys))
	}
	rows := make([][]string, height+1)
	for _, c := range cols {
		rows[0] = append(rows[0], c.name, c.name+" Values")
		for r := 0; r < height; r++ {
			key, value := "", ""
			if r < len(c.keys) {
				key, value = c.keys[r], c.values[r]
			}
			rows[r+1] = append(rows[r+1], key, value)
		}
	}
	return sheet.FromRows("Sheet1", rows)
}

func repeat(v string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func newPipeline(cfg Config, assembler *flatten.Assembler) *Pipeline {
	if cfg.Now == nil {
		cfg.Now = fixedNow
	}
	return New(cfg, instrument.Default(), templates.NewProvider(templateFS()), assembler, nil)
}

type countingRasterizer struct{ calls atomic.Int32 }

func (c *countingRasterizer) Rasterize(_ context.Context, pdf []byte, _ float64) ([]image.Image, error) {
	c.calls.Add(1)
	doc, err := forms.Open(pdf)
	if err != nil {
		return nil, err
	}
	out := make([]image.Image, doc.PageCount())
	for i := range out {
		box, err := doc.PageBox(i)
		if err != nil {
			return nil, err
		}
		out[i] = image.NewRGBA(image.Rect(0, 0, int(box.Width()), int(box.Height())))
	}
	return out, nil
}

func TestProcessDatasetKeepsInstrumentOrder(t *testing.T) {
	r := &countingRasterizer{}
	p := newPipeline(Config{Workers: 4}, flatten.NewAssembler(r))

	tbl := table(map[string][]string{
		"CASP": repeat("2", 20),
		"BBS":  repeat("4", 14),
	}, "CASP", "BBS")

	out := p.ProcessDataset(context.Background(), Dataset{ID: "jane", Table: tbl})
	require.True(t, out.OK(), "%v", out.Errors.Messages())
	assert.Equal(t, []string{"CASP", "BBS"}, out.Instruments)
	assert.Equal(t, int32(2), r.calls.Load())

	doc, err := forms.Open(out.Document)
	require.NoError(t, err)
	require.Equal(t, 3, doc.PageCount())
	for page, width := range []float64{600, 600, 500} {
		box, err := doc.PageBox(page)
		require.NoError(t, err)
		assert.InDelta(t, width, box.Width(), 0.5, "page %d", page)
	}
}

func TestProcessDatasetValidationErrors(t *testing.T) {
	p := newPipeline(Config{}, flatten.NewAssembler(nil, flatten.WithFlatten(false)))

	values := repeat("3", 14)
	values[4] = ""
	tbl := table(map[string][]string{"BBS": values}, "BBS")

	out := p.ProcessDataset(context.Background(), Dataset{ID: "jane.xlsx", Table: tbl})
	assert.False(t, out.OK())
	assert.Nil(t, out.Document)
	require.Len(t, out.Errors.Errors, 1)

	fe := out.Errors.Errors[0]
	assert.Equal(t, ferrors.KindValidation, fe.Kind)
	assert.Equal(t, "jane.xlsx", fe.Dataset)
	assert.Equal(t, "In column 'BBS', the field for '5' is empty", fe.Message)
}

func TestProcessDatasetFailures(t *testing.T) {
	p := newPipeline(Config{Workers: 2}, flatten.NewAssembler(nil, flatten.WithFlatten(false)))

	t.Run("scoring error names the instrument", func(t *testing.T) {
		values := repeat("3", 14)
		values[0] = "9"
		out := p.ProcessDataset(context.Background(), Dataset{ID: "a", Table: table(map[string][]string{"BBS": values}, "BBS")})
		require.Len(t, out.Errors.Errors, 1)
		assert.Equal(t, ferrors.KindScoring, out.Errors.Errors[0].Kind)
		assert.Equal(t, "BBS", out.Errors.Errors[0].Instrument)
	})

	t.Run("missing template is a render error", func(t *testing.T) {
		tbl := table(map[string][]string{"LSP": repeat("1", 16)}, "LSP")
		out := p.ProcessDataset(context.Background(), Dataset{ID: "b", Table: tbl})
		require.Len(t, out.Errors.Errors, 1)
		assert.Equal(t, ferrors.KindRender, out.Errors.Errors[0].Kind)
		assert.Equal(t, "LSP", out.Errors.Errors[0].Instrument)
	})

	t.Run("unsupported column", func(t *testing.T) {
		tbl := table(map[string][]string{"PHQ9": repeat("1", 9)}, "PHQ9")
		out := p.ProcessDataset(context.Background(), Dataset{ID: "c", Table: tbl})
		require.Len(t, out.Errors.Errors, 1)
		assert.Equal(t, ferrors.KindValidation, out.Errors.Errors[0].Kind)
	})

	t.Run("extraction error", func(t *testing.T) {
		tbl := sheet.FromRows("Sheet1", [][]string{{"BBS", "BBS Values"}, {"1", "2"}})
		out := p.ProcessDataset(context.Background(), Dataset{ID: "d", Table: tbl})
		require.Len(t, out.Errors.Errors, 1)
		assert.Equal(t, ferrors.KindExtraction, out.Errors.Errors[0].Kind)
	})
}

func TestProcessBatchPolicy(t *testing.T) {
	good := Dataset{ID: "good", Table: table(map[string][]string{"BBS": repeat("2", 14)}, "BBS")}
	bad := repeat("2", 14)
	bad[13] = ""
	failing := Dataset{ID: "bad", Table: table(map[string][]string{"BBS": bad}, "BBS")}

	assembler := flatten.NewAssembler(nil, flatten.WithFlatten(false))

	strict := newPipeline(Config{}, assembler).ProcessBatch(context.Background(), []Dataset{good, failing})
	assert.True(t, strict.Failed())
	assert.Empty(t, strict.Artifacts(), "any failure withholds every document")
	require.Len(t, strict.Errors(), 1)
	assert.Equal(t, "bad", strict.Errors()[0].Dataset)
	assert.NotEqual(t, [16]byte{}, [16]byte(strict.ID))

	partial := newPipeline(Config{PartialBatch: true}, assembler).ProcessBatch(context.Background(), []Dataset{good, failing})
	artifacts := partial.Artifacts()
	require.Len(t, artifacts, 1)
	assert.Equal(t, "good.pdf", artifacts[0].Name)

	clean := newPipeline(Config{}, assembler).ProcessBatch(context.Background(), []Dataset{good})
	assert.False(t, clean.Failed())
	assert.Len(t, clean.Artifacts(), 1)
}

func TestCancelledContext(t *testing.T) {
	p := newPipeline(Config{}, flatten.NewAssembler(nil, flatten.WithFlatten(false)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := p.ProcessDataset(ctx, Dataset{ID: "x", Table: table(map[string][]string{"BBS": repeat("2", 14)}, "BBS")})
	assert.False(t, out.OK())
}

func TestWriteArchive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, []Artifact{
		{Name: "a.pdf", Data: []byte("one")},
		{Name: "b.pdf", Data: []byte("two")},
	}))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.pdf", zr.File[0].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "two", string(data))

	assert.Error(t, WriteArchive(io.Discard, []Artifact{{Name: "a.pdf"}, {Name: "a.pdf"}}))
}

func TestUnreadableDataset(t *testing.T) {
	p := newPipeline(Config{}, flatten.NewAssembler(nil, flatten.WithFlatten(false)))
	out := p.ProcessDataset(context.Background(), Dataset{ID: "broken", Err: io.ErrUnexpectedEOF})
	require.Len(t, out.Errors.Errors, 1)
	assert.Equal(t, ferrors.KindInput, out.Errors.Errors[0].Kind)
	assert.ErrorIs(t, out.Errors.Errors[0], io.ErrUnexpectedEOF)
}

func TestScoreWithoutRendering(t *testing.T) {
	p := newPipeline(Config{}, flatten.NewAssembler(nil, flatten.WithFlatten(false)))
	tbl := table(map[string][]string{"BBS": repeat("4", 14), "CASP": repeat("1", 20)}, "BBS", "CASP")

	master, errs, err := p.Validate(Dataset{ID: "jane", Table: tbl})
	require.NoError(t, err)
	require.Empty(t, errs)

	results, fe := p.Score(master)
	require.Nil(t, fe)
	require.Len(t, results, 2)
	assert.Equal(t, 56.0, results[0].Totals["total"])
	total, _ := results[1].Fields.Get("total")
	assert.Equal(t, "Total: 20/80 = 25.0%", total)
}
