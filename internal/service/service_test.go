package service_test

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/a3tai/assessment-forms/internal/errors"
	"github.com/a3tai/assessment-forms/internal/instrument"
	"github.com/a3tai/assessment-forms/internal/pdf/forms"
	"github.com/a3tai/assessment-forms/internal/pipeline"
	"github.com/a3tai/assessment-forms/internal/service"
	"github.com/a3tai/assessment-forms/internal/service/servicetest"
	"github.com/a3tai/assessment-forms/internal/sheet"
)

func TestFillWorkbooks(t *testing.T) {
	f := servicetest.New(t)
	f.Workbook(t, "Jane Doe.xlsx", servicetest.Scores("4"))

	result, err := f.Service.FillWorkbooks(context.Background(), service.FillRequest{Paths: []string{"Jane Doe.xlsx"}})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, filepath.Join(f.Config.OutputDirectory, "Jane_Doe.pdf"), result.Outputs[0])

	data, err := os.ReadFile(result.Outputs[0])
	require.NoError(t, err)
	doc, err := forms.Open(data)
	require.NoError(t, err)
	values := doc.ReadValues()
	assert.Equal(t, "56", values["total"])
	assert.Equal(t, "true", values["1_4"])
}

func TestFillWorkbooksArchive(t *testing.T) {
	f := servicetest.New(t)
	f.Workbook(t, "a.xlsx", servicetest.Scores("1"))
	f.Workbook(t, "b.xlsx", servicetest.Scores("2"))

	result, err := f.Service.FillWorkbooks(context.Background(), service.FillRequest{Paths: []string{"a.xlsx", "b.xlsx"}, Archive: true})
	require.NoError(t, err)
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, service.ArchiveName, filepath.Base(result.Outputs[0]))

	zr, err := zip.OpenReader(result.Outputs[0])
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.pdf", zr.File[0].Name)
	assert.Equal(t, "b.pdf", zr.File[1].Name)
}

func TestFillWorkbooksWithholdsOnError(t *testing.T) {
	f := servicetest.New(t)
	f.Workbook(t, "good.xlsx", servicetest.Scores("1"))
	bad := servicetest.Scores("1")
	bad[2] = ""
	f.Workbook(t, "bad.xlsx", bad)

	result, err := f.Service.FillWorkbooks(context.Background(), service.FillRequest{Paths: []string{"good.xlsx", "bad.xlsx"}})
	require.NoError(t, err)
	assert.Empty(t, result.Outputs)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "bad", result.Errors[0].Dataset)
	assert.Equal(t, []string{"In column 'BBS', the field for '3' is empty"}, result.Errors[0].Messages())

	_, err = os.Stat(filepath.Join(f.Config.OutputDirectory, "good.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestFillWorkbooksRejectsPaths(t *testing.T) {
	f := servicetest.New(t)

	_, err := f.Service.FillWorkbooks(context.Background(), service.FillRequest{})
	assert.Error(t, err)

	_, err = f.Service.FillWorkbooks(context.Background(), service.FillRequest{Paths: []string{"../escape.xlsx"}})
	assert.ErrorContains(t, err, "security validation failed")

	require.NoError(t, os.WriteFile(filepath.Join(f.Config.WorkDirectory, "notes.txt"), []byte("x"), 0o600))
	_, err = f.Service.FillWorkbooks(context.Background(), service.FillRequest{Paths: []string{"notes.txt"}})
	assert.ErrorContains(t, err, "not an .xlsx workbook")
}

func TestValidateWorkbook(t *testing.T) {
	f := servicetest.New(t)
	f.Workbook(t, "jane.xlsx", servicetest.Scores("3"))

	result, err := f.Service.ValidateWorkbook(service.ValidateRequest{Path: "jane.xlsx"})
	require.NoError(t, err)
	require.True(t, result.Valid, "%v", result.Errors.Messages())
	assert.Equal(t, "Jane Doe", result.Patient)
	assert.Equal(t, []string{"BBS"}, result.Instruments)
	require.Len(t, result.Scores, 1)
	assert.Equal(t, "42", result.Scores[0].Fields["total"])

	out := servicetest.Scores("3")
	out[0] = "7"
	f.Workbook(t, "out-of-range.xlsx", out)
	result, err = f.Service.ValidateWorkbook(service.ValidateRequest{Path: "out-of-range.xlsx"})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors.Errors, 1)
	assert.Equal(t, ferrors.KindScoring, result.Errors.Errors[0].Kind)
}

func TestValidateUnreadableWorkbook(t *testing.T) {
	f := servicetest.New(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.Config.WorkDirectory, "broken.xlsx"), []byte("not a zip"), 0o600))

	result, err := f.Service.ValidateWorkbook(service.ValidateRequest{Path: "broken.xlsx"})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors.Errors, 1)
	assert.Equal(t, ferrors.KindInput, result.Errors.Errors[0].Kind)
}

func TestProcessUploads(t *testing.T) {
	f := servicetest.New(t)
	path := f.Workbook(t, "upload.xlsx", servicetest.Scores("2"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	batch, err := f.Service.ProcessUploads(context.Background(), []service.Upload{
		{Name: "readme.txt", Data: strings.NewReader("ignored")},
		{Name: "../Jane (intake).xlsx", Data: bytes.NewReader(data)},
	})
	require.NoError(t, err)
	require.Len(t, batch.Outcomes, 1)
	artifacts := batch.Artifacts()
	require.Len(t, artifacts, 1)
	assert.Equal(t, "Jane_intake.pdf", artifacts[0].Name)

	_, err = f.Service.ProcessUploads(context.Background(), []service.Upload{{Name: "a.csv", Data: strings.NewReader("")}})
	assert.Equal(t, ferrors.KindInput, ferrors.KindOf(err))
}

func TestProcessUploadsCollidingNames(t *testing.T) {
	f := servicetest.New(t)
	data := servicetest.WorkbookBytes(t, servicetest.Scores("2"))

	batch, err := f.Service.ProcessUploads(context.Background(), []service.Upload{
		{Name: "My Patient.xlsx", Data: bytes.NewReader(data)},
		{Name: "My_Patient.xlsx", Data: bytes.NewReader(data)},
		{Name: "My_Patient-2.xlsx", Data: bytes.NewReader(data)},
	})
	require.NoError(t, err)
	require.False(t, batch.Failed())

	artifacts := batch.Artifacts()
	names := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"My_Patient.pdf", "My_Patient-2.pdf", "My_Patient-2-2.pdf"}, names)

	var buf bytes.Buffer
	require.NoError(t, pipeline.WriteArchive(&buf, artifacts))
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Len(t, zr.File, 3)
}

func TestFillWorkbooksCollidingNames(t *testing.T) {
	f := servicetest.New(t)
	f.Workbook(t, "My Patient.xlsx", servicetest.Scores("1"))
	f.Workbook(t, "My_Patient.xlsx", servicetest.Scores("2"))

	result, err := f.Service.FillWorkbooks(context.Background(), service.FillRequest{
		Paths: []string{"My Patient.xlsx", "My_Patient.xlsx"},
	})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Outputs, 2)
	assert.Equal(t, "My_Patient.pdf", filepath.Base(result.Outputs[0]))
	assert.Equal(t, "My_Patient-2.pdf", filepath.Base(result.Outputs[1]))
}

func TestUploadTooLarge(t *testing.T) {
	f := servicetest.New(t)
	f.Config.MaxFileSize = 10

	batch, err := f.Service.ProcessUploads(context.Background(), []service.Upload{{Name: "big.xlsx", Data: strings.NewReader(strings.Repeat("x", 11))}})
	require.NoError(t, err)
	require.True(t, batch.Failed())
	assert.Contains(t, batch.Errors()[0].Errors[0].Message, "too large")
}

func TestSearchWorkbooks(t *testing.T) {
	f := servicetest.New(t)
	f.Workbook(t, "jane-doe.xlsx", servicetest.Scores("1"))
	f.Workbook(t, "john-smith.xlsx", servicetest.Scores("1"))
	require.NoError(t, os.WriteFile(filepath.Join(f.Config.WorkDirectory, "~$jane-doe.xlsx"), []byte("lock"), 0o600))

	all, err := f.Service.SearchWorkbooks(service.SearchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.TotalCount)

	some, err := f.Service.SearchWorkbooks(service.SearchRequest{Query: "DOE"})
	require.NoError(t, err)
	require.Equal(t, 1, some.TotalCount)
	assert.Equal(t, "jane-doe.xlsx", some.Files[0].Name)

	_, err = f.Service.SearchWorkbooks(service.SearchRequest{Directory: "/"})
	assert.Error(t, err)
}

func TestListInstruments(t *testing.T) {
	f := servicetest.New(t)
	infos := f.Service.ListInstruments()
	require.Len(t, infos, 10)
	assert.Equal(t, instrument.WHODAS, infos[0].Name)

	for _, info := range infos {
		if info.Name == instrument.BBS {
			assert.True(t, info.TemplateAvailable)
			assert.Equal(t, "berg-balance-scale", info.Slug)
			assert.Len(t, info.Keys, 14)
		} else {
			assert.False(t, info.TemplateAvailable, info.Name)
		}
	}

	info := f.Service.ServerInfo("assessment-forms", "1.0.0")
	assert.Len(t, info.MissingTemplates, 9)
	assert.Len(t, info.AvailableTools, 7)
}

func TestWriteInputTemplate(t *testing.T) {
	f := servicetest.New(t)

	var buf bytes.Buffer
	require.NoError(t, f.Service.WriteInputTemplate(&buf))
	table, err := sheet.ReadWorkbook(&buf)
	require.NoError(t, err)
	assert.Equal(t, "GENERAL", table.Columns()[0])
	assert.True(t, table.HasColumn("CASP Values"))

	keys, ok := table.Column("GENERAL")
	require.True(t, ok)
	assert.Equal(t, "patient_first_name", keys[0].String())

	path, err := f.Service.SaveInputTemplate()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.Config.OutputDirectory, service.InputTemplateName), path)
}

func TestTemplateFields(t *testing.T) {
	f := servicetest.New(t)

	result, err := f.Service.TemplateFields("berg-balance-scale")
	require.NoError(t, err)
	assert.Equal(t, "BBS", result.Instrument)
	assert.Equal(t, 1, result.Pages)
	require.Len(t, result.Fields, 2)
	assert.Equal(t, "total", result.Fields[0].Name)

	_, err = f.Service.TemplateFields("whodas")
	assert.Equal(t, ferrors.KindResource, ferrors.KindOf(err))

	_, err = f.Service.TemplateFields("phq9")
	assert.Error(t, err)
}

func TestDatasetID(t *testing.T) {
	assert.Equal(t, "Jane_Doe", service.DatasetID("/tmp/Jane Doe.xlsx", 0))
	assert.Equal(t, "workbook-3", service.DatasetID("....xlsx", 2))
}

func TestBuild(t *testing.T) {
	f := servicetest.New(t)
	f.Config.Flatten = false

	svc, err := service.Build(f.Config, nil)
	require.NoError(t, err)
	assert.Same(t, f.Config, svc.Config())
	assert.Len(t, svc.ListInstruments(), 10)
}
