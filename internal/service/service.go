// Package service exposes workbook processing to the MCP, HTTP and command
// line transports.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/assessment-forms/internal/config"
	ferrors "github.com/a3tai/assessment-forms/internal/errors"
	"github.com/a3tai/assessment-forms/internal/instrument"
	"github.com/a3tai/assessment-forms/internal/logging"
	"github.com/a3tai/assessment-forms/internal/pdf/forms"
	"github.com/a3tai/assessment-forms/internal/pipeline"
	"github.com/a3tai/assessment-forms/internal/record"
	"github.com/a3tai/assessment-forms/internal/security"
	"github.com/a3tai/assessment-forms/internal/sheet"
	"github.com/a3tai/assessment-forms/internal/templates"
)

// ArchiveName is the file name of packaged batch output
const ArchiveName = "processed_files.zip"

// InputTemplateName is the file name of the blank input workbook
const InputTemplateName = "template.xlsx"

// generalKeys are the identity rows of the input workbook
var generalKeys = []string{
	record.FieldFirstName,
	record.FieldSurname,
	record.FieldDOB,
	record.FieldGender,
	record.FieldDate,
}

// Service handles workbook operations by orchestrating the processing
// components
type Service struct {
	cfg       *config.Config
	registry  *instrument.Registry
	templates *templates.Provider
	pipeline  *pipeline.Pipeline
	validator *Validator
	search    *Search
	inputs    *security.PathValidator
	outputs   *security.PathValidator
	logger    *zap.Logger
}

// NewService creates a new service over the given components
func NewService(cfg *config.Config, registry *instrument.Registry, provider *templates.Provider,
	p *pipeline.Pipeline, logger *zap.Logger,
) (*Service, error) {
	if registry == nil || provider == nil || p == nil {
		return nil, fmt.Errorf("registry, template provider and pipeline are required")
	}

	inputs, err := security.NewPathValidator(cfg.WorkDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	outputs, err := security.NewPathValidator(cfg.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create output path validator: %w", err)
	}

	validator := NewValidator(cfg.MaxFileSize)
	return &Service{
		cfg:       cfg,
		registry:  registry,
		templates: provider,
		pipeline:  p,
		validator: validator,
		search:    NewSearch(validator, 100),
		inputs:    inputs,
		outputs:   outputs,
		logger:    logging.OrNop(logger),
	}, nil
}

// DatasetID derives a dataset identifier from an uploaded file name: the
// secured name without its extension.
func DatasetID(name string, position int) string {
	base := filepath.Base(name)
	id := security.SecureFileName(strings.TrimSuffix(base, filepath.Ext(base)))
	if id == "" {
		id = "workbook-" + strconv.Itoa(position+1)
	}
	return id
}

// datasetIDs hands out dataset identifiers unique within one batch. A name
// already taken gets a numeric suffix: My_Patient, My_Patient-2, ...
type datasetIDs map[string]int

func (seen datasetIDs) next(name string, position int) string {
	id := DatasetID(name, position)
	seen[id]++
	if seen[id] == 1 {
		return id
	}
	for n := seen[id]; ; n++ {
		candidate := id + "-" + strconv.Itoa(n)
		if _, taken := seen[candidate]; !taken {
			seen[candidate] = 1
			return candidate
		}
	}
}

// ReadUploads turns uploads into datasets. Files without the workbook
// extension are skipped; unreadable workbooks become failed datasets.
func (s *Service) ReadUploads(uploads []Upload) []pipeline.Dataset {
	datasets := make([]pipeline.Dataset, 0, len(uploads))
	ids := datasetIDs{}
	for i, up := range uploads {
		if !IsWorkbookName(up.Name) {
			s.logger.Debug("skipping non-workbook upload", zap.String("name", up.Name))
			continue
		}
		ds := pipeline.Dataset{ID: ids.next(up.Name, i)}
		ds.Table, ds.Err = s.readWorkbook(up.Name, up.Data)
		datasets = append(datasets, ds)
	}
	return datasets
}

func (s *Service) readWorkbook(name string, r io.Reader) (*sheet.Table, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, &ferrors.FormError{Kind: ferrors.KindInput, Field: name, Message: "failed to read " + name, Err: err}
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		return nil, &ferrors.FormError{
			Kind:    ferrors.KindInput,
			Field:   name,
			Message: fmt.Sprintf("%s is too large (max: %d bytes)", name, s.cfg.MaxFileSize),
		}
	}
	table, err := sheet.ReadWorkbook(bytes.NewReader(data))
	if err != nil {
		return nil, &ferrors.FormError{
			Kind:    ferrors.KindInput,
			Field:   name,
			Message: fmt.Sprintf("There is an issue with %s. Please ensure the correct template has been used", name),
			Err:     err,
		}
	}
	return table, nil
}

// ProcessUploads runs uploaded workbooks as one batch
func (s *Service) ProcessUploads(ctx context.Context, uploads []Upload) (*pipeline.BatchResult, error) {
	datasets := s.ReadUploads(uploads)
	if len(datasets) == 0 {
		return nil, &ferrors.FormError{Kind: ferrors.KindInput, Message: "No " + WorkbookExt + " files were provided"}
	}
	return s.pipeline.ProcessBatch(ctx, datasets), nil
}

// openWorkbook validates a path inside the work directory and reads it
func (s *Service) openWorkbook(path string) (string, *sheet.Table, error) {
	resolved, err := s.inputs.NormalizePath(path)
	if err != nil {
		return "", nil, fmt.Errorf("security validation failed: %w", err)
	}
	if err := s.validator.ValidateFile(resolved); err != nil {
		return "", nil, err
	}
	f, err := os.Open(resolved)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	table, err := s.readWorkbook(filepath.Base(resolved), f)
	return resolved, table, err
}

// FillWorkbooks processes workbooks from the work directory and writes the
// documents to the output directory
func (s *Service) FillWorkbooks(ctx context.Context, req FillRequest) (*FillResult, error) {
	if len(req.Paths) == 0 {
		return nil, fmt.Errorf("at least one workbook path is required")
	}

	datasets := make([]pipeline.Dataset, 0, len(req.Paths))
	ids := datasetIDs{}
	for i, path := range req.Paths {
		resolved, table, err := s.openWorkbook(path)
		if resolved == "" {
			return nil, err
		}
		datasets = append(datasets, pipeline.Dataset{ID: ids.next(resolved, i), Table: table, Err: err})
	}

	batch := s.pipeline.ProcessBatch(ctx, datasets)
	result := &FillResult{BatchID: batch.ID.String(), Outputs: []string{}, Errors: batch.Errors()}

	artifacts := batch.Artifacts()
	if len(artifacts) == 0 {
		return result, nil
	}
	if err := os.MkdirAll(s.outputs.Directory(), config.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if req.Archive {
		var buf bytes.Buffer
		if err := pipeline.WriteArchive(&buf, artifacts); err != nil {
			return nil, err
		}
		path, err := s.writeOutput(ArchiveName, buf.Bytes())
		if err != nil {
			return nil, err
		}
		result.Outputs = append(result.Outputs, path)
		return result, nil
	}

	for _, a := range artifacts {
		path, err := s.writeOutput(a.Name, a.Data)
		if err != nil {
			return nil, err
		}
		result.Outputs = append(result.Outputs, path)
	}
	return result, nil
}

func (s *Service) writeOutput(name string, data []byte) (string, error) {
	path, err := s.outputs.NormalizePath(name)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	s.logger.Info("wrote output", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

// ValidateWorkbook extracts, validates and scores a workbook without
// rendering it
func (s *Service) ValidateWorkbook(req ValidateRequest) (*ValidateResult, error) {
	resolved, table, err := s.openWorkbook(req.Path)
	if resolved == "" {
		return nil, err
	}
	id := DatasetID(resolved, 0)
	result := &ValidateResult{Path: resolved, Errors: ferrors.NewCollection(id)}

	master, errs, err := s.pipeline.Validate(pipeline.Dataset{ID: id, Table: table, Err: err})
	if err != nil {
		result.Errors.Add(ferrors.As(err, ferrors.KindExtraction))
		return result, nil
	}
	result.Patient = master.General.PatientName()
	result.Instruments = master.Names()
	if len(errs) > 0 {
		result.Errors.Add(errs...)
		return result, nil
	}
	if len(result.Instruments) == 0 {
		result.Errors.Add(pipeline.ErrNoInstruments())
		return result, nil
	}

	scores, fe := s.pipeline.Score(master)
	if fe != nil {
		result.Errors.Add(fe)
		return result, nil
	}
	for _, res := range scores {
		result.Scores = append(result.Scores, InstrumentScore{
			Instrument: res.Instrument,
			Fields:     res.Fields.Map(),
			Totals:     res.Totals,
		})
	}
	result.Valid = true
	return result, nil
}

// SearchWorkbooks finds workbooks, defaulting to the work directory
func (s *Service) SearchWorkbooks(req SearchRequest) (*SearchResult, error) {
	if req.Directory == "" {
		req.Directory = s.inputs.Directory()
	}
	if err := s.inputs.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.search.SearchDirectory(req)
}

// ListInstruments describes every supported instrument in registry order
func (s *Service) ListInstruments() []InstrumentInfo {
	slugs := make(map[string]string)
	for _, slug := range templates.Slugs() {
		name, _ := templates.BySlug(slug)
		slugs[name] = slug
	}
	missing := make(map[string]bool)
	for _, name := range s.templates.Missing(s.registry.Names()) {
		missing[name] = true
	}

	out := make([]InstrumentInfo, 0, len(s.registry.Names()))
	for _, name := range s.registry.Names() {
		scorer, err := s.registry.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, InstrumentInfo{
			Name:              name,
			Slug:              slugs[name],
			Keys:              scorer.Rules().Keys,
			TemplateAvailable: !missing[name],
		})
	}
	return out
}

// InputGroups returns the column groups of the blank input workbook:
// GENERAL first, then every instrument
func (s *Service) InputGroups() []sheet.Group {
	groups := []sheet.Group{{Name: record.GeneralGroup, Keys: generalKeys}}
	for _, info := range s.ListInstruments() {
		groups = append(groups, sheet.Group{Name: info.Name, Keys: info.Keys})
	}
	return groups
}

// WriteInputTemplate writes the blank input workbook
func (s *Service) WriteInputTemplate(w io.Writer) error {
	return sheet.WriteTemplate(w, s.InputGroups())
}

// SaveInputTemplate writes the blank input workbook to the output directory
func (s *Service) SaveInputTemplate() (string, error) {
	var buf bytes.Buffer
	if err := s.WriteInputTemplate(&buf); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.outputs.Directory(), config.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return s.writeOutput(InputTemplateName, buf.Bytes())
}

// resolveInstrument accepts an instrument name or a download slug
func (s *Service) resolveInstrument(name string) (string, error) {
	if s.registry.Has(strings.ToUpper(name)) {
		return strings.ToUpper(name), nil
	}
	if byslug, ok := templates.BySlug(name); ok {
		return byslug, nil
	}
	return "", fmt.Errorf("unknown instrument %q", name)
}

// BlankForm returns an instrument's unfilled template and a download name
func (s *Service) BlankForm(name string) (string, []byte, error) {
	inst, err := s.resolveInstrument(name)
	if err != nil {
		return "", nil, err
	}
	data, err := s.templates.Template(inst)
	if err != nil {
		return "", nil, ferrors.WrapResource(templates.FileName(inst), err)
	}
	return templates.FileName(inst), data, nil
}

// TemplateFields lists the widgets of an instrument's blank form
func (s *Service) TemplateFields(name string) (*TemplateFieldsResult, error) {
	inst, data, err := s.BlankForm(name)
	if err != nil {
		return nil, err
	}
	doc, err := forms.Open(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", inst, err)
	}
	return &TemplateFieldsResult{
		Instrument: strings.TrimSuffix(inst, ".pdf"),
		Pages:      doc.PageCount(),
		Fields:     doc.Widgets(),
	}, nil
}

// Config returns the active configuration
func (s *Service) Config() *config.Config { return s.cfg }
