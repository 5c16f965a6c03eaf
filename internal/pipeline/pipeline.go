// Package pipeline runs datasets through extraction, validation, scoring,
// rendering and assembly.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	ferrors "github.com/a3tai/assessment-forms/internal/errors"
	"github.com/a3tai/assessment-forms/internal/dataset"
	"github.com/a3tai/assessment-forms/internal/instrument"
	"github.com/a3tai/assessment-forms/internal/logging"
	"github.com/a3tai/assessment-forms/internal/pdf/flatten"
	"github.com/a3tai/assessment-forms/internal/pdf/render"
	"github.com/a3tai/assessment-forms/internal/record"
	"github.com/a3tai/assessment-forms/internal/sheet"
)

// Templates supplies blank forms and the text resources scorers read
type Templates interface {
	instrument.Resources
	Template(instrument string) ([]byte, error)
}

// Catalog resolves instruments and lists them
type Catalog interface {
	dataset.Catalog
	Names() []string
}

// Config controls concurrency and the batch release policy
type Config struct {
	// Workers bounds concurrent instrument rendering within a dataset
	Workers int

	// PartialBatch releases successful documents even when another
	// dataset in the batch failed
	PartialBatch bool

	// Now supplies "today" for age derivation; nil means the wall clock
	Now func() time.Time
}

// Pipeline processes datasets into combined documents
type Pipeline struct {
	cfg       Config
	catalog   Catalog
	templates Templates
	extractor *dataset.Extractor
	renderer  *render.Renderer
	assembler *flatten.Assembler
	logger    *zap.Logger
}

// New creates a pipeline
func New(cfg Config, catalog Catalog, templates Templates, assembler *flatten.Assembler, logger *zap.Logger) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	logger = logging.OrNop(logger)
	return &Pipeline{
		cfg:       cfg,
		catalog:   catalog,
		templates: templates,
		extractor: dataset.NewExtractor(cfg.Now),
		renderer:  render.NewRenderer(logger),
		assembler: assembler,
		logger:    logger,
	}
}

// Dataset is one worksheet to process, identified by its source name. Err
// records why the source could not be read into a table.
type Dataset struct {
	ID    string
	Table *sheet.Table
	Err   error
}

// Outcome is the result of one dataset: a document or the errors that
// prevented it
type Outcome struct {
	Dataset     string              `json:"dataset"`
	Instruments []string            `json:"instruments,omitempty"`
	Document    []byte              `json:"-"`
	Errors      *ferrors.Collection `json:"errors,omitempty"`
}

// OK reports whether the dataset produced a document
func (o Outcome) OK() bool {
	return o.Document != nil && (o.Errors == nil || o.Errors.Empty())
}

// Artifact is a named output document
type Artifact struct {
	Name string
	Data []byte
}

// ErrNoInstruments reports a dataset in which every instrument column is
// blank
func ErrNoInstruments() *ferrors.FormError {
	return ferrors.NewExtraction("No assessment columns with values were found")
}

// BatchResult holds every dataset outcome of one batch, in input order
type BatchResult struct {
	ID       uuid.UUID `json:"id"`
	Outcomes []Outcome `json:"outcomes"`

	partial bool
}

// Failed reports whether any dataset failed
func (b *BatchResult) Failed() bool {
	for _, o := range b.Outcomes {
		if !o.OK() {
			return true
		}
	}
	return false
}

// Errors returns every dataset's errors, in input order
func (b *BatchResult) Errors() []*ferrors.Collection {
	var out []*ferrors.Collection
	for _, o := range b.Outcomes {
		if o.Errors != nil && !o.Errors.Empty() {
			out = append(out, o.Errors)
		}
	}
	return out
}

// Artifacts returns the documents to hand out. Unless partial batches are
// allowed, nothing is released when any dataset failed.
func (b *BatchResult) Artifacts() []Artifact {
	if b.Failed() && !b.partial {
		return nil
	}
	var out []Artifact
	for _, o := range b.Outcomes {
		if o.OK() {
			out = append(out, Artifact{Name: o.Dataset + ".pdf", Data: o.Document})
		}
	}
	return out
}

// ProcessBatch processes datasets one after another
func (p *Pipeline) ProcessBatch(ctx context.Context, datasets []Dataset) *BatchResult {
	result := &BatchResult{ID: uuid.New(), partial: p.cfg.PartialBatch}
	logger := p.logger.With(zap.String("batch_id", result.ID.String()))

	for _, ds := range datasets {
		outcome := p.ProcessDataset(ctx, ds)
		if outcome.OK() {
			logger.Info("dataset processed",
				zap.String("dataset", ds.ID),
				zap.Strings("instruments", outcome.Instruments),
				zap.Int("bytes", len(outcome.Document)),
			)
		} else {
			logger.Warn("dataset failed",
				zap.String("dataset", ds.ID),
				zap.String("summary", outcome.Errors.Summary()),
			)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result
}

// ProcessDataset extracts, validates, scores and renders one dataset into
// a single combined document
func (p *Pipeline) ProcessDataset(ctx context.Context, ds Dataset) Outcome {
	outcome := Outcome{Dataset: ds.ID, Errors: ferrors.NewCollection(ds.ID)}

	master, errs, err := p.Validate(ds)
	if err != nil {
		outcome.Errors.Add(ferrors.As(err, ferrors.KindExtraction))
		return outcome
	}
	if len(errs) > 0 {
		outcome.Errors.Add(errs...)
		return outcome
	}
	outcome.Instruments = master.Names()
	if len(outcome.Instruments) == 0 {
		outcome.Errors.Add(ErrNoInstruments())
		return outcome
	}

	docs, fe := p.renderAll(ctx, master)
	if fe != nil {
		outcome.Errors.Add(fe)
		return outcome
	}

	combined, err := flatten.Concat(docs)
	if err != nil {
		outcome.Errors.Add(ferrors.WrapRender(outcome.Instruments[0], err))
		return outcome
	}
	outcome.Document = combined
	return outcome
}

// Validate extracts a dataset and returns every validation problem. The
// error return is reserved for extraction failures.
func (p *Pipeline) Validate(ds Dataset) (*record.Master, []*ferrors.FormError, error) {
	if ds.Err != nil {
		return nil, nil, ferrors.As(ds.Err, ferrors.KindInput)
	}
	if ds.Table == nil {
		return nil, nil, ferrors.NewExtraction("Dataset '%s' has no worksheet", ds.ID)
	}
	master, err := p.extractor.Extract(ds.Table)
	if err != nil {
		return nil, nil, err
	}
	validated, errs := dataset.Validate(master, p.catalog)
	for _, e := range errs {
		e.WithDataset(ds.ID)
	}
	return validated, errs, nil
}

// Score computes every instrument's result without rendering, stopping at
// the first failure
func (p *Pipeline) Score(master *record.Master) ([]*instrument.Result, *ferrors.FormError) {
	results := make([]*instrument.Result, 0, len(master.Instruments))
	for _, in := range master.Instruments {
		res, err := p.score(master.General, in)
		if err != nil {
			return nil, ferrors.As(err, ferrors.KindScoring)
		}
		results = append(results, res)
	}
	return results, nil
}

func (p *Pipeline) score(general record.General, in record.Instrument) (*instrument.Result, error) {
	scorer, err := p.catalog.Lookup(in.Name)
	if err != nil {
		return nil, ferrors.NewScoring(in.Name, "", "%s", err.Error())
	}
	res, err := scorer.Score(general, in.Answers, p.templates)
	if err != nil {
		fe := ferrors.As(err, ferrors.KindScoring).WithInstrument(in.Name)
		if fe.Kind == ferrors.KindResource {
			return nil, ferrors.WrapRender(in.Name, fe)
		}
		return nil, fe
	}
	return res, nil
}

// renderAll scores and renders every instrument concurrently, keeping
// dataset order. The first failure cancels the rest.
func (p *Pipeline) renderAll(ctx context.Context, master *record.Master) ([][]byte, *ferrors.FormError) {
	docs := make([][]byte, len(master.Instruments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, in := range master.Instruments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := p.renderInstrument(gctx, master.General, in)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, ferrors.As(err, ferrors.KindRender)
	}
	return docs, nil
}

func (p *Pipeline) renderInstrument(ctx context.Context, general record.General, in record.Instrument) ([]byte, error) {
	res, err := p.score(general, in)
	if err != nil {
		return nil, err
	}

	template, err := p.templates.Template(in.Name)
	if err != nil {
		return nil, ferrors.WrapRender(in.Name, ferrors.WrapResource(in.Name, err))
	}

	filled, err := p.renderer.Render(template, general, res)
	if err != nil {
		return nil, ferrors.WrapRender(in.Name, err)
	}

	flat, err := p.assembler.Flatten(ctx, filled)
	if err != nil {
		return nil, ferrors.WrapRender(in.Name, err)
	}
	return flat, nil
}
