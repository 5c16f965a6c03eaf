package flatten

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/a3tai/assessment-forms/internal/logging"
	"github.com/a3tai/assessment-forms/internal/pdf/forms"
)

// Assembler turns filled forms into the final combined document
type Assembler struct {
	rasterizer Rasterizer
	zoom       float64
	enabled    bool
	logger     *zap.Logger
}

// Option configures an Assembler
type Option func(*Assembler)

// WithZoom sets the rasterization magnification
func WithZoom(zoom float64) Option {
	return func(a *Assembler) { a.zoom = zoom }
}

// WithFlatten turns rasterization on or off; when off, interactive
// documents are concatenated as they are.
func WithFlatten(enabled bool) Option {
	return func(a *Assembler) { a.enabled = enabled }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *Assembler) { a.logger = logging.OrNop(logger) }
}

// NewAssembler creates an assembler using rasterizer for flattening
func NewAssembler(rasterizer Rasterizer, opts ...Option) *Assembler {
	a := &Assembler{
		rasterizer: rasterizer,
		zoom:       DefaultZoom,
		enabled:    true,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Flatten rebuilds a document with one image page per source page. Each
// page is exactly as large as its image.
func (a *Assembler) Flatten(ctx context.Context, pdf []byte) ([]byte, error) {
	if !a.enabled {
		return pdf, nil
	}

	images, err := a.rasterizer.Rasterize(ctx, pdf, a.zoom)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("document has no pages to flatten")
	}

	pages := make([][]byte, 0, len(images))
	for i, img := range images {
		page, err := imagePage(img)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild page %d: %w", i, err)
		}
		pages = append(pages, page)
	}

	a.logger.Debug("flattened document", zap.Int("pages", len(pages)), zap.Float64("zoom", a.zoom))
	if len(pages) == 1 {
		return pages[0], nil
	}
	return Concat(pages)
}

// imagePage builds a single-page PDF sized to the image
func imagePage(img image.Image) ([]byte, error) {
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return nil, fmt.Errorf("failed to encode page image: %w", err)
	}

	b := img.Bounds()
	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{Width: float64(b.Dx()), Height: float64(b.Dy())}
	imp.UserDim = true
	imp.Pos = types.Full

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, []io.Reader{&encoded}, imp, forms.Configuration()); err != nil {
		return nil, fmt.Errorf("failed to import page image: %w", err)
	}
	return out.Bytes(), nil
}

// Concat joins documents in order
func Concat(docs [][]byte) ([]byte, error) {
	switch len(docs) {
	case 0:
		return nil, fmt.Errorf("nothing to concatenate")
	case 1:
		return docs[0], nil
	}

	readers := make([]io.ReadSeeker, len(docs))
	for i, d := range docs {
		readers[i] = bytes.NewReader(d)
	}
	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, forms.Configuration()); err != nil {
		return nil, fmt.Errorf("failed to merge documents: %w", err)
	}
	return out.Bytes(), nil
}
