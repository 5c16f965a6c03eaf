// Package flatten rebuilds filled forms as image-only pages and joins them
package flatten

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// DefaultZoom is the rasterization magnification relative to 72 DPI
const DefaultZoom = 3.0

// Rasterizer renders every page of a PDF to an image
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte, zoom float64) ([]image.Image, error)
}

// FitzRasterizer renders pages with MuPDF
type FitzRasterizer struct{}

// Rasterize renders each page at 72·zoom DPI, annotations included
func (FitzRasterizer) Rasterize(ctx context.Context, pdf []byte, zoom float64) ([]image.Image, error) {
	if zoom <= 0 {
		return nil, fmt.Errorf("invalid zoom %v", zoom)
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for rasterization: %w", err)
	}
	defer doc.Close()

	images := make([]image.Image, 0, doc.NumPage())
	for page := 0; page < doc.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(page, 72*zoom)
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize page %d: %w", page, err)
		}
		images = append(images, img)
	}
	return images, nil
}
