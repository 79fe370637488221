package export

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI renders the surface at twice its point size
const DefaultDPI = 144.0

// FitzRasterizer turns a preview surface into pixels with MuPDF
type FitzRasterizer struct {
	dpi float64
}

// NewFitzRasterizer creates a rasterizer; dpi <= 0 selects DefaultDPI
func NewFitzRasterizer(dpi float64) *FitzRasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &FitzRasterizer{dpi: dpi}
}

// Rasterize renders the first page of the surface
func (r *FitzRasterizer) Rasterize(ctx context.Context, surface *Surface) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if surface == nil || len(surface.PDF) == 0 {
		return nil, ErrNothingToRender
	}

	doc, err := fitz.NewFromMemory(surface.PDF)
	if err != nil {
		return nil, fmt.Errorf("failed to open preview surface: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, ErrNothingToRender
	}

	img, err := doc.ImageDPI(0, r.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize preview surface: %w", err)
	}
	return img, nil
}
