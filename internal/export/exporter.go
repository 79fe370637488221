// Package export turns an invoice view into downloadable artifacts: a
// single-page PDF built from a rasterized snapshot, or an XLSX summary.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/garyjia/invoice-studio/internal/domain/entity"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Renderer lays a view out on a renderable surface
type Renderer interface {
	Render(view *View) (*Surface, error)
}

// Rasterizer turns a surface into pixels
type Rasterizer interface {
	Rasterize(ctx context.Context, surface *Surface) (image.Image, error)
}

// Assembler places a snapshot on a fixed-size page and returns the document bytes
type Assembler interface {
	Assemble(img image.Image, placement Placement) ([]byte, error)
}

// SpreadsheetWriter produces a tabular rendition of the view
type SpreadsheetWriter interface {
	Write(view *View) ([]byte, error)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Config holds the output page geometry
type Config struct {
	Page   PageSize
	Margin float64
}

// Artifact is one exported file
type Artifact struct {
	FileName    string
	Format      string
	ContentType string
	Content     []byte
}

// Exporter runs the export pipelines
type Exporter struct {
	config     Config
	renderer   Renderer
	rasterizer Rasterizer
	assembler  Assembler
	workbook   SpreadsheetWriter
	logger     Logger
}

// Option configures the exporter
type Option func(*Exporter)

// WithLogger sets the exporter logger
func WithLogger(logger Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// NewExporter creates an exporter
func NewExporter(config Config, renderer Renderer, rasterizer Rasterizer, assembler Assembler, workbook SpreadsheetWriter, opts ...Option) *Exporter {
	e := &Exporter{
		config:     config,
		renderer:   renderer,
		rasterizer: rasterizer,
		assembler:  assembler,
		workbook:   workbook,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExportPDF renders the view, rasterizes it, fits the snapshot to one page
// and assembles the PDF. ErrNothingToRender is returned unwrapped when there
// is no content; every other failure wraps ErrExportFailed.
func (e *Exporter) ExportPDF(ctx context.Context, view *View) (*Artifact, error) {
	if view == nil {
		return nil, ErrNothingToRender
	}

	surface, err := e.renderer.Render(view)
	if err != nil {
		return nil, e.fail("render", view, err)
	}
	if surface == nil || len(surface.PDF) == 0 {
		return nil, ErrNothingToRender
	}

	img, err := e.rasterizer.Rasterize(ctx, surface)
	if err != nil {
		return nil, e.fail("rasterize", view, err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNothingToRender
	}

	bounds := img.Bounds()
	placement, err := FitToPage(bounds.Dx(), bounds.Dy(), e.config.Page, e.config.Margin)
	if err != nil {
		return nil, e.fail("fit", view, err)
	}

	content, err := e.assembler.Assemble(img, placement)
	if err != nil {
		return nil, e.fail("assemble", view, err)
	}

	if e.logger != nil {
		e.logger.Info("Invoice PDF exported",
			"invoice_number", view.InvoiceNumber,
			"snapshot_width", bounds.Dx(),
			"snapshot_height", bounds.Dy(),
			"size", len(content),
		)
	}

	return &Artifact{
		FileName:    FileName(view.InvoiceNumber, view.Client.Name),
		Format:      entity.ExportFormatPDF,
		ContentType: ContentTypePDF,
		Content:     content,
	}, nil
}

// ExportXLSX writes the workbook summary
func (e *Exporter) ExportXLSX(ctx context.Context, view *View) (*Artifact, error) {
	if view == nil {
		return nil, ErrNothingToRender
	}
	if err := ctx.Err(); err != nil {
		return nil, e.fail("workbook", view, err)
	}

	content, err := e.workbook.Write(view)
	if err != nil {
		return nil, e.fail("workbook", view, err)
	}

	return &Artifact{
		FileName:    WorkbookFileName(view.InvoiceNumber, view.Client.Name),
		Format:      entity.ExportFormatXLSX,
		ContentType: ContentTypeXLSX,
		Content:     content,
	}, nil
}

func (e *Exporter) fail(stage string, view *View, err error) error {
	if errors.Is(err, ErrNothingToRender) {
		return ErrNothingToRender
	}
	if e.logger != nil {
		e.logger.Error("Export failed",
			"stage", stage,
			"invoice_number", view.InvoiceNumber,
			"error", err,
		)
	}
	return fmt.Errorf("%w: %s: %w", ErrExportFailed, stage, err)
}
