package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/garyjia/invoice-studio/internal/domain/format"
)

// Surface is the laid-out invoice as a single-page PDF, sized to its content.
// Content taller than the surface limit is drawn scaled down by Scale.
type Surface struct {
	PDF    []byte
	Width  float64
	Height float64
	Scale  float64
}

// RendererConfig controls the preview surface
type RendererConfig struct {
	// Width of the surface in points; defaults to the A4 width
	Width float64

	// FontPath is an optional UTF-8 TrueType font. Without it the core PDF
	// fonts are used and the rupee sign is written as "Rs."
	FontPath string

	// SignaturePath is an optional PNG or JPEG drawn above the footer
	SignaturePath string
}

const (
	surfacePadding   = 32.0
	maxSurfaceHeight = 14400.0
	measureHeight    = 1e6
	unicodeFamily    = "invoice"
	coreFamily       = "Helvetica"
	signatureHeight  = 60.0
)

type rgb struct{ r, g, b int }

var (
	colorText   = rgb{17, 24, 39}
	colorMuted  = rgb{75, 85, 99}
	colorAccent = rgb{67, 56, 202}
	colorFill   = rgb{243, 244, 246}
	colorRule   = rgb{209, 213, 219}
	colorLight  = rgb{229, 231, 235}
)

// PreviewRenderer lays the invoice out with gofpdf on one tall page
type PreviewRenderer struct {
	config RendererConfig
}

// NewPreviewRenderer creates a renderer
func NewPreviewRenderer(config RendererConfig) *PreviewRenderer {
	if config.Width <= 0 {
		config.Width = PageA4.Width
	}
	return &PreviewRenderer{config: config}
}

// Render draws the view twice: once on an oversized page to measure the
// content, then on a page exactly as tall as the content. Content taller
// than maxSurfaceHeight is scaled uniformly to fit, never cut off.
func (r *PreviewRenderer) Render(view *View) (*Surface, error) {
	if view == nil {
		return nil, ErrNothingToRender
	}

	height, err := r.measure(view)
	if err != nil {
		return nil, err
	}

	width, scale := r.config.Width, 1.0
	if height > maxSurfaceHeight {
		scale = maxSurfaceHeight / height
		width, height = width*scale, maxSurfaceHeight
	}

	canvas, err := r.newCanvas(width, height)
	if err != nil {
		return nil, err
	}
	if scale < 1 {
		canvas.pdf.TransformBegin()
		canvas.pdf.TransformScale(scale*100, scale*100, 0, 0)
	}
	canvas.layout(view, r.config.SignaturePath)
	if scale < 1 {
		canvas.pdf.TransformEnd()
	}

	var buf bytes.Buffer
	if err := canvas.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write preview surface: %w", err)
	}

	return &Surface{
		PDF:    buf.Bytes(),
		Width:  width,
		Height: height,
		Scale:  scale,
	}, nil
}

// measure lays the view out at full size on an unbounded page and returns
// the content height
func (r *PreviewRenderer) measure(view *View) (float64, error) {
	c, err := r.newCanvas(r.config.Width, measureHeight)
	if err != nil {
		return 0, err
	}
	height := c.layout(view, r.config.SignaturePath) + surfacePadding
	if err := c.pdf.Error(); err != nil {
		return 0, fmt.Errorf("failed to lay out invoice: %w", err)
	}
	return height, nil
}

type canvas struct {
	pdf    *gofpdf.Fpdf
	family string
	text   func(string) string
	width  float64
}

// newCanvas prepares a page of the given size. The layout always works in
// full-width coordinates; a narrower page is drawn through a scale transform.
func (r *PreviewRenderer) newCanvas(width, height float64) (*canvas, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(surfacePadding, surfacePadding, surfacePadding)
	pdf.SetAutoPageBreak(false, 0)

	c := &canvas{pdf: pdf, family: coreFamily, width: r.config.Width}
	if r.config.FontPath != "" {
		pdf.AddUTF8Font(unicodeFamily, "", r.config.FontPath)
		pdf.AddUTF8Font(unicodeFamily, "B", r.config.FontPath)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to load font %s: %w", r.config.FontPath, err)
		}
		c.family = unicodeFamily
		c.text = func(s string) string { return s }
	} else {
		cp1252 := pdf.UnicodeTranslatorFromDescriptor("")
		c.text = func(s string) string {
			return cp1252(strings.ReplaceAll(s, format.RupeeSymbol, "Rs."))
		}
	}

	pdf.AddPage()
	return c, nil
}

// layout draws every section and returns the y position below the last one
func (c *canvas) layout(v *View, signaturePath string) float64 {
	pdf := c.pdf
	left := surfacePadding
	contentWidth := c.width - 2*surfacePadding
	half := contentWidth / 2

	// Header: freelancer on the left, invoice metadata on the right
	top := surfacePadding
	pdf.SetXY(left, top)
	c.font("B", 18, colorText)
	c.line(half, 22, v.Freelancer.Name, "L")
	c.font("", 10, colorMuted)
	c.line(half, 14, v.Freelancer.Email, "L")
	c.line(half, 14, v.Freelancer.Phone, "L")
	c.para(half, 14, v.Freelancer.Address, "L")
	leftBottom := pdf.GetY()

	pdf.SetXY(left+half, top)
	c.font("B", 24, colorAccent)
	c.line(half, 30, "INVOICE", "R")
	c.font("", 10, colorMuted)
	c.line(half, 14, "Invoice #: "+v.InvoiceNumber, "R")
	c.line(half, 14, "Date: "+v.InvoiceDate, "R")
	c.line(half, 14, "Due Date: "+v.DueDate, "R")

	pdf.SetY(max(leftBottom, pdf.GetY()) + 36)

	// Billed to
	c.font("", 10, colorMuted)
	c.line(contentWidth, 14, "Billed To:", "L")
	c.font("B", 13, colorText)
	c.line(contentWidth, 18, v.Client.Name, "L")
	c.font("", 10, colorMuted)
	c.line(contentWidth, 14, v.Client.Email, "L")
	c.line(contentWidth, 14, v.Client.Phone, "L")
	c.para(contentWidth, 14, v.Client.Address, "L")
	pdf.SetY(pdf.GetY() + 28)

	c.servicesTable(v, left, contentWidth)

	if v.Notes != "" {
		c.font("B", 11, colorText)
		c.line(contentWidth, 16, "Notes:", "L")
		y := pdf.GetY()
		c.font("", 10, colorMuted)
		pdf.SetX(left + 12)
		c.para(contentWidth-12, 14, v.Notes, "L")
		pdf.SetDrawColor(colorLight.r, colorLight.g, colorLight.b)
		pdf.SetLineWidth(3)
		pdf.Line(left+1.5, y, left+1.5, pdf.GetY())
		pdf.SetY(pdf.GetY() + 20)
	}

	c.font("B", 11, colorText)
	c.line(contentWidth, 16, "Payment Terms:", "L")
	c.font("", 10, colorMuted)
	c.line(contentWidth, 14, v.PaymentTerms, "L")
	pdf.SetY(pdf.GetY() + 20)

	c.font("B", 11, colorText)
	c.line(contentWidth, 16, "Payment Method:", "L")
	c.font("", 10, colorMuted)
	c.line(contentWidth, 14, v.PaymentMethod, "L")
	pdf.SetY(pdf.GetY() + 20)

	if signaturePath != "" {
		c.signature(signaturePath, left+contentWidth)
	}

	// Footer
	y := pdf.GetY() + 32
	pdf.SetDrawColor(colorLight.r, colorLight.g, colorLight.b)
	pdf.SetLineWidth(2)
	pdf.Line(left, y, left+contentWidth, y)
	pdf.SetXY(left, y+24)
	c.font("", 9, colorMuted)
	c.line(contentWidth, 13, v.Footer, "C")
	c.line(contentWidth, 13, v.FooterContact(), "C")

	return pdf.GetY()
}

func (c *canvas) servicesTable(v *View, left, width float64) {
	pdf := c.pdf
	cols := []float64{width * 0.3, width * 0.5, width * 0.2}
	const pad = 8.0
	const lineHeight = 13.0

	// Header row
	c.font("B", 10, colorText)
	pdf.SetFillColor(colorFill.r, colorFill.g, colorFill.b)
	pdf.SetX(left)
	pdf.CellFormat(cols[0], 28, c.text("Service"), "", 0, "LM", true, 0, "")
	pdf.CellFormat(cols[1], 28, c.text("Description"), "", 0, "LM", true, 0, "")
	pdf.CellFormat(cols[2], 28, c.text("Quantity"), "", 1, "RM", true, 0, "")
	pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	pdf.SetLineWidth(2)
	pdf.Line(left, pdf.GetY(), left+width, pdf.GetY())

	// Service rows
	c.font("", 10, colorText)
	for _, item := range v.Services {
		names := pdf.SplitLines([]byte(c.text(item.Name)), cols[0]-2*pad)
		descs := pdf.SplitLines([]byte(c.text(item.Description)), cols[1]-2*pad)
		lines := max(len(names), len(descs), 1)
		rowHeight := float64(lines)*lineHeight + 2*pad

		y := pdf.GetY()
		for i, text := range names {
			pdf.SetXY(left+pad, y+pad+float64(i)*lineHeight)
			pdf.CellFormat(cols[0]-2*pad, lineHeight, string(text), "", 0, "L", false, 0, "")
		}
		for i, text := range descs {
			pdf.SetXY(left+cols[0]+pad, y+pad+float64(i)*lineHeight)
			pdf.CellFormat(cols[1]-2*pad, lineHeight, string(text), "", 0, "L", false, 0, "")
		}
		pdf.SetXY(left+cols[0]+cols[1]+pad, y+pad)
		pdf.CellFormat(cols[2]-2*pad, lineHeight, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")

		pdf.SetDrawColor(colorLight.r, colorLight.g, colorLight.b)
		pdf.SetLineWidth(1)
		pdf.Line(left, y+rowHeight, left+width, y+rowHeight)
		pdf.SetY(y + rowHeight)
	}

	// Totals
	labelWidth := cols[0] + cols[1]
	pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	pdf.SetLineWidth(1)
	pdf.Line(left, pdf.GetY(), left+width, pdf.GetY())
	pdf.SetY(pdf.GetY() + 12)

	c.totalRow(left, labelWidth, cols[2], "Subtotal:", v.Subtotal, false)
	if v.Discount != "" {
		c.totalRow(left, labelWidth, cols[2], fmt.Sprintf("Discount (%d%%):", v.DiscountPercentage), v.Discount, false)
	}
	c.totalRow(left, labelWidth, cols[2], "Total:", v.Total, true)

	pdf.SetY(pdf.GetY() + 36)
}

func (c *canvas) totalRow(left, labelWidth, valueWidth float64, label, value string, emphasis bool) {
	labelColor, valueColor, valueStyle := colorMuted, colorText, ""
	if emphasis {
		labelColor, valueColor, valueStyle = colorText, colorAccent, "B"
	}

	c.pdf.SetX(left)
	c.font("B", 10, labelColor)
	c.pdf.CellFormat(labelWidth, 18, c.text(label), "", 0, "R", false, 0, "")
	c.font(valueStyle, 10, valueColor)
	c.pdf.CellFormat(valueWidth, 18, c.text(value), "", 1, "R", false, 0, "")
}

func (c *canvas) signature(path string, right float64) {
	pdf := c.pdf
	opts := gofpdf.ImageOptions{ReadDpi: true}
	info := pdf.RegisterImageOptions(path, opts)
	if info == nil || info.Height() == 0 {
		return
	}
	width := signatureHeight * info.Width() / info.Height()
	y := pdf.GetY() + 12
	pdf.ImageOptions(path, right-width, y, width, signatureHeight, false, opts, 0, "")
	pdf.SetY(y + signatureHeight)
}

func (c *canvas) font(style string, size float64, color rgb) {
	c.pdf.SetFont(c.family, style, size)
	c.pdf.SetTextColor(color.r, color.g, color.b)
}

// line writes one cell and moves below it; empty text takes no space
func (c *canvas) line(w, h float64, text, align string) {
	if text == "" {
		return
	}
	c.pdf.CellFormat(w, h, c.text(text), "", 2, align, false, 0, "")
}

// para writes wrapped, possibly multi-line text
func (c *canvas) para(w, h float64, text, align string) {
	if text == "" {
		return
	}
	c.pdf.MultiCell(w, h, c.text(text), "", align, false)
}
