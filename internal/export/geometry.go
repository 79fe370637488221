package export

import (
	"fmt"
	"strings"
)

// PageSize is a page's dimensions in points
type PageSize struct {
	Width  float64
	Height float64
}

var (
	PageA4     = PageSize{Width: 595.28, Height: 841.89}
	PageLetter = PageSize{Width: 612, Height: 792}
	PageLegal  = PageSize{Width: 612, Height: 1008}
)

// ParsePageSize resolves a page size name such as "A4" or "Letter"
func ParsePageSize(name string) (PageSize, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a4":
		return PageA4, nil
	case "letter":
		return PageLetter, nil
	case "legal":
		return PageLegal, nil
	default:
		return PageSize{}, fmt.Errorf("unknown page size: %s", name)
	}
}

// Placement is where the snapshot lands on the page, in points
type Placement struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// FitToPage scales a w x h pixel snapshot into the page area inside a uniform
// margin, keeping the aspect ratio. The width is filled first; when that makes
// the image too tall it is shrunk to the available height instead. The result
// always sits at (margin, margin) on one page.
func FitToPage(w, h int, page PageSize, margin float64) (Placement, error) {
	if w <= 0 || h <= 0 {
		return Placement{}, ErrNothingToRender
	}

	availableWidth := page.Width - 2*margin
	availableHeight := page.Height - 2*margin
	if availableWidth <= 0 || availableHeight <= 0 {
		return Placement{}, fmt.Errorf("margin %.2f leaves no room on a %.2fx%.2f page", margin, page.Width, page.Height)
	}

	ratio := float64(w) / float64(h)
	imgWidth := availableWidth
	imgHeight := imgWidth / ratio

	if imgHeight > availableHeight {
		imgHeight = availableHeight
		imgWidth = imgHeight * ratio
	}

	return Placement{
		X:      margin,
		Y:      margin,
		Width:  imgWidth,
		Height: imgHeight,
	}, nil
}
