package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/jung-kurt/gofpdf"
)

const snapshotImage = "invoice-snapshot"

// PageAssembler places a snapshot on a single fixed-size page
type PageAssembler struct {
	page PageSize
}

// NewPageAssembler creates an assembler for the given page size
func NewPageAssembler(page PageSize) *PageAssembler {
	return &PageAssembler{page: page}
}

// Assemble encodes the snapshot losslessly and draws it at the placement
func (a *PageAssembler) Assemble(img image.Image, placement Placement) ([]byte, error) {
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: a.page.Width, Ht: a.page.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(snapshotImage, opts, &encoded)
	pdf.ImageOptions(snapshotImage, placement.X, placement.Y, placement.Width, placement.Height, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to assemble document: %w", err)
	}
	return out.Bytes(), nil
}
