package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	workbookSheet = "Invoice"
	moneyFormat   = `"₹"#,##0.00`
)

// WorkbookWriter produces an XLSX summary of the invoice
type WorkbookWriter struct{}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter() *WorkbookWriter {
	return &WorkbookWriter{}
}

// Write builds the workbook in memory
func (w *WorkbookWriter) Write(view *View) ([]byte, error) {
	if view == nil {
		return nil, ErrNothingToRender
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", workbookSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	format := moneyFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	total, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &format})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	s := &sheetWriter{f: f}
	s.row(bold, "INVOICE")
	s.row(0, "Invoice #", view.InvoiceNumber)
	s.row(0, "Date", view.InvoiceDate)
	s.row(0, "Due Date", view.DueDate)
	s.skip()

	s.row(bold, "From", view.Freelancer.Name)
	s.row(0, "", view.Freelancer.Email)
	s.row(0, "", view.Freelancer.Phone)
	s.row(0, "", view.Freelancer.Address)
	s.skip()

	s.row(bold, "Billed To", view.Client.Name)
	s.row(0, "", view.Client.Email)
	s.row(0, "", view.Client.Phone)
	s.row(0, "", view.Client.Address)
	s.skip()

	s.row(bold, "Service", "Description", "Quantity")
	for _, item := range view.Services {
		s.row(0, item.Name, item.Description, item.Quantity)
	}
	s.skip()

	p := view.Pricing
	s.amount(money, "Subtotal", p.BasePrice.InexactFloat64())
	if p.HasDiscount() {
		s.amount(money, fmt.Sprintf("Discount (%d%%)", view.DiscountPercentage), -p.DiscountAmount.InexactFloat64())
	}
	s.amount(total, "Total", p.FinalPrice.InexactFloat64())
	s.skip()

	if view.Notes != "" {
		s.row(0, "Notes", view.Notes)
	}
	s.row(0, "Payment Terms", view.PaymentTerms)
	s.row(0, "Payment Method", view.PaymentMethod)

	if s.err != nil {
		return nil, fmt.Errorf("failed to fill workbook: %w", s.err)
	}

	for col, width := range map[string]float64{"A": 24, "B": 48, "C": 16} {
		if err := f.SetColWidth(workbookSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter appends rows and keeps the first error
type sheetWriter struct {
	f   *excelize.File
	n   int
	err error
}

func (s *sheetWriter) skip() {
	s.n++
}

func (s *sheetWriter) row(style int, values ...interface{}) {
	if s.err != nil {
		return
	}
	s.n++
	start, err := excelize.CoordinatesToCellName(1, s.n)
	if err != nil {
		s.err = err
		return
	}
	if err := s.f.SetSheetRow(workbookSheet, start, &values); err != nil {
		s.err = err
		return
	}
	if style != 0 {
		s.err = s.f.SetCellStyle(workbookSheet, start, start, style)
	}
}

// amount writes a label in B and a number in C
func (s *sheetWriter) amount(style int, label string, value float64) {
	s.row(0, "", label, value)
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(3, s.n)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStyle(workbookSheet, cell, cell, style)
}
