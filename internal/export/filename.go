package export

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// FileName derives the PDF name: Invoice_{number}_{client}.pdf, where runs of
// whitespace in the client name become a single underscore
func FileName(invoiceNumber, clientName string) string {
	return baseName(invoiceNumber, clientName) + ".pdf"
}

// WorkbookFileName is FileName with an .xlsx extension
func WorkbookFileName(invoiceNumber, clientName string) string {
	return baseName(invoiceNumber, clientName) + ".xlsx"
}

func baseName(invoiceNumber, clientName string) string {
	client := whitespaceRun.ReplaceAllString(clientName, "_")
	return "Invoice_" + stripUnsafe(invoiceNumber) + "_" + stripUnsafe(client)
}

// stripUnsafe drops path separators and control characters
func stripUnsafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
