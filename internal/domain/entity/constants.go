package entity

// Payment terms codes accepted by the terms selector
const (
	PaymentTerms15        = "15"
	PaymentTerms30        = "30"
	PaymentTerms60        = "60"
	PaymentTerms365       = "365"
	PaymentTermsImmediate = "immediate"
)

// Payment method codes
const (
	PaymentMethodBankTransfer = "bankTransfer"
	PaymentMethodUPI          = "upi"
	PaymentMethodCash         = "cash"
)

// Export formats
const (
	ExportFormatPDF  = "pdf"
	ExportFormatXLSX = "xlsx"
)

// DefaultDueDays is the distance between the default invoice and due dates
const DefaultDueDays = 30

// DateLayout is the wire format of InvoiceDetails dates
const DateLayout = "2006-01-02"

// PaymentTermsCodes lists accepted terms codes in selector order
func PaymentTermsCodes() []string {
	return []string{PaymentTerms15, PaymentTerms30, PaymentTerms60, PaymentTerms365, PaymentTermsImmediate}
}

// PaymentMethodCodes lists accepted payment method codes in selector order
func PaymentMethodCodes() []string {
	return []string{PaymentMethodBankTransfer, PaymentMethodUPI, PaymentMethodCash}
}
