// Package format renders invoice values for display using Indian conventions.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/garyjia/invoice-studio/internal/domain/entity"
)

// RupeeSymbol prefixes every formatted amount
const RupeeSymbol = "₹"

const longDateLayout = "2 January 2006"

// en-IN groups the last three digits, then pairs: 12,34,567
var indianEnglish = language.MustParse("en-IN")

// Currency formats an amount in whole rupees with Indian digit grouping.
// Fractions are rounded half away from zero: 1399.5 -> ₹1,400.
func Currency(amount decimal.Decimal) string {
	rounded := amount.Round(0)

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(RupeeSymbol)
	b.WriteString(message.NewPrinter(indianEnglish).Sprint(number.Decimal(rounded.Abs().IntPart())))
	return b.String()
}

// CurrencyInt formats a whole-rupee amount
func CurrencyInt(amount int64) string {
	return Currency(decimal.NewFromInt(amount))
}

// Date renders a YYYY-MM-DD date as "25 March 2025". Empty or unparseable
// input yields an empty string.
func Date(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(entity.DateLayout, value)
	if err != nil {
		return ""
	}
	return t.Format(longDateLayout)
}

// PaymentTerms returns the display text for a terms code, or "" when unknown
func PaymentTerms(code string) string {
	switch code {
	case entity.PaymentTerms15:
		return "Net 15 - Payment due within 15 days"
	case entity.PaymentTerms30:
		return "Net 30 - Payment due within 30 days"
	case entity.PaymentTerms60:
		return "Net 60 - Payment due within 60 days"
	case entity.PaymentTerms365:
		return "Net 365 - Payment due within 365 days"
	case entity.PaymentTermsImmediate:
		return "Due on Receipt"
	default:
		return ""
	}
}

// PaymentMethod returns the display label for a payment method code.
// Unknown codes are shown upper-cased.
func PaymentMethod(code string) string {
	switch code {
	case entity.PaymentMethodBankTransfer:
		return "Bank Transfer"
	case entity.PaymentMethodUPI:
		return "UPI"
	case entity.PaymentMethodCash:
		return "Cash"
	default:
		return strings.ToUpper(code)
	}
}
