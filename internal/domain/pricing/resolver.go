// Package pricing derives invoice amounts from the catalog and a service selection.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/garyjia/invoice-studio/internal/domain/entity"
)

const (
	MinDiscount = 0
	MaxDiscount = 100
)

var hundred = decimal.NewFromInt(100)

// Pricing holds the derived amounts for one selection. Amounts are exact;
// rounding happens only when they are formatted for display.
type Pricing struct {
	BasePrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalPrice     decimal.Decimal

	// Package is the resolved catalog package, nil when nothing matched
	Package *entity.ServicePackage
}

// HasDiscount reports whether a non-zero discount applies
func (p Pricing) HasDiscount() bool {
	return p.DiscountAmount.IsPositive()
}

// Resolve looks up the selected package and computes base, discount and final price.
// Unknown categories, unknown tiers and empty selections all resolve to zero.
func Resolve(catalog *entity.Catalog, selection entity.ServiceSelection) Pricing {
	pkg, ok := catalog.FindPackage(selection.Category, selection.PackageTier)
	if !ok {
		return Pricing{
			BasePrice:      decimal.Zero,
			DiscountAmount: decimal.Zero,
			FinalPrice:     decimal.Zero,
		}
	}

	base := decimal.NewFromInt(pkg.MonthlyPrice)
	pct := decimal.NewFromInt(int64(ClampDiscount(selection.DiscountPercentage)))
	discount := base.Mul(pct).Div(hundred)

	return Pricing{
		BasePrice:      base,
		DiscountAmount: discount,
		FinalPrice:     base.Sub(discount),
		Package:        pkg,
	}
}

// ClampDiscount bounds a discount percentage to [0, 100]
func ClampDiscount(pct int) int {
	if pct < MinDiscount {
		return MinDiscount
	}
	if pct > MaxDiscount {
		return MaxDiscount
	}
	return pct
}

// ParseDiscount reads a discount typed into a form field. Leading
// whitespace and a sign are accepted, digits are read up to the first
// non-digit, and input with no leading digits yields 0. The result is clamped.
func ParseDiscount(input string) int {
	i := 0
	for i < len(input) && (input[i] == ' ' || input[i] == '\t' || input[i] == '\n' || input[i] == '\r') {
		i++
	}

	negative := false
	if i < len(input) && (input[i] == '+' || input[i] == '-') {
		negative = input[i] == '-'
		i++
	}

	value := 0
	digits := 0
	for ; i < len(input) && input[i] >= '0' && input[i] <= '9'; i++ {
		// Anything past three digits is already out of range
		if value <= MaxDiscount {
			value = value*10 + int(input[i]-'0')
		}
		digits++
	}

	if digits == 0 {
		return 0
	}
	if negative {
		value = -value
	}
	return ClampDiscount(value)
}
