package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoice-studio/internal/domain/entity"
)

func testCatalog() *entity.Catalog {
	return &entity.Catalog{
		Categories: []entity.ServiceCategory{
			{
				Name: "Social Media Management",
				Packages: []entity.ServicePackage{
					{Name: "Starter", MonthlyPrice: 13999},
					{Name: "Pro", MonthlyPrice: 19999},
					{Name: "Enterprise", MonthlyPrice: 29999},
				},
			},
			{
				Name: "Content Creation",
				Packages: []entity.ServicePackage{
					{Name: "Starter", MonthlyPrice: 2099},
					{Name: "Starter", MonthlyPrice: 9999},
				},
			},
		},
	}
}

func TestResolve_EndToEndExample(t *testing.T) {
	p := Resolve(testCatalog(), entity.ServiceSelection{
		Category:           "Social Media Management",
		PackageTier:        "Starter",
		DiscountPercentage: 10,
	})

	require.NotNil(t, p.Package)
	assert.Equal(t, "Starter", p.Package.Name)
	assert.True(t, p.BasePrice.Equal(decimal.NewFromInt(13999)))
	assert.True(t, p.DiscountAmount.Equal(decimal.RequireFromString("1399.9")), "got %s", p.DiscountAmount)
	assert.True(t, p.FinalPrice.Equal(decimal.RequireFromString("12599.1")), "got %s", p.FinalPrice)
	assert.True(t, p.HasDiscount())
}

func TestResolve_UnknownSelectionsResolveToZero(t *testing.T) {
	tests := []struct {
		name      string
		selection entity.ServiceSelection
	}{
		{name: "empty selection", selection: entity.ServiceSelection{}},
		{name: "unknown category", selection: entity.ServiceSelection{Category: "Gardening", PackageTier: "Starter", DiscountPercentage: 10}},
		{name: "unknown tier", selection: entity.ServiceSelection{Category: "Social Media Management", PackageTier: "Platinum"}},
		{name: "tier from another category", selection: entity.ServiceSelection{Category: "Gardening", PackageTier: "Pro", DiscountPercentage: 50}},
		{name: "category without tier", selection: entity.ServiceSelection{Category: "Social Media Management", DiscountPercentage: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Resolve(testCatalog(), tt.selection)

			assert.Nil(t, p.Package)
			assert.True(t, p.BasePrice.IsZero())
			assert.True(t, p.DiscountAmount.IsZero())
			assert.True(t, p.FinalPrice.IsZero())
			assert.False(t, p.HasDiscount())
		})
	}
}

func TestResolve_NilCatalog(t *testing.T) {
	p := Resolve(nil, entity.ServiceSelection{Category: "Social Media Management", PackageTier: "Starter"})

	assert.True(t, p.FinalPrice.IsZero())
}

func TestResolve_FirstMatchingPackageWins(t *testing.T) {
	p := Resolve(testCatalog(), entity.ServiceSelection{Category: "Content Creation", PackageTier: "Starter"})

	assert.True(t, p.BasePrice.Equal(decimal.NewFromInt(2099)))
}

func TestResolve_FinalPriceProperty(t *testing.T) {
	tiers := []string{"Starter", "Pro", "Enterprise"}
	for _, tier := range tiers {
		for d := 0; d <= 100; d++ {
			p := Resolve(testCatalog(), entity.ServiceSelection{
				Category:           "Social Media Management",
				PackageTier:        tier,
				DiscountPercentage: d,
			})

			expected := p.BasePrice.Sub(p.BasePrice.Mul(decimal.NewFromInt(int64(d))).Div(decimal.NewFromInt(100)))
			assert.True(t, p.FinalPrice.Equal(expected), "tier %s discount %d", tier, d)
			assert.True(t, p.FinalPrice.LessThanOrEqual(p.BasePrice), "tier %s discount %d", tier, d)
			assert.False(t, p.FinalPrice.IsNegative())
		}
	}
}

func TestResolve_OutOfRangeDiscountIsClamped(t *testing.T) {
	over := Resolve(testCatalog(), entity.ServiceSelection{Category: "Social Media Management", PackageTier: "Pro", DiscountPercentage: 250})
	under := Resolve(testCatalog(), entity.ServiceSelection{Category: "Social Media Management", PackageTier: "Pro", DiscountPercentage: -5})

	assert.True(t, over.FinalPrice.IsZero())
	assert.True(t, under.FinalPrice.Equal(decimal.NewFromInt(19999)))
}

func TestClampDiscount(t *testing.T) {
	inputs := []int{-1000, -101, -1, 0, 1, 10, 50, 99, 100, 101, 250, 1 << 30}
	for _, d := range inputs {
		c := ClampDiscount(d)

		assert.GreaterOrEqual(t, c, 0, "input %d", d)
		assert.LessOrEqual(t, c, 100, "input %d", d)
		assert.Equal(t, c, ClampDiscount(c), "clamp must be idempotent for %d", d)
	}

	assert.Equal(t, 0, ClampDiscount(-3))
	assert.Equal(t, 100, ClampDiscount(130))
	assert.Equal(t, 42, ClampDiscount(42))
}

func TestParseDiscount(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{input: "", want: 0},
		{input: "abc", want: 0},
		{input: "-", want: 0},
		{input: "10", want: 10},
		{input: " 25", want: 25},
		{input: "+7", want: 7},
		{input: "12.9", want: 12},
		{input: "15%", want: 15},
		{input: "-20", want: 0},
		{input: "150", want: 100},
		{input: "99999999999999999999", want: 100},
		{input: "100", want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseDiscount(tt.input)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ClampDiscount(got))
		})
	}
}
