package pricing

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

func TestQuoteWorkedExample(t *testing.T) {
	lines := []Line{{UnitPrice: dec("10.00"), Quantity: 2, Weight: decPtr("1")}}
	rate := ShippingRate{BaseCost: dec("5.99"), CostPerKg: dec("1.50")}
	got := Quote(lines, rate, DefaultTaxRate)
	assertMoney(t, "8.99", got.Shipping)
	assertMoney(t, "20.00", got.Subtotal)
	assertMoney(t, "2.00", got.Tax)
	assertMoney(t, "30.99", got.Total)
	assert.True(t, got.TotalWeight.Equal(dec("2")))
}

func TestShippingIgnoresMissingWeight(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("3.00"), Quantity: 4},
		{UnitPrice: dec("1.25"), Quantity: 1, Weight: decPtr("0.2")},
	}
	assert.True(t, TotalWeight(lines).Equal(dec("0.2")))
	assertMoney(t, "5.00", ShippingCost(ShippingRate{BaseCost: dec("5.00")}, TotalWeight(lines)))
	assertMoney(t, "13.25", Subtotal(lines))
}

func TestTaxRoundsHalfUp(t *testing.T) {
	assertMoney(t, "0.13", Tax(dec("1.25"), DefaultTaxRate))
	assertMoney(t, "0.00", Tax(dec("0.04"), DefaultTaxRate))
}

func TestTotalNeverNegative(t *testing.T) {
	assertMoney(t, "0.00", Total(dec("1.00"), decimal.Zero, decimal.Zero, dec("5.00")))
}

func TestEmptyQuote(t *testing.T) {
	got := Quote(nil, ShippingRate{BaseCost: dec("4.00")}, DefaultTaxRate)
	assertMoney(t, "0.00", got.Subtotal)
	assertMoney(t, "4.00", got.Total)
}

func TestQuoteTotalsAreConsistent(t *testing.T) {
	faker := gofakeit.New(42)
	for i := 0; i < 200; i++ {
		var lines []Line
		for n := faker.IntRange(1, 5); n > 0; n-- {
			line := Line{
				UnitPrice: decimal.NewFromFloat(faker.Price(0.5, 500)).Round(2),
				Quantity:  faker.IntRange(1, 10),
			}
			if faker.Bool() {
				line.Weight = decPtr(decimal.NewFromFloat(faker.Float64Range(0.01, 5)).Round(3).String())
			}
			lines = append(lines, line)
		}
		rate := ShippingRate{
			BaseCost:  decimal.NewFromFloat(faker.Price(0, 30)).Round(2),
			CostPerKg: decimal.NewFromFloat(faker.Price(0, 10)).Round(2),
		}

		got := Quote(lines, rate, DefaultTaxRate)

		want := decimal.Zero
		for _, line := range lines {
			want = want.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		assert.True(t, got.Subtotal.Equal(want), "subtotal %s != %s", got.Subtotal, want)
		assert.True(t, got.Total.Equal(got.Subtotal.Add(got.Shipping).Add(got.Tax).Sub(got.Discount)))
		assert.True(t, got.Total.Equal(got.Total.Round(2)))
	}
}
