package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestQuoteBelowFreeShippingThreshold(t *testing.T) {
	q := DefaultPolicy().Quote([]Line{{Price: d("1000"), Quantity: 2}})

	assert.True(t, d("2000").Equal(q.ItemsPrice), q.ItemsPrice.String())
	assert.True(t, d("150").Equal(q.TaxPrice), q.TaxPrice.String())
	assert.True(t, d("2500").Equal(q.ShippingPrice), q.ShippingPrice.String())
	assert.True(t, d("4650").Equal(q.TotalPrice), q.TotalPrice.String())
	assert.True(t, ValidTotal(q.ItemsPrice, q.TaxPrice, q.ShippingPrice, q.TotalPrice))
}

func TestQuoteFreeShippingOverThreshold(t *testing.T) {
	q := DefaultPolicy().Quote([]Line{{Price: d("25000.50"), Quantity: 2}})

	assert.True(t, d("50001").Equal(q.ItemsPrice))
	assert.True(t, q.ShippingPrice.IsZero())
	assert.True(t, d("3750.08").Equal(q.TaxPrice), q.TaxPrice.String())
}

func TestQuoteExactlyAtThresholdPaysShipping(t *testing.T) {
	q := DefaultPolicy().Quote([]Line{{Price: d("50000"), Quantity: 1}})
	assert.True(t, d("2500").Equal(q.ShippingPrice))
}

func TestQuoteEmptyCart(t *testing.T) {
	q := DefaultPolicy().Quote(nil)
	assert.True(t, q.TotalPrice.IsZero())
}

func TestValidTotalRejectsMismatch(t *testing.T) {
	assert.False(t, ValidTotal(d("2000"), d("150"), d("2500"), d("4000")))
	assert.True(t, ValidTotal(d("10.10"), d("0.76"), d("0"), d("10.86")))
}

func TestToMinorUnitsRounds(t *testing.T) {
	cases := map[string]int64{
		"4650":     465000,
		"19.99":    1999,
		"10.005":   1001,
		"10.004":   1000,
		"0.015":    2,
		"12345.67": 1234567,
	}
	for in, want := range cases {
		assert.Equal(t, want, ToMinorUnits(d(in)), in)
	}
	assert.True(t, d("19.99").Equal(FromMinorUnits(1999)))
}
