// Package pricing computes order price components and converts amounts for the gateway.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Policy holds the tax and shipping rules applied to a cart.
type Policy struct {
	TaxRate          decimal.Decimal `json:"taxRate"`
	FreeShippingOver decimal.Decimal `json:"freeShippingOver"`
	FlatShipping     decimal.Decimal `json:"flatShipping"`
}

// DefaultPolicy is 7.5% tax, free shipping over 50000, otherwise a 2500 flat fee.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate:          decimal.RequireFromString("0.075"),
		FreeShippingOver: decimal.NewFromInt(50000),
		FlatShipping:     decimal.NewFromInt(2500),
	}
}

// Line is one priced cart line.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Quote is the set of price components stored on an order.
type Quote struct {
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// Subtotal sums price * quantity over lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum.Round(2)
}

// Shipping returns the shipping fee for a subtotal. An empty cart ships for free.
func (p Policy) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsZero() || subtotal.GreaterThan(p.FreeShippingOver) {
		return decimal.Zero
	}
	return p.FlatShipping
}

// Tax returns the tax on a subtotal, rounded to two decimal places.
func (p Policy) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.TaxRate).Round(2)
}

// Quote prices a cart.
func (p Policy) Quote(lines []Line) Quote {
	items := Subtotal(lines)
	tax := p.Tax(items)
	shipping := p.Shipping(items)
	return Quote{
		ItemsPrice:    items,
		TaxPrice:      tax,
		ShippingPrice: shipping,
		TotalPrice:    Total(items, tax, shipping),
	}
}

// Total is items + tax + shipping.
func Total(items, tax, shipping decimal.Decimal) decimal.Decimal {
	return items.Add(tax).Add(shipping).Round(2)
}

// ValidTotal reports whether total equals items + tax + shipping to the cent.
func ValidTotal(items, tax, shipping, total decimal.Decimal) bool {
	return Total(items, tax, shipping).Equal(total.Round(2))
}

// ToMinorUnits converts an amount to the gateway's minor unit (kobo): amount * 100,
// rounded to the nearest integer.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts a minor-unit amount back to the major unit.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred)
}
