package models

import "github.com/shopspring/decimal"

// CartItem is one client-held cart or wishlist entry, keyed by ProductID.
type CartItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}
