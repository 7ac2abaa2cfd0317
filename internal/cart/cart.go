// Package cart holds the client-side cart and wishlist. Both are ordered lists
// with at most one entry per product, persisted through a key/value Storage.
package cart

import (
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/pricing"
)

// Cart is an ordered list of line items keyed by product id.
type Cart struct {
	items []models.CartItem
}

// NewCart returns a cart holding items, merging duplicates.
func NewCart(items ...models.CartItem) *Cart {
	c := &Cart{}
	for _, item := range items {
		c.Add(item)
	}
	return c
}

func (c *Cart) index(productID int64) int {
	for i, item := range c.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add appends item, or adds its quantity to the existing line for the same
// product. A non-positive quantity counts as 1.
func (c *Cart) Add(item models.CartItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if i := c.index(item.ProductID); i >= 0 {
		c.items[i].Quantity += item.Quantity
		return
	}
	c.items = append(c.items, item)
}

// SetQuantity replaces a line's quantity; zero or less removes the line.
// It reports whether the product was in the cart.
func (c *Cart) SetQuantity(productID int64, quantity int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if quantity < 1 {
		c.items = append(c.items[:i], c.items[i+1:]...)
		return true
	}
	c.items[i].Quantity = quantity
	return true
}

// Remove drops the line for productID and reports whether it existed.
func (c *Cart) Remove(productID int64) bool {
	return c.SetQuantity(productID, 0)
}

func (c *Cart) Clear() { c.items = nil }

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []models.CartItem {
	return append([]models.CartItem(nil), c.items...)
}

// Quote prices the cart under policy.
func (c *Cart) Quote(policy pricing.Policy) pricing.Quote {
	lines := make([]pricing.Line, 0, len(c.items))
	for _, item := range c.items {
		lines = append(lines, pricing.Line{Price: item.Price, Quantity: item.Quantity})
	}
	return policy.Quote(lines)
}

// OrderItems snapshots the cart lines for an order request.
func (c *Cart) OrderItems() []models.OrderItem {
	out := make([]models.OrderItem, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}
	return out
}

// Wishlist is an ordered set of products. Quantity is not tracked.
type Wishlist struct {
	items []models.CartItem
}

func NewWishlist(items ...models.CartItem) *Wishlist {
	w := &Wishlist{}
	for _, item := range items {
		w.Add(item)
	}
	return w
}

// Add appends item unless the product is already listed, and reports whether
// it was added.
func (w *Wishlist) Add(item models.CartItem) bool {
	if w.Contains(item.ProductID) {
		return false
	}
	item.Quantity = 1
	w.items = append(w.items, item)
	return true
}

func (w *Wishlist) Contains(productID int64) bool {
	for _, item := range w.items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

func (w *Wishlist) Remove(productID int64) bool {
	for i, item := range w.items {
		if item.ProductID == productID {
			w.items = append(w.items[:i], w.items[i+1:]...)
			return true
		}
	}
	return false
}

func (w *Wishlist) Len() int { return len(w.items) }

func (w *Wishlist) Items() []models.CartItem {
	return append([]models.CartItem(nil), w.items...)
}
