package cart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/pricing"
)

func kettle(qty int) models.CartItem {
	return models.CartItem{ProductID: 7, Name: "Kettle", Price: decimal.NewFromInt(1000), Image: "/k.png", Quantity: qty}
}

func TestCartAddAccumulates(t *testing.T) {
	c := NewCart()
	c.Add(kettle(1))
	c.Add(kettle(1))

	require.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Items()[0].Quantity)
}

func TestCartKeepsInsertionOrder(t *testing.T) {
	c := NewCart(
		models.CartItem{ProductID: 3, Quantity: 1},
		models.CartItem{ProductID: 1, Quantity: 1},
		models.CartItem{ProductID: 3, Quantity: 0},
	)
	items := c.Items()
	require.Len(t, items, 2)
	assert.EqualValues(t, 3, items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.EqualValues(t, 1, items[1].ProductID)
}

func TestCartSetQuantityAndRemove(t *testing.T) {
	c := NewCart(kettle(2))
	assert.True(t, c.SetQuantity(7, 5))
	assert.Equal(t, 5, c.Items()[0].Quantity)
	assert.False(t, c.SetQuantity(99, 1))

	assert.True(t, c.Remove(7))
	assert.True(t, c.IsEmpty())
	assert.False(t, c.Remove(7))
}

func TestCartQuote(t *testing.T) {
	c := NewCart(kettle(2))
	q := c.Quote(pricing.DefaultPolicy())

	assert.True(t, decimal.NewFromInt(2000).Equal(q.ItemsPrice))
	assert.True(t, decimal.NewFromInt(150).Equal(q.TaxPrice))
	assert.True(t, decimal.NewFromInt(2500).Equal(q.ShippingPrice))
	assert.True(t, decimal.NewFromInt(4650).Equal(q.TotalPrice))
}

func TestCartOrderItems(t *testing.T) {
	items := NewCart(kettle(2)).OrderItems()
	require.Len(t, items, 1)
	assert.Equal(t, models.OrderItem{ProductID: 7, Name: "Kettle", Price: decimal.NewFromInt(1000), Quantity: 2, Image: "/k.png"}, items[0])
}

func TestWishlistAddIsNoOpForDuplicates(t *testing.T) {
	w := NewWishlist()
	assert.True(t, w.Add(kettle(3)))
	assert.False(t, w.Add(kettle(1)))
	require.Equal(t, 1, w.Len())
	assert.Equal(t, 1, w.Items()[0].Quantity)

	assert.True(t, w.Remove(7))
	assert.False(t, w.Contains(7))
}

func TestFileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "shop.json")
	s := NewFileStorage(path)

	c, err := LoadCart(s)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	c.Add(kettle(2))
	require.NoError(t, SaveCart(s, c))

	w := NewWishlist(kettle(1))
	require.NoError(t, SaveWishlist(s, w))

	// A fresh handle sees both keys.
	reopened := NewFileStorage(path)
	c2, err := LoadCart(reopened)
	require.NoError(t, err)
	require.Equal(t, 1, c2.Len())
	assert.Equal(t, 2, c2.Items()[0].Quantity)
	assert.True(t, decimal.NewFromInt(1000).Equal(c2.Items()[0].Price))

	w2, err := LoadWishlist(reopened)
	require.NoError(t, err)
	assert.True(t, w2.Contains(7))

	require.NoError(t, reopened.Delete(CartKey))
	found, err := reopened.Get(CartKey, &[]models.CartItem{})
	require.NoError(t, err)
	assert.False(t, found)
	found, err = reopened.Get(WishlistKey, &[]models.CartItem{})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestFileStorageRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadCart(NewFileStorage(path))
	assert.Error(t, err)
}
