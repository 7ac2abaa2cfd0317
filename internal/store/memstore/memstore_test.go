package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

var _ store.Store = (*Store)(nil)

func TestAddReviewRecomputesRating(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &models.Product{Slug: "lamp", Name: "Lamp", Price: decimal.NewFromInt(10)}
	require.NoError(t, s.CreateProduct(ctx, p))

	_, err := s.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: 1, Rating: 5})
	require.NoError(t, err)
	updated, err := s.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: 2, Rating: 2})
	require.NoError(t, err)

	assert.Equal(t, 3.5, updated.Rating)
	assert.Equal(t, 2, updated.NumReviews)

	_, err = s.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: 2, Rating: 1})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := &models.Order{UserID: 1, Status: models.StatusPending, TotalPrice: decimal.NewFromInt(10)}
	require.NoError(t, s.CreateOrder(ctx, o))

	paidAt := time.Now()
	applied, err := s.MarkPaid(ctx, o.ID, paidAt, models.PaymentResult{Reference: "r1"})
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.MarkPaid(ctx, o.ID, paidAt.Add(time.Hour), models.PaymentResult{Reference: "r1"})
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, got.Status)
	assert.True(t, got.PaidAt.Equal(paidAt))
}

func TestUpdateStatusKeepsFinalStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := &models.Order{UserID: 1, Status: models.StatusPending}
	require.NoError(t, s.CreateOrder(ctx, o))

	at := time.Now().UTC()
	require.NoError(t, s.UpdateStatus(ctx, o.ID, models.StatusDelivered, at))
	assert.ErrorIs(t, s.UpdateStatus(ctx, o.ID, models.StatusShipped, at), store.ErrFinalStatus)
	assert.ErrorIs(t, s.UpdateStatus(ctx, 999, models.StatusShipped, at), store.ErrNotFound)

	got, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, got.Status)
	assert.True(t, got.IsDelivered)
}

func TestListProductsPaginates(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateProduct(ctx, &models.Product{Slug: name, Name: name, Category: models.CategoryHome}))
	}

	page, total, err := s.ListProducts(ctx, store.ProductFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].Name)
}

func TestWishlistAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &models.Product{Slug: "x", Name: "X"}
	require.NoError(t, s.CreateProduct(ctx, p))

	require.NoError(t, s.AddToWishlist(ctx, 1, p.ID))
	require.NoError(t, s.AddToWishlist(ctx, 1, p.ID))

	list, err := s.ListWishlist(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.RemoveFromWishlist(ctx, 1, p.ID))
	assert.ErrorIs(t, s.RemoveFromWishlist(ctx, 1, p.ID), store.ErrNotFound)
}
