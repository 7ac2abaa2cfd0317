package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is the model for the 'products' table.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	Slug        string          `json:"slug" db:"slug"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Category    Category        `json:"category" db:"category"`
	Image       string          `json:"image" db:"image"`
	Stock       int             `json:"stock" db:"stock"`

	// Derived from reviews; only recomputed when a review is added.
	Rating     float64 `json:"rating" db:"rating"`
	NumReviews int     `json:"numReviews" db:"num_reviews"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Review is the model for the 'reviews' table.
type Review struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"productId" db:"product_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AverageRating returns the arithmetic mean of the given review ratings, or 0 when empty.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
