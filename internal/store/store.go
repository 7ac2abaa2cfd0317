// Package store declares the persistence contracts the API depends on.
// sqlstore implements them on MySQL; memstore keeps everything in memory.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/01moynul/storefront-golang/internal/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate")
	// ErrFinalStatus is returned when an order is already Delivered or Cancelled.
	ErrFinalStatus = errors.New("store: order status is final")
)

type Users interface {
	// CreateUser inserts u and sets its ID. Returns ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// ProductFilter narrows a catalog listing. Page is 1-based.
type ProductFilter struct {
	Keyword  string
	Category models.Category
	Page     int
	PageSize int
}

// Offset returns the row offset for the filter's page.
func (f ProductFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

type Products interface {
	// ListProducts returns one page of products and the total match count.
	ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ProductSlugExists(ctx context.Context, slug string) (bool, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	CountProducts(ctx context.Context) (int, error)

	ListReviews(ctx context.Context, productID int64) ([]models.Review, error)
	// AddReview inserts r and recomputes the product's rating and review count.
	// Returns ErrDuplicate when the user already reviewed the product.
	AddReview(ctx context.Context, r *models.Review) (*models.Product, error)
}

type Orders interface {
	// CreateOrder inserts the order and its items, setting IDs.
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	// MarkPaid records a verified payment on an unpaid order and moves a Pending
	// order to Processing. It reports false when the order was already paid.
	MarkPaid(ctx context.Context, id int64, paidAt time.Time, result models.PaymentResult) (bool, error)
	// UpdateStatus sets the status of an order that is not yet Delivered or
	// Cancelled. The check and the write are one step; a final order yields
	// ErrFinalStatus.
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, at time.Time) error
	OrderStats(ctx context.Context) (models.OrderStats, error)
}

type Posts interface {
	ListPosts(ctx context.Context) ([]models.BlogPost, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	GetPostByID(ctx context.Context, id int64) (*models.BlogPost, error)
	PostSlugExists(ctx context.Context, slug string) (bool, error)
	CreatePost(ctx context.Context, p *models.BlogPost) error
	UpdatePost(ctx context.Context, p *models.BlogPost) error
	DeletePost(ctx context.Context, id int64) error
}

type Messages interface {
	CreateContactMessage(ctx context.Context, m *models.ContactMessage) error
	ListContactMessages(ctx context.Context) ([]models.ContactMessage, error)
}

type Subscribers interface {
	// Subscribe returns ErrDuplicate when the email is already subscribed.
	Subscribe(ctx context.Context, s *models.Subscriber) error
	// Unsubscribe returns ErrNotFound when the email is not subscribed.
	Unsubscribe(ctx context.Context, email string) error
	ListSubscribers(ctx context.Context) ([]models.Subscriber, error)
}

type Wishlists interface {
	ListWishlist(ctx context.Context, userID int64) ([]models.Product, error)
	// AddToWishlist is a no-op when the product is already listed.
	AddToWishlist(ctx context.Context, userID, productID int64) error
	RemoveFromWishlist(ctx context.Context, userID, productID int64) error
}

type Chats interface {
	AppendChatMessage(ctx context.Context, m *models.ChatMessage) error
	ListChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
}

// Store is the full persistence surface the API is assembled from.
type Store interface {
	Users
	Products
	Orders
	Posts
	Messages
	Subscribers
	Wishlists
	Chats
}
