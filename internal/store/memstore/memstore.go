// Package memstore is an in-memory implementation of the store interfaces,
// used for local runs (DB_DSN=memory) and tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

// Store keeps every table in maps guarded by one mutex. Values are copied in
// and out so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	// Per-table AUTO_INCREMENT counters.
	nextID map[string]int64

	users       map[int64]models.User
	products    map[int64]models.Product
	reviews     map[int64][]models.Review
	orders      map[int64]models.Order
	posts       map[int64]models.BlogPost
	messages    []models.ContactMessage
	subscribers map[string]models.Subscriber
	wishlists   map[int64][]int64
	chats       map[string][]models.ChatMessage
}

func New() *Store {
	return &Store{
		nextID:      map[string]int64{},
		users:       map[int64]models.User{},
		products:    map[int64]models.Product{},
		reviews:     map[int64][]models.Review{},
		orders:      map[int64]models.Order{},
		posts:       map[int64]models.BlogPost{},
		subscribers: map[string]models.Subscriber{},
		wishlists:   map[int64][]int64{},
		chats:       map[string][]models.ChatMessage{},
	}
}

func (s *Store) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

//
// --- Users ---
//

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrDuplicate
		}
	}
	u.ID = s.id("users")
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CountUsers(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

//
// --- Products ---
//

func (s *Store) ListProducts(_ context.Context, f store.ProductFilter) ([]models.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyword := strings.ToLower(f.Keyword)
	matched := []models.Product{}
	for _, p := range s.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(p.Name), keyword) &&
			!strings.Contains(strings.ToLower(p.Description), keyword) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	if f.PageSize > 0 {
		start := f.Offset()
		if start > total {
			start = total
		}
		end := start + f.PageSize
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (s *Store) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetProductBySlug(_ context.Context, slug string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ProductSlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := s.GetProductBySlug(ctx, slug)
	return err == nil, nil
}

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.products {
		if existing.Slug == p.Slug {
			return store.ErrDuplicate
		}
	}
	p.ID = s.id("products")
	p.Rating, p.NumReviews = 0, 0
	s.products[p.ID] = *p
	return nil
}

func (s *Store) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Name = p.Name
	existing.Description = p.Description
	existing.Price = p.Price
	existing.Category = p.Category
	existing.Image = p.Image
	existing.Stock = p.Stock
	existing.UpdatedAt = p.UpdatedAt
	s.products[p.ID] = existing
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	delete(s.reviews, id)
	return nil
}

func (s *Store) CountProducts(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), nil
}

func (s *Store) ListReviews(_ context.Context, productID int64) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Review{}, s.reviews[productID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) AddReview(_ context.Context, r *models.Review) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[r.ProductID]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, existing := range s.reviews[r.ProductID] {
		if existing.UserID == r.UserID {
			return nil, store.ErrDuplicate
		}
	}
	r.ID = s.id("reviews")
	s.reviews[r.ProductID] = append(s.reviews[r.ProductID], *r)

	p.Rating = models.AverageRating(s.reviews[r.ProductID])
	p.NumReviews = len(s.reviews[r.ProductID])
	p.UpdatedAt = time.Now().UTC()
	s.products[p.ID] = p
	return &p, nil
}

//
// --- Orders ---
//

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem{}, o.Items...)
	if o.PaymentResult != nil {
		pr := *o.PaymentResult
		o.PaymentResult = &pr
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		o.PaidAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		o.DeliveredAt = &t
	}
	return o
}

func (s *Store) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.id("orders")
	for i := range o.Items {
		o.Items[i].ID = s.id("order_items")
		o.Items[i].OrderID = o.ID
	}
	s.orders[o.ID] = copyOrder(*o)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (s *Store) listOrders(keep func(models.Order) bool) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Store) ListOrdersByUser(_ context.Context, userID int64) ([]models.Order, error) {
	return s.listOrders(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (s *Store) ListOrders(context.Context) ([]models.Order, error) {
	return s.listOrders(func(models.Order) bool { return true }), nil
}

func (s *Store) MarkPaid(_ context.Context, id int64, paidAt time.Time, result models.PaymentResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.IsPaid {
		return false, nil
	}
	o.IsPaid = true
	o.PaidAt = &paidAt
	o.PaymentResult = &result
	if o.Status == models.StatusPending {
		o.Status = models.StatusProcessing
	}
	o.UpdatedAt = paidAt
	s.orders[id] = o
	return true, nil
}

func (s *Store) UpdateStatus(_ context.Context, id int64, status models.OrderStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	if o.Status.Terminal() {
		return store.ErrFinalStatus
	}
	o.Status = status
	if status == models.StatusDelivered {
		o.IsDelivered = true
		o.DeliveredAt = &at
	}
	o.UpdatedAt = at
	s.orders[id] = o
	return nil
}

func (s *Store) OrderStats(context.Context) (models.OrderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st models.OrderStats
	for _, o := range s.orders {
		st.TotalOrders++
		if o.IsPaid {
			st.PaidOrders++
			st.Revenue = st.Revenue.Add(o.TotalPrice)
		}
		if o.Status == models.StatusPending {
			st.PendingOrders++
		}
	}
	return st, nil
}
