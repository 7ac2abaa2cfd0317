package sqlstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

var _ store.Store = (*Store)(nil)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

var orderCols = []string{
	"id", "user_id", "shipping_address", "shipping_city", "shipping_postal_code", "shipping_country",
	"payment_method", "items_price", "tax_price", "shipping_price", "total_price",
	"is_paid", "paid_at", "payment_reference", "payment_status", "payment_update_time", "payment_email",
	"status", "is_delivered", "delivered_at", "created_at", "updated_at",
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := s.CreateUser(context.Background(), &models.User{Name: "Ada", Email: "ada@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmailNotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetProductBySlugNotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE slug = ?").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetProductBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateOrderWritesItemsInTransaction(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(int64(42), int64(7), "Lamp", sqlmock.AnyArg(), 2, "lamp.jpg").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	o := &models.Order{
		UserID: 3,
		Items: []models.OrderItem{
			{ProductID: 7, Name: "Lamp", Price: decimal.NewFromInt(1000), Quantity: 2, Image: "lamp.jpg"},
		},
		Status: models.StatusPending,
	}
	require.NoError(t, s.CreateOrder(context.Background(), o))

	assert.Equal(t, int64(42), o.ID)
	assert.Equal(t, int64(42), o.Items[0].OrderID)
	assert.Equal(t, int64(1), o.Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRollsBackOnItemFailure(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO order_items").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	o := &models.Order{Items: []models.OrderItem{{ProductID: 7, Quantity: 1}}}
	assert.Error(t, s.CreateOrder(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderScansPaymentResult(t *testing.T) {
	s, mock := newMock(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id = ?").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(
			42, 3, "1 Marina", "Lagos", "100001", "Nigeria",
			"Paystack", "2000.00", "150.00", "2500.00", "4650.00",
			1, now, "ref_abc", "success", "2026-01-02T03:04:05Z", "ada@example.com",
			"Processing", 0, nil, now, now,
		))
	mock.ExpectQuery("SELECT (.+) FROM order_items WHERE order_id = ?").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "name", "price", "quantity", "image"}).
			AddRow(1, 42, 7, "Lamp", "1000.00", 2, "lamp.jpg"))

	o, err := s.GetOrder(context.Background(), 42)
	require.NoError(t, err)

	assert.True(t, o.IsPaid)
	assert.Equal(t, models.StatusProcessing, o.Status)
	require.NotNil(t, o.PaymentResult)
	assert.Equal(t, "ref_abc", o.PaymentResult.Reference)
	assert.Nil(t, o.DeliveredAt)
	assert.True(t, decimal.RequireFromString("4650").Equal(o.TotalPrice))
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
}

func TestGetOrderNotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id = ?").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(orderCols))

	_, err := s.GetOrder(context.Background(), 9)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMarkPaidOnlyAppliesOnce(t *testing.T) {
	s, mock := newMock(t)
	paidAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	result := models.PaymentResult{Reference: "abc", Status: "success", EmailAddress: "ada@example.com"}

	mock.ExpectExec("UPDATE orders (.+) WHERE id = \\? AND is_paid = 0").
		WithArgs(paidAt, "abc", "success", "", "ada@example.com", sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE orders (.+) WHERE id = \\? AND is_paid = 0").
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := s.MarkPaid(context.Background(), 42, paidAt, result)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.MarkPaid(context.Background(), 42, paidAt, result)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusDeliveredSetsFlag(t *testing.T) {
	s, mock := newMock(t)
	at := time.Now()

	mock.ExpectExec("SET status = \\?, is_delivered = 1(.+)WHERE id = \\? AND status NOT IN \\(\\?, \\?\\)").
		WithArgs(models.StatusDelivered, at, at, int64(5), models.StatusDelivered, models.StatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpdateStatus(context.Background(), 5, models.StatusDelivered, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRefusesFinalOrder(t *testing.T) {
	s, mock := newMock(t)
	at := time.Now()

	mock.ExpectExec("UPDATE orders(.+)WHERE id = \\? AND status NOT IN \\(\\?, \\?\\)").
		WithArgs(models.StatusShipped, at, int64(5), models.StatusDelivered, models.StatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM orders WHERE id = \\?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(models.StatusCancelled)))

	err := s.UpdateStatus(context.Background(), 5, models.StatusShipped, at)
	assert.ErrorIs(t, err, store.ErrFinalStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	s, mock := newMock(t)
	at := time.Now()

	mock.ExpectExec("UPDATE orders").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM orders WHERE id = \\?").
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := s.UpdateStatus(context.Background(), 8, models.StatusShipped, at)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddReviewDuplicate(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM products WHERE id = \\? FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("INSERT INTO reviews").
		WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectRollback()

	_, err := s.AddReview(context.Background(), &models.Review{ProductID: 7, UserID: 3, Rating: 5})
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeDuplicate(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec("INSERT INTO newsletter_subscribers").
		WillReturnError(&mysql.MySQLError{Number: 1062})

	err := s.Subscribe(context.Background(), &models.Subscriber{Email: "a@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestListProductsPagesInStableOrder(t *testing.T) {
	s, mock := newMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	productCols := []string{"id", "slug", "name", "description", "price", "category", "image", "stock", "rating", "num_reviews", "created_at", "updated_at"}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products WHERE 1 = 1 AND category = \\?").
		WithArgs(models.CategoryHome).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("ORDER BY created_at DESC, id DESC LIMIT \\? OFFSET \\?").
		WithArgs(models.CategoryHome, 2, 2).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(1, "kettle", "Kettle", "", "1000", string(models.CategoryHome), "", 3, "0", 0, created, created))

	products, total, err := s.ListProducts(context.Background(), store.ProductFilter{Category: models.CategoryHome, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, products, 1)
	assert.Equal(t, "kettle", products[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersBreaksTimestampTiesByID(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("FROM orders WHERE user_id = \\? ORDER BY created_at DESC, id DESC").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(orderCols))
	mock.ExpectQuery("FROM orders ORDER BY created_at DESC, id DESC").
		WillReturnRows(sqlmock.NewRows(orderCols))

	_, err := s.ListOrdersByUser(context.Background(), 3)
	require.NoError(t, err)
	_, err = s.ListOrders(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
