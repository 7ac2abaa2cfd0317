package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

const orderColumns = `
	id, user_id, shipping_address, shipping_city, shipping_postal_code, shipping_country,
	payment_method, items_price, tax_price, shipping_price, total_price,
	is_paid, paid_at, payment_reference, payment_status, payment_update_time, payment_email,
	status, is_delivered, delivered_at, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	var o models.Order
	var paidAt, deliveredAt sql.NullTime
	var ref, payStatus, payUpdated, payEmail sql.NullString

	err := row.Scan(
		&o.ID, &o.UserID,
		&o.ShippingAddress.Address, &o.ShippingAddress.City, &o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&o.PaymentMethod, &o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice,
		&o.IsPaid, &paidAt, &ref, &payStatus, &payUpdated, &payEmail,
		&o.Status, &o.IsDelivered, &deliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	if deliveredAt.Valid {
		o.DeliveredAt = &deliveredAt.Time
	}
	if ref.Valid {
		o.PaymentResult = &models.PaymentResult{
			Reference:    ref.String,
			Status:       payStatus.String,
			UpdateTime:   payUpdated.String,
			EmailAddress: payEmail.String,
		}
	}
	return &o, nil
}

// CreateOrder inserts the order row and its item snapshots in one transaction.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders
		(user_id, shipping_address, shipping_city, shipping_postal_code, shipping_country,
		payment_method, items_price, tax_price, shipping_price, total_price,
		is_paid, status, is_delivered, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, 0, ?, ?)`

	result, err := tx.ExecContext(ctx, orderQuery,
		o.UserID, o.ShippingAddress.Address, o.ShippingAddress.City, o.ShippingAddress.PostalCode, o.ShippingAddress.Country,
		o.PaymentMethod, o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
		o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if o.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("order id: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, name, price, quantity, image)
		VALUES (?, ?, ?, ?, ?, ?)`

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		res, err := tx.ExecContext(ctx, itemQuery, o.ID, item.ProductID, item.Name, item.Price, item.Quantity, item.Image)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("order item id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) loadItems(ctx context.Context, q Querier, o *models.Order) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, price, quantity, image
		FROM order_items
		WHERE order_id = ?
		ORDER BY id`, o.ID)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	o.Items = []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.Image); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, s.db, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) listOrders(ctx context.Context, query string, args ...interface{}) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range orders {
		if err := s.loadItems(ctx, s.db, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.listOrders(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.listOrders(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id DESC")
}

// MarkPaid only touches unpaid rows, so replaying a verification is a no-op.
// Price columns are never written here.
func (s *Store) MarkPaid(ctx context.Context, id int64, paidAt time.Time, result models.PaymentResult) (bool, error) {
	query := `
		UPDATE orders
		SET is_paid = 1,
		    paid_at = ?,
		    payment_reference = ?,
		    payment_status = ?,
		    payment_update_time = ?,
		    payment_email = ?,
		    status = CASE WHEN status = 'Pending' THEN 'Processing' ELSE status END,
		    updated_at = ?
		WHERE id = ? AND is_paid = 0`

	res, err := s.db.ExecContext(ctx, query, paidAt, result.Reference, result.Status, result.UpdateTime,
		result.EmailAddress, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, at time.Time) error {
	var (
		result sql.Result
		err    error
	)
	if status == models.StatusDelivered {
		result, err = s.db.ExecContext(ctx, `
			UPDATE orders
			SET status = ?, is_delivered = 1, delivered_at = ?, updated_at = ?
			WHERE id = ? AND status NOT IN (?, ?)`,
			status, at, at, id, models.StatusDelivered, models.StatusCancelled)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE orders
			SET status = ?, updated_at = ?
			WHERE id = ? AND status NOT IN (?, ?)`,
			status, at, id, models.StatusDelivered, models.StatusCancelled)
	}
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing changed: either the order is gone or its status is final.
	var current models.OrderStatus
	err = s.db.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load order status: %w", err)
	}
	if current.Terminal() {
		return store.ErrFinalStatus
	}
	return nil
}

func (s *Store) OrderStats(ctx context.Context) (models.OrderStats, error) {
	var st models.OrderStats
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(is_paid), 0),
			COALESCE(SUM(CASE WHEN status = 'Pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_paid = 1 THEN total_price ELSE 0 END), 0)
		FROM orders`

	err := s.db.QueryRowContext(ctx, query).Scan(&st.TotalOrders, &st.PaidOrders, &st.PendingOrders, &st.Revenue)
	if err != nil {
		return st, fmt.Errorf("order stats: %w", err)
	}
	return st, nil
}
