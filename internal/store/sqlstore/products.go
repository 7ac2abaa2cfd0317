package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

const productColumns = "id, slug, name, description, price, category, image, stock, rating, num_reviews, created_at, updated_at"

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.Price, &p.Category,
		&p.Image, &p.Stock, &p.Rating, &p.NumReviews, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, int, error) {
	var where strings.Builder
	var args []interface{}

	where.WriteString(" WHERE 1 = 1")
	if f.Category != "" {
		where.WriteString(" AND category = ?")
		args = append(args, f.Category)
	}
	if f.Keyword != "" {
		where.WriteString(" AND (name LIKE ? OR description LIKE ?)")
		term := "%" + f.Keyword + "%"
		args = append(args, term, term)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := "SELECT " + productColumns + " FROM products" + where.String() + " ORDER BY created_at DESC, id DESC"
	if f.PageSize > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.PageSize, f.Offset())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	return scanProduct(s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id))
}

func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return scanProduct(s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE slug = ?", slug))
}

func (s *Store) ProductSlugExists(ctx context.Context, slug string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM products WHERE slug = ?", slug).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products
		(slug, name, description, price, category, image, stock, rating, num_reviews, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`

	result, err := s.db.ExecContext(ctx, query, p.Slug, p.Name, p.Description, p.Price, p.Category,
		p.Image, p.Stock, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	if p.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	return nil
}

// UpdateProduct writes the editable fields. Rating and review count are left alone.
// Callers load the product first; MySQL reports zero affected rows for a no-op update.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, category = ?, image = ?, stock = ?, updated_at = ?
		WHERE id = ?`

	_, err := s.db.ExecContext(ctx, query, p.Name, p.Description, p.Price, p.Category,
		p.Image, p.Stock, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectOneRow(result)
}

func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n)
	return n, err
}

func (s *Store) ListReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	query := `
		SELECT id, product_id, user_id, name, rating, comment, created_at
		FROM reviews
		WHERE product_id = ?
		ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Name, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *Store) AddReview(ctx context.Context, r *models.Review) (*models.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// Lock the product row so concurrent reviews recompute in sequence.
	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id = ? FOR UPDATE", r.ProductID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO reviews (product_id, user_id, name, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ProductID, r.UserID, r.Name, r.Rating, r.Comment, r.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return nil, store.ErrDuplicate
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}
	if r.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("review id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE products p
		SET p.rating = (SELECT COALESCE(AVG(r.rating), 0) FROM reviews r WHERE r.product_id = p.id),
		    p.num_reviews = (SELECT COUNT(*) FROM reviews r WHERE r.product_id = p.id),
		    p.updated_at = ?
		WHERE p.id = ?`, time.Now(), r.ProductID)
	if err != nil {
		return nil, fmt.Errorf("recompute rating: %w", err)
	}

	product, err := scanProduct(tx.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", r.ProductID))
	if err != nil {
		return nil, fmt.Errorf("reload product: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return product, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
