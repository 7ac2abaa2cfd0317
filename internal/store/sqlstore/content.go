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

//
// --- Blog ---
//

const postColumns = "id, slug, title, body, author, image, created_at, updated_at"

func scanPost(row interface{ Scan(...interface{}) error }) (*models.BlogPost, error) {
	var p models.BlogPost
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.Author, &p.Image, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]models.BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+postColumns+" FROM blog_posts ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.BlogPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	return scanPost(s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM blog_posts WHERE slug = ?", slug))
}

func (s *Store) GetPostByID(ctx context.Context, id int64) (*models.BlogPost, error) {
	return scanPost(s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM blog_posts WHERE id = ?", id))
}

func (s *Store) PostSlugExists(ctx context.Context, slug string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM blog_posts WHERE slug = ?", slug).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) CreatePost(ctx context.Context, p *models.BlogPost) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO blog_posts (slug, title, body, author, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Body, p.Author, p.Image, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert post: %w", err)
	}
	if p.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("post id: %w", err)
	}
	return nil
}

func (s *Store) UpdatePost(ctx context.Context, p *models.BlogPost) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE blog_posts SET title = ?, body = ?, author = ?, image = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.Body, p.Author, p.Image, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM blog_posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return expectOneRow(result)
}

//
// --- Contact ---
//

func (s *Store) CreateContactMessage(ctx context.Context, m *models.ContactMessage) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_messages (name, email, subject, message, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.Name, m.Email, m.Subject, m.Message, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	if m.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("contact message id: %w", err)
	}
	return nil
}

func (s *Store) ListContactMessages(ctx context.Context) ([]models.ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, subject, message, created_at
		FROM contact_messages
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	msgs := []models.ContactMessage{}
	for rows.Next() {
		var m models.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

//
// --- Newsletter ---
//

func (s *Store) Subscribe(ctx context.Context, sub *models.Subscriber) error {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO newsletter_subscribers (email, created_at) VALUES (?, ?)", sub.Email, sub.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}
	if sub.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("subscriber id: %w", err)
	}
	return nil
}

func (s *Store) Unsubscribe(ctx context.Context, email string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM newsletter_subscribers WHERE email = ?", email)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	return expectOneRow(result)
}

func (s *Store) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, email, created_at FROM newsletter_subscribers ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	subs := []models.Subscriber{}
	for rows.Next() {
		var sub models.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

//
// --- Wishlist ---
//

func (s *Store) ListWishlist(ctx context.Context, userID int64) ([]models.Product, error) {
	query := `
		SELECT p.id, p.slug, p.name, p.description, p.price, p.category, p.image, p.stock,
		       p.rating, p.num_reviews, p.created_at, p.updated_at
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = ?
		ORDER BY w.created_at DESC, w.product_id DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wishlist product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *Store) AddToWishlist(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wishlist_items (user_id, product_id, created_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE user_id = user_id`,
		userID, productID, time.Now())
	if err != nil {
		return fmt.Errorf("add wishlist item: %w", err)
	}
	return nil
}

func (s *Store) RemoveFromWishlist(ctx context.Context, userID, productID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM wishlist_items WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return expectOneRow(result)
}

//
// --- Chat ---
//

func (s *Store) AppendChatMessage(ctx context.Context, m *models.ChatMessage) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		m.SessionID, m.Role, m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	if m.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("chat message id: %w", err)
	}
	return nil
}

func (s *Store) ListChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	msgs := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
