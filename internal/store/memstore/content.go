package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

func (s *Store) ListPosts(context.Context) ([]models.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.BlogPost{}
	for _, p := range s.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) GetPostBySlug(_ context.Context, slug string) (*models.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetPostByID(_ context.Context, id int64) (*models.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) PostSlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := s.GetPostBySlug(ctx, slug)
	return err == nil, nil
}

func (s *Store) CreatePost(_ context.Context, p *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.posts {
		if existing.Slug == p.Slug {
			return store.ErrDuplicate
		}
	}
	p.ID = s.id("blog_posts")
	s.posts[p.ID] = *p
	return nil
}

func (s *Store) UpdatePost(_ context.Context, p *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.posts[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Title, existing.Body, existing.Author, existing.Image = p.Title, p.Body, p.Author, p.Image
	existing.UpdatedAt = p.UpdatedAt
	s.posts[p.ID] = existing
	return nil
}

func (s *Store) DeletePost(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *Store) CreateContactMessage(_ context.Context, m *models.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id("contact_messages")
	s.messages = append(s.messages, *m)
	return nil
}

func (s *Store) ListContactMessages(context.Context) ([]models.ContactMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ContactMessage, 0, len(s.messages))
	for i := len(s.messages) - 1; i >= 0; i-- {
		out = append(out, s.messages[i])
	}
	return out, nil
}

func (s *Store) Subscribe(_ context.Context, sub *models.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(sub.Email)
	if _, ok := s.subscribers[key]; ok {
		return store.ErrDuplicate
	}
	sub.ID = s.id("newsletter_subscribers")
	s.subscribers[key] = *sub
	return nil
}

func (s *Store) Unsubscribe(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := s.subscribers[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.subscribers, key)
	return nil
}

func (s *Store) ListSubscribers(context.Context) ([]models.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Subscriber{}
	for _, sub := range s.subscribers {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListWishlist(_ context.Context, userID int64) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Product{}
	for _, pid := range s.wishlists[userID] {
		if p, ok := s.products[pid]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) AddToWishlist(_ context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pid := range s.wishlists[userID] {
		if pid == productID {
			return nil
		}
	}
	s.wishlists[userID] = append(s.wishlists[userID], productID)
	return nil
}

func (s *Store) RemoveFromWishlist(_ context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.wishlists[userID]
	for i, pid := range list {
		if pid == productID {
			s.wishlists[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) AppendChatMessage(_ context.Context, m *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id("chat_messages")
	s.chats[m.SessionID] = append(s.chats[m.SessionID], *m)
	return nil
}

func (s *Store) ListChatMessages(_ context.Context, sessionID string) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage{}, s.chats[sessionID]...), nil
}
