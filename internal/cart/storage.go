package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/01moynul/storefront-golang/internal/models"
)

// Fixed keys the client persists its state under.
const (
	CartKey     = "cartItems"
	WishlistKey = "wishlistItems"
	TokenKey    = "authToken"
)

// Storage is a small persistent key/value store of JSON values.
type Storage interface {
	// Get decodes the value stored under key into dst and reports whether the key exists.
	Get(key string, dst any) (bool, error)
	Set(key string, value any) error
	Delete(key string) error
}

// FileStorage keeps every key in one JSON object on disk. Writes go to a
// temporary file that is renamed over the original.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) load() (map[string]json.RawMessage, error) {
	values := map[string]json.RawMessage{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return values, nil
}

func (s *FileStorage) save(values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStorage) Get(key string, dst any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return false, err
	}
	raw, ok := values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (s *FileStorage) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = raw
	return s.save(values)
}

func (s *FileStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

// LoadCart reads the persisted cart; a missing key yields an empty cart.
func LoadCart(s Storage) (*Cart, error) {
	var items []models.CartItem
	if _, err := s.Get(CartKey, &items); err != nil {
		return nil, err
	}
	return NewCart(items...), nil
}

func SaveCart(s Storage, c *Cart) error {
	return s.Set(CartKey, c.Items())
}

// LoadWishlist reads the persisted wishlist; a missing key yields an empty list.
func LoadWishlist(s Storage) (*Wishlist, error) {
	var items []models.CartItem
	if _, err := s.Get(WishlistKey, &items); err != nil {
		return nil, err
	}
	return NewWishlist(items...), nil
}

func SaveWishlist(s Storage, w *Wishlist) error {
	return s.Set(WishlistKey, w.Items())
}
