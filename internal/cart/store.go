// Package cart holds the shopping cart state and its durable persistence.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/huulo/storefront/internal/domain"
	"github.com/huulo/storefront/internal/kv"
)

var ErrItemNotFound = errors.New("item not found in cart")

// ItemPatch is a partial update applied to an existing line item. Nil fields
// are left unchanged.
type ItemPatch struct {
	BundleSelections *[]domain.BundleSelection
	Name             *string
	ImageURL         *string
}

// Store is the cart for one shopper session. Every mutation persists the full
// snapshot to durable storage before returning; the snapshot is read back once
// at construction. A corrupt or absent snapshot restores as an empty cart.
//
// Line items are unique per (ProductID, BundleKey). RemoveItem is keyed on
// ProductID alone and removes every bundle variant of the product;
// UpdateQuantity and UpdateMetadata target the first match in insertion order.
type Store struct {
	mu    sync.Mutex
	kv    kv.Store
	key   string
	items []domain.CartLineItem
}

// New restores a cart from durable storage under the given key.
func New(ctx context.Context, store kv.Store, key string) *Store {
	s := &Store{kv: store, key: key}
	s.restore(ctx)
	return s
}

func (s *Store) restore(ctx context.Context) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return
	}
	if err != nil {
		slog.Warn("cart restore failed, starting empty", "key", s.key, "error", err)
		return
	}

	var items []domain.CartLineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		slog.Warn("cart snapshot corrupt, starting empty", "key", s.key, "error", err)
		return
	}
	s.items = items
}

func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("persist cart snapshot: %w", err)
	}
	return nil
}

// AddItem adds the product to the cart. If a line item with the same
// (ProductID, BundleKey) already exists its quantity is incremented by
// quantity; otherwise a new line item is appended. Quantity below 1 is
// treated as 1.
func (s *Store) AddItem(ctx context.Context, p domain.Product, quantity int, selections []domain.BundleSelection) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormalizedBundleKey(selections)
	for i := range s.items {
		if s.items[i].ProductID == p.ID && s.items[i].BundleKey() == key {
			s.items[i].Quantity += quantity
			return s.persist(ctx)
		}
	}

	s.items = append(s.items, p.LineItem(quantity, selections))
	return s.persist(ctx)
}

// RemoveItem removes every line item for the product, including all bundle
// variants. Returns ErrItemNotFound if the product is not in the cart.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	removed := false
	for _, li := range s.items {
		if li.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, li)
	}
	if !removed {
		return ErrItemNotFound
	}
	s.items = kept
	return s.persist(ctx)
}

// UpdateQuantity adds delta to the quantity of the first line item matching
// productID. The quantity floors at 1; removal is a separate operation.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID != productID {
			continue
		}
		next := s.items[i].Quantity + delta
		if next < 1 {
			next = 1
		}
		s.items[i].Quantity = next
		return s.persist(ctx)
	}
	return ErrItemNotFound
}

// UpdateMetadata merges the patch into the first line item matching productID.
func (s *Store) UpdateMetadata(ctx context.Context, productID string, patch ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID != productID {
			continue
		}
		return s.applyPatch(ctx, i, patch)
	}
	return ErrItemNotFound
}

// UpdateVariantMetadata merges the patch into the line item matching both
// productID and bundleKey. When a product is in the cart as several bundle
// variants, this is the only way to address one of them unambiguously.
func (s *Store) UpdateVariantMetadata(ctx context.Context, productID, bundleKey string, patch ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID != productID || s.items[i].BundleKey() != bundleKey {
			continue
		}
		return s.applyPatch(ctx, i, patch)
	}
	return ErrItemNotFound
}

// applyPatch mutates the line item at index i and persists. If the patch
// changed the bundle selections so that the item now collides with another
// variant of the same product, the two are folded into one line item to keep
// the (productID, bundleKey) uniqueness invariant. Caller holds s.mu.
func (s *Store) applyPatch(ctx context.Context, i int, patch ItemPatch) error {
	if patch.BundleSelections != nil {
		s.items[i].BundleSelections = *patch.BundleSelections
	}
	if patch.Name != nil {
		s.items[i].Name = *patch.Name
	}
	if patch.ImageURL != nil {
		s.items[i].ImageURL = *patch.ImageURL
	}

	key := s.items[i].BundleKey()
	for j := range s.items {
		if j == i || s.items[j].ProductID != s.items[i].ProductID || s.items[j].BundleKey() != key {
			continue
		}
		s.items[i].Quantity += s.items[j].Quantity
		s.items = append(s.items[:j], s.items[j+1:]...)
		break
	}
	return s.persist(ctx)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.persist(ctx)
}

// Count is the total number of units across all line items.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, li := range s.items {
		count += li.Quantity
	}
	return count
}

// Total is the cart subtotal. Bundle selections do not contribute to it.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, li := range s.items {
		total += li.Subtotal()
	}
	return total
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.CartLineItem, len(s.items))
	copy(items, s.items)
	return items
}

// Empty reports whether the cart has no line items.
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}
