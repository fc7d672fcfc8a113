package server

import (
	"context"
	"sync"

	"github.com/huulo/storefront/internal/auth"
	"github.com/huulo/storefront/internal/bundle"
	"github.com/huulo/storefront/internal/cart"
	"github.com/huulo/storefront/internal/checkout"
	"github.com/huulo/storefront/internal/kv"
)

const cartKeyPrefix = "huulo_cart:"

// Session is the per-shopper state the HTTP layer holds between requests:
// the cart (restored from durable storage on first touch), the active
// checkout orchestrator and the bundle selector, when one is open.
//
// mu serializes handlers that read or swap the Checkout/Selector pointers;
// the cart and the orchestrator each carry their own lock.
type Session struct {
	User auth.User
	Cart *cart.Store

	mu       sync.Mutex
	Checkout *checkout.Orchestrator
	Selector *bundle.Selector
}

// Sessions hands out one Session per user. A single active session per user
// is assumed; the durable cart snapshot is last-writer-wins.
type Sessions struct {
	mu      sync.Mutex
	kv      kv.Store
	entries map[string]*Session
}

func NewSessions(store kv.Store) *Sessions {
	return &Sessions{kv: store, entries: make(map[string]*Session)}
}

// ForUser returns the user's session, restoring the cart from durable
// storage the first time the user shows up in this process.
func (s *Sessions) ForUser(ctx context.Context, user auth.User) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.entries[user.ID]; ok {
		return session
	}

	session := &Session{
		User: user,
		Cart: cart.New(ctx, s.kv, cartKeyPrefix+user.ID),
	}
	s.entries[user.ID] = session
	return session
}

// EndCheckout discards the checkout state once the session reached a terminal
// step; the cart stays.
func (s *Session) EndCheckout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Checkout = nil
	s.Selector = nil
}
