package checkout

import (
	"context"
	"sync"

	"github.com/huulo/storefront/internal/domain"
	"github.com/huulo/storefront/internal/kv"
	"github.com/huulo/storefront/internal/payment"
)

type memKV struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemKV() *memKV {
	return &memKV{values: map[string]string{}}
}

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memKV) Close() error { return nil }

// MockGateway implements orders.Gateway.
type MockGateway struct {
	CreateOrderErr      error
	CreateOrderItemsErr error

	CreatedOrder *domain.Order
	CreatedItems []domain.OrderItem
	OrderID      string
}

func (m *MockGateway) CreateOrder(_ context.Context, order *domain.Order) (string, error) {
	if m.CreateOrderErr != nil {
		return "", m.CreateOrderErr
	}
	m.CreatedOrder = order
	if m.OrderID == "" {
		m.OrderID = "order-1"
	}
	return m.OrderID, nil
}

func (m *MockGateway) CreateOrderItems(_ context.Context, orderID string, items []domain.OrderItem) error {
	if m.CreateOrderItemsErr != nil {
		return m.CreateOrderItemsErr
	}
	m.CreatedItems = items
	return nil
}

// MockProvider implements payment.Provider and captures the continuations so
// tests can fire the asynchronous outcome.
type MockProvider struct {
	InitiateErr error

	Config    payment.Config
	OnSuccess payment.SuccessFunc
	OnClose   payment.CloseFunc
	Initiated bool
}

func (m *MockProvider) Initiate(_ context.Context, cfg payment.Config, onSuccess payment.SuccessFunc, onClose payment.CloseFunc) error {
	if m.InitiateErr != nil {
		return m.InitiateErr
	}
	m.Config = cfg
	m.OnSuccess = onSuccess
	m.OnClose = onClose
	m.Initiated = true
	return nil
}
