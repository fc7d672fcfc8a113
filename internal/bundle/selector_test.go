package bundle

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huulo/storefront/internal/cart"
	"github.com/huulo/storefront/internal/domain"
	"github.com/huulo/storefront/internal/kv"
)

type memKV struct {
	mu     sync.Mutex
	values map[string]string
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

type stubLister struct {
	products []domain.Product
	err      error
}

func (s *stubLister) ListByCategory(context.Context, string) ([]domain.Product, error) {
	return s.products, s.err
}

var (
	ps5Item = domain.CartLineItem{ProductID: "ps5", Name: "PlayStation 5", UnitPrice: 650000, Category: domain.CategoryConsole, Quantity: 1}
	padItem = domain.CartLineItem{ProductID: "pad", Name: "DualSense", UnitPrice: 45000, Category: domain.CategoryAccessory, Quantity: 1}

	spiderman = domain.Product{ID: "g1", Name: "Spider-Man 2", Category: domain.CategoryGame, Price: 55000}
	cod       = domain.Product{ID: "g2", Name: "COD MW3", Category: domain.CategoryGame, Price: 60000}
)

func newFixture(t *testing.T) (*Selector, *cart.Store) {
	t.Helper()
	ctx := context.Background()
	store := cart.New(ctx, &memKV{values: map[string]string{}}, "huulo_cart")
	require.NoError(t, store.AddItem(ctx, domain.Product{ID: "ps5", Name: "PlayStation 5", Category: domain.CategoryConsole, Price: 650000}, 1, nil))
	lister := &stubLister{products: []domain.Product{spiderman, cod}}
	return NewSelector(store, lister), store
}

func TestOpen_LoadsCompanionsAndSeedsDraft(t *testing.T) {
	sel, _ := newFixture(t)

	require.NoError(t, sel.Open(context.Background(), ps5Item))

	assert.True(t, sel.IsOpen())
	assert.Len(t, sel.Companions(), 2)
	assert.Empty(t, sel.Draft())
}

func TestOpen_SeedsDraftFromExistingSelections(t *testing.T) {
	sel, _ := newFixture(t)
	target := ps5Item
	target.BundleSelections = []domain.BundleSelection{{ID: "g1", Name: "Spider-Man 2"}}

	require.NoError(t, sel.Open(context.Background(), target))

	assert.Equal(t, []domain.BundleSelection{{ID: "g1", Name: "Spider-Man 2"}}, sel.Draft())
}

func TestOpen_RejectsNonBundleEligibleItem(t *testing.T) {
	sel, _ := newFixture(t)

	err := sel.Open(context.Background(), padItem)
	assert.ErrorIs(t, err, ErrNotBundleEligible)
}

func TestToggle_AddAndRemove(t *testing.T) {
	sel, _ := newFixture(t)
	require.NoError(t, sel.Open(context.Background(), ps5Item))

	require.NoError(t, sel.Toggle(spiderman))
	assert.Len(t, sel.Draft(), 1)

	require.NoError(t, sel.Toggle(cod))
	assert.Len(t, sel.Draft(), 2)

	// Toggling an already-selected companion removes it.
	require.NoError(t, sel.Toggle(spiderman))
	assert.Equal(t, []domain.BundleSelection{{ID: "g2", Name: "COD MW3"}}, sel.Draft())
}

func TestToggle_NotOpen(t *testing.T) {
	sel, _ := newFixture(t)

	assert.ErrorIs(t, sel.Toggle(spiderman), ErrNotOpen)
}

func TestCommit_WritesSelectionsToCart(t *testing.T) {
	sel, store := newFixture(t)
	ctx := context.Background()
	require.NoError(t, sel.Open(ctx, ps5Item))
	require.NoError(t, sel.Toggle(spiderman))

	require.NoError(t, sel.Commit(ctx, false))

	items := store.Items()
	assert.Equal(t, []domain.BundleSelection{{ID: "g1", Name: "Spider-Man 2"}}, items[0].BundleSelections)
	assert.False(t, sel.IsOpen())
}

func TestCommit_EmptyDraftNeedsConfirmation(t *testing.T) {
	sel, store := newFixture(t)
	ctx := context.Background()
	require.NoError(t, sel.Open(ctx, ps5Item))

	err := sel.Commit(ctx, false)
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.True(t, sel.IsOpen(), "selector stays open until confirmed")

	require.NoError(t, sel.Commit(ctx, true))
	assert.Empty(t, store.Items()[0].BundleSelections)
	assert.False(t, sel.IsOpen())
}

func TestCommit_TwoVariantsPatchesOnlyTheTarget(t *testing.T) {
	sel, store := newFixture(t)
	ctx := context.Background()

	// The fixture console plus a second, already-resolved variant of it.
	require.NoError(t, store.AddItem(ctx, domain.Product{ID: "ps5", Name: "PlayStation 5", Category: domain.CategoryConsole, Price: 650000},
		1, []domain.BundleSelection{{ID: "g1", Name: "Spider-Man 2"}}))

	target := ps5Item // bare variant, empty bundle key
	require.NoError(t, sel.Open(ctx, target))
	require.NoError(t, sel.Toggle(cod))
	require.NoError(t, sel.Commit(ctx, false))

	items := store.Items()
	require.Len(t, items, 2)
	assert.Equal(t, []domain.BundleSelection{{ID: "g2", Name: "COD MW3"}}, items[0].BundleSelections,
		"the variant the draft was opened against gets the selection")
	assert.Equal(t, []domain.BundleSelection{{ID: "g1", Name: "Spider-Man 2"}}, items[1].BundleSelections,
		"the other variant is untouched")
}

func TestCancel_LeavesCartUntouched(t *testing.T) {
	sel, store := newFixture(t)
	ctx := context.Background()
	require.NoError(t, sel.Open(ctx, ps5Item))
	require.NoError(t, sel.Toggle(spiderman))

	sel.Cancel()

	assert.Empty(t, store.Items()[0].BundleSelections)
	assert.False(t, sel.IsOpen())
}
