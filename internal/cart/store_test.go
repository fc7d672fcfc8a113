package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huulo/storefront/internal/domain"
	"github.com/huulo/storefront/internal/kv"
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

var (
	ps5 = domain.Product{ID: "ps5", Name: "PlayStation 5", Image: "ps5.jpg", Category: domain.CategoryConsole, Price: 650000}
	pad = domain.Product{ID: "pad", Name: "DualSense", Image: "pad.jpg", Category: domain.CategoryAccessory, Price: 45000}

	spiderman = domain.BundleSelection{ID: "g1", Name: "Spider-Man 2"}
	cod       = domain.BundleSelection{ID: "g2", Name: "COD MW3"}
)

func newTestStore(t *testing.T) (*Store, *memKV) {
	t.Helper()
	mem := newMemKV()
	return New(context.Background(), mem, "huulo_cart"), mem
}

func TestAddItem_SameBundleKeyAccumulatesQuantity(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, ps5, 1, []domain.BundleSelection{spiderman}))
	require.NoError(t, s.AddItem(ctx, ps5, 2, []domain.BundleSelection{spiderman}))
	require.NoError(t, s.AddItem(ctx, ps5, 1, []domain.BundleSelection{spiderman}))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
}

func TestAddItem_DifferentBundleKeysAreDistinctLineItems(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, ps5, 1, []domain.BundleSelection{spiderman}))
	require.NoError(t, s.AddItem(ctx, ps5, 1, []domain.BundleSelection{cod}))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "g1", items[0].BundleKey())
	assert.Equal(t, "g2", items[1].BundleKey())
}

func TestAddItem_BundleKeyIgnoresSelectionOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, ps5, 1, []domain.BundleSelection{spiderman, cod}))
	require.NoError(t, s.AddItem(ctx, ps5, 1, []domain.BundleSelection{cod, spiderman}))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddItem_QuantityBelowOneDefaultsToOne(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.AddItem(context.Background(), pad, 0, nil))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestUpdateQuantity_FloorsAtOne(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, pad, 2, nil))
	require.NoError(t, s.UpdateQuantity(ctx, "pad", -5))

	items := s.Items()
	assert.Equal(t, 1, items[0].Quantity)
}

func TestUpdateQuantity_Missing(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.UpdateQuantity(context.Background(), "nope", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItem_RemovesAllBundleVariants(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, ps5, 1, []domain.BundleSelection{spiderman}))
	require.NoError(t, s.AddItem(ctx, ps5, 1, []domain.BundleSelection{cod}))
	require.NoError(t, s.AddItem(ctx, pad, 1, nil))

	require.NoError(t, s.RemoveItem(ctx, "ps5"))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "pad", items[0].ProductID)
}

func TestRemoveItem_Missing(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.RemoveItem(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestUpdateMetadata_AttachesBundleSelectionsToFirstMatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, ps5, 1, nil))

	selections := []domain.BundleSelection{spiderman}
	require.NoError(t, s.UpdateMetadata(ctx, "ps5", ItemPatch{BundleSelections: &selections}))

	items := s.Items()
	assert.Equal(t, selections, items[0].BundleSelections)
	assert.Equal(t, "g1", items[0].BundleKey())
}

func TestUpdateVariantMetadata_TargetsExactVariant(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	// Two bundle variants of the same console: one resolved, one not.
	require.NoError(t, s.AddItem(ctx, ps5, 1, []domain.BundleSelection{spiderman}))
	require.NoError(t, s.AddItem(ctx, ps5, 1, nil))

	selections := []domain.BundleSelection{cod}
	require.NoError(t, s.UpdateVariantMetadata(ctx, "ps5", "", ItemPatch{BundleSelections: &selections}))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, []domain.BundleSelection{spiderman}, items[0].BundleSelections,
		"resolved variant keeps its selection")
	assert.Equal(t, []domain.BundleSelection{cod}, items[1].BundleSelections,
		"bare variant is the one patched")
}

func TestUpdateVariantMetadata_UnknownVariant(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, ps5, 1, []domain.BundleSelection{spiderman}))

	selections := []domain.BundleSelection{cod}
	err := s.UpdateVariantMetadata(ctx, "ps5", "", ItemPatch{BundleSelections: &selections})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestUpdateVariantMetadata_CollidingVariantsMerge(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, ps5, 2, []domain.BundleSelection{spiderman}))
	require.NoError(t, s.AddItem(ctx, ps5, 1, nil))

	// Patching the bare variant to the same selection as the resolved one
	// must not leave two line items with the same (productID, bundleKey).
	selections := []domain.BundleSelection{spiderman}
	require.NoError(t, s.UpdateVariantMetadata(ctx, "ps5", "", ItemPatch{BundleSelections: &selections}))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "g1", items[0].BundleKey())
}

func TestCountAndTotal(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, ps5, 1, []domain.BundleSelection{spiderman, cod}))
	require.NoError(t, s.AddItem(ctx, pad, 3, nil))

	assert.Equal(t, 4, s.Count())
	// Bundle selections never contribute to the total.
	assert.Equal(t, int64(650000+3*45000), s.Total())
}

func TestClear(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, pad, 1, nil))
	require.NoError(t, s.Clear(ctx))

	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.Count())
}

func TestRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := newMemKV()

	first := New(ctx, mem, "huulo_cart")
	require.NoError(t, first.AddItem(ctx, ps5, 1, []domain.BundleSelection{spiderman}))
	require.NoError(t, first.AddItem(ctx, pad, 2, nil))

	// Simulate a restart: a fresh store over the same durable storage.
	second := New(ctx, mem, "huulo_cart")
	assert.Equal(t, first.Items(), second.Items())
}

func TestRestore_CorruptSnapshotYieldsEmptyCart(t *testing.T) {
	ctx := context.Background()
	mem := newMemKV()
	require.NoError(t, mem.Set(ctx, "huulo_cart", "{not json"))

	s := New(ctx, mem, "huulo_cart")
	assert.True(t, s.Empty())
}

func TestMutation_PersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	mem := newMemKV()
	s := New(ctx, mem, "huulo_cart")

	require.NoError(t, s.AddItem(ctx, pad, 1, nil))

	raw, err := mem.Get(ctx, "huulo_cart")
	require.NoError(t, err)
	assert.Contains(t, raw, `"product_id":"pad"`)
}
