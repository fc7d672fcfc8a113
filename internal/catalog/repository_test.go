package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huulo/storefront/internal/domain"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations("./migrations"))
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedProduct(t *testing.T, repo *Repository, p domain.Product) {
	t.Helper()
	_, err := repo.db.Exec(
		`INSERT INTO products (id, name, image, category, price) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Image, p.Category, p.Price)
	require.NoError(t, err)
}

func TestListByCategory(t *testing.T) {
	repo := newTestRepository(t)
	seedProduct(t, repo, domain.Product{ID: "ps5", Name: "PlayStation 5", Category: domain.CategoryConsole, Price: 650000})
	seedProduct(t, repo, domain.Product{ID: "g1", Name: "Spider-Man 2", Category: domain.CategoryGame, Price: 55000})
	seedProduct(t, repo, domain.Product{ID: "g2", Name: "COD MW3", Category: domain.CategoryGame, Price: 60000})

	games, err := repo.ListByCategory(context.Background(), domain.CategoryGame)
	require.NoError(t, err)

	require.Len(t, games, 2)
	// Ordered by name.
	assert.Equal(t, "g2", games[0].ID)
	assert.Equal(t, "g1", games[1].ID)
}

func TestListByCategory_EmptyCategory(t *testing.T) {
	repo := newTestRepository(t)

	games, err := repo.ListByCategory(context.Background(), domain.CategoryGame)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestGet(t *testing.T) {
	repo := newTestRepository(t)
	seedProduct(t, repo, domain.Product{ID: "ps5", Name: "PlayStation 5", Category: domain.CategoryConsole, Price: 650000})

	p, err := repo.Get(context.Background(), "ps5")
	require.NoError(t, err)
	assert.Equal(t, "PlayStation 5", p.Name)

	_, err = repo.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
