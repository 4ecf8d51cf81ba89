package repos_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopapi/internal/domain"
	"shopapi/internal/repos"
)

// memdb opens a fresh seeded in-memory database.
func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestProductCreateAndGet(t *testing.T) {
	ctx := context.Background()
	r := repos.NewProductRepo(memdb(t))

	unit := domain.UnitGram
	size := 250
	p, err := r.Create(ctx, domain.NewProduct{
		Name:        "Dark Roast Coffee",
		Description: "Whole bean",
		CategoryID:  3,
		Price:       decimal.RequireFromString("7.5"),
		Stock:       12,
		Size:        &size,
		Unit:        &unit,
		IsAvailable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "dark-roast-coffee", p.Slug)
	assert.Equal(t, "7.50", p.Price.StringFixed(2))
	require.NotNil(t, p.Unit)
	assert.Equal(t, domain.UnitGram, *p.Unit)

	got, err := r.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("7.50")))
}

func TestProductCreateConflictsOnName(t *testing.T) {
	ctx := context.Background()
	r := repos.NewProductRepo(memdb(t))

	_, err := r.Create(ctx, domain.NewProduct{Name: "Running Shoe", CategoryID: 1, Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestProductCreateUnknownCategory(t *testing.T) {
	r := repos.NewProductRepo(memdb(t))
	_, err := r.Create(context.Background(), domain.NewProduct{Name: "Orphan", CategoryID: 99, Price: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductGetMissing(t *testing.T) {
	_, err := repos.NewProductRepo(memdb(t)).Get(context.Background(), 4242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUpdatePartial(t *testing.T) {
	ctx := context.Background()
	r := repos.NewProductRepo(memdb(t))

	stock := 3
	p, err := r.Update(ctx, 1, domain.ProductPatch{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, "Running Shoe", p.Name)
	assert.Equal(t, "89.99", p.Price.StringFixed(2))

	name := "Trail Shoe"
	p, err = r.Update(ctx, 1, domain.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "trail-shoe", p.Slug)
	assert.Equal(t, 3, p.Stock)
}

func TestProductUpdateNameConflict(t *testing.T) {
	name := "Canvas Shoe"
	_, err := repos.NewProductRepo(memdb(t)).Update(context.Background(), 1, domain.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestProductUpdateMissing(t *testing.T) {
	stock := 1
	_, err := repos.NewProductRepo(memdb(t)).Update(context.Background(), 999, domain.ProductPatch{Stock: &stock})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductDelete(t *testing.T) {
	ctx := context.Background()
	r := repos.NewProductRepo(memdb(t))

	require.NoError(t, r.Delete(ctx, 2))
	_, err := r.Get(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, 2), domain.ErrNotFound)
}

func TestProductListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	r := repos.NewProductRepo(memdb(t))

	all, err := r.List(ctx, domain.ProductQuery{Limit: 10})
	require.NoError(t, err)
	// Sparkling Water is unavailable and must not be listed.
	assert.Len(t, all, 4)
	for _, p := range all {
		assert.True(t, p.IsAvailable)
	}

	shoes, err := r.List(ctx, domain.ProductQuery{Q: "SHOE", Limit: 10})
	require.NoError(t, err)
	require.Len(t, shoes, 2)
	assert.Equal(t, "Running Shoe", shoes[0].Name)

	byDesc, err := r.List(ctx, domain.ProductQuery{Q: "virgin", Limit: 10})
	require.NoError(t, err)
	require.Len(t, byDesc, 1)
	assert.Equal(t, "Olive Oil", byDesc[0].Name)

	page, err := r.List(ctx, domain.ProductQuery{Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[1].ID, page[0].ID)
	assert.Equal(t, all[2].ID, page[1].ID)

	none, err := r.List(ctx, domain.ProductQuery{Q: "100%", Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "olive-oil-1l", repos.Slugify("  Olive Oil (1L) "))
	assert.Equal(t, "a-b", repos.Slugify("A -- B!"))
}
