package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vintro/wineresolver/internal/catalog/memory"
	"github.com/vintro/wineresolver/internal/wine"
)

func TestFindLocalPrefersExactOverAliasOverSubstring(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	exact, err := store.Insert(ctx, wine.CanonicalWine{Name: "Opus One", Vintage: wine.Ptr(2018)})
	require.NoError(t, err)
	aliased, err := store.Insert(ctx, wine.CanonicalWine{
		Name:    "Opus One, Napa Valley",
		Vintage: wine.Ptr(2018),
		Aliases: []string{"Opus One"},
	})
	require.NoError(t, err)

	m := New(store, nil)

	got, err := m.FindLocal(ctx, wine.Query{Name: "Opus One", Vintage: wine.Ptr(2018)})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, exact.ID, got.ID)

	// With the exact row gone, the alias row wins over substring hits.
	store2 := memory.NewStore()
	_, err = store2.Insert(ctx, wine.CanonicalWine{
		Name:    "Opus One, Napa Valley",
		Vintage: wine.Ptr(2018),
		Aliases: []string{"Opus One"},
	})
	require.NoError(t, err)

	got, err = New(store2, nil).FindLocal(ctx, wine.Query{Name: "Opus One", Vintage: wine.Ptr(2018)})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, aliased.Name, got.Name)
}

func TestFindLocalFallsBackToSubstring(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, wine.CanonicalWine{Name: "Opus One, Napa Valley", Vintage: wine.Ptr(2018)})
	require.NoError(t, err)

	got, err := New(store, nil).FindLocal(ctx, wine.Query{Name: "opus one"})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Opus One, Napa Valley", got.Name)
}

func TestFindLocalVintageMismatchMisses(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, wine.CanonicalWine{Name: "Opus One", Vintage: wine.Ptr(2018)})
	require.NoError(t, err)

	got, err := New(store, nil).FindLocal(ctx, wine.Query{Name: "Opus One", Vintage: wine.Ptr(2019)})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestFindLocalMissReturnsNilNil(t *testing.T) {
	t.Parallel()

	got, err := New(memory.NewStore(), nil).FindLocal(context.Background(), wine.Query{Name: "Unknown"})
	require.NoError(t, err)
	require.Nil(t, got)
}

type failingCatalog struct {
	wine.Catalog
}

func (f failingCatalog) FindByName(context.Context, string, bool, *int) ([]wine.CanonicalWine, error) {
	return nil, errors.New("connection reset")
}

func TestFindLocalPropagatesCatalogErrors(t *testing.T) {
	t.Parallel()

	_, err := New(failingCatalog{}, nil).FindLocal(context.Background(), wine.Query{Name: "Opus One"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "exact name lookup")
}
