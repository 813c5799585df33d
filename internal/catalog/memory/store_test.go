package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vintro/wineresolver/internal/wine"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestTimestampsComeFromClock(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	store := NewStoreWithClock(fixedClock{now: now})

	inserted, err := store.Insert(context.Background(), wine.CanonicalWine{Name: "Opus One"})
	require.NoError(t, err)
	require.Equal(t, now, inserted.CreatedAt)
	require.Equal(t, now, inserted.UpdatedAt)
}

func TestInsertAndFindByName(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	inserted, err := store.Insert(ctx, wine.CanonicalWine{
		Name:    "Opus One",
		Vintage: wine.Ptr(2018),
	})
	require.NoError(t, err)
	require.NotEmpty(t, inserted.ID)
	require.False(t, inserted.CreatedAt.IsZero())

	exact, err := store.FindByName(ctx, "Opus One", true, wine.Ptr(2018))
	require.NoError(t, err)
	require.Len(t, exact, 1)

	// Exact match is case-sensitive.
	none, err := store.FindByName(ctx, "opus one", true, nil)
	require.NoError(t, err)
	require.Empty(t, none)

	// Substring match is not.
	loose, err := store.FindByName(ctx, "opus", false, nil)
	require.NoError(t, err)
	require.Len(t, loose, 1)
}

func TestFindByNameVintageFilter(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, wine.CanonicalWine{Name: "Opus One", Vintage: wine.Ptr(2018)})
	require.NoError(t, err)
	_, err = store.Insert(ctx, wine.CanonicalWine{Name: "Opus One", Vintage: wine.Ptr(2019)})
	require.NoError(t, err)

	got, err := store.FindByName(ctx, "Opus One", true, wine.Ptr(2019))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 2019, *got[0].Vintage)

	all, err := store.FindByName(ctx, "Opus One", true, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestFindByAlias(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, wine.CanonicalWine{
		Name:    "Opus One",
		Vintage: wine.Ptr(2018),
		Aliases: []string{"opus one napa 2018"},
	})
	require.NoError(t, err)

	got, err := store.FindByAlias(ctx, "opus one napa 2018", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)

	none, err := store.FindByAlias(ctx, "unknown alias", nil)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestFindByExternalID(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, wine.CanonicalWine{
		Name:       "Opus One",
		ExternalID: wine.Ptr("14539_2018"),
	})
	require.NoError(t, err)

	got, err := store.FindByExternalID(ctx, "14539_2018")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Opus One", got.Name)

	missing, err := store.FindByExternalID(ctx, "0_0")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestFindByID(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	inserted, err := store.Insert(ctx, wine.CanonicalWine{Name: "Opus One"})
	require.NoError(t, err)

	got, err := store.FindByID(ctx, inserted.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Opus One", got.Name)

	missing, err := store.FindByID(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestUpdatePartialFields(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	inserted, err := store.Insert(ctx, wine.CanonicalWine{
		Name:   "Opus One",
		Region: wine.Ptr("Napa Valley"),
	})
	require.NoError(t, err)

	updated, err := store.Update(ctx, inserted.ID, wine.WineUpdate{
		TastingNotes: wine.Ptr("Dark cherry and cedar."),
	})
	require.NoError(t, err)
	require.Equal(t, "Dark cherry and cedar.", *updated.TastingNotes)
	// Untouched fields survive.
	require.Equal(t, "Napa Valley", *updated.Region)
	require.Equal(t, "Opus One", updated.Name)
	require.True(t, updated.UpdatedAt.After(inserted.UpdatedAt) || updated.UpdatedAt.Equal(inserted.UpdatedAt))
}

func TestUpdateMissingWine(t *testing.T) {
	t.Parallel()

	store := NewStore()
	_, err := store.Update(context.Background(), "missing", wine.WineUpdate{Name: wine.Ptr("x")})
	require.ErrorIs(t, err, wine.ErrNotFound)
}

func TestUpsertOffersReplaces(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	first := []wine.Offer{{WineID: "14539_2018", Price: wine.Ptr(349.0)}}
	require.NoError(t, store.UpsertOffers(ctx, "14539_2018", first))
	require.Len(t, store.Offers("14539_2018"), 1)

	second := []wine.Offer{
		{WineID: "14539_2018", Price: wine.Ptr(340.0)},
		{WineID: "14539_2018", Price: wine.Ptr(355.0)},
	}
	require.NoError(t, store.UpsertOffers(ctx, "14539_2018", second))
	require.Len(t, store.Offers("14539_2018"), 2)
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, wine.CanonicalWine{ID: "fixed", Name: "Opus One"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, wine.CanonicalWine{ID: "fixed", Name: "Opus One"})
	require.Error(t, err)
}
