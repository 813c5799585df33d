package wine

import (
	"context"
	"time"
)

// Catalog is the persistence collaborator that exclusively owns
// CanonicalWine storage. Each call is independently consistent; no
// multi-call transactions are assumed.
type Catalog interface {
	// FindByName returns wines whose display name matches. With exact set
	// the comparison is case-sensitive equality, otherwise a
	// case-insensitive substring match. A non-nil vintage filters by
	// exact equality.
	FindByName(ctx context.Context, name string, exact bool, vintage *int) ([]CanonicalWine, error)
	// FindByAlias returns wines whose alias set contains name.
	FindByAlias(ctx context.Context, name string, vintage *int) ([]CanonicalWine, error)
	// FindByExternalID returns the wine holding the external-source
	// identifier, or (nil, nil) when no row exists.
	FindByExternalID(ctx context.Context, externalID string) (*CanonicalWine, error)
	// FindByID returns the wine with the given catalog ID, or (nil, nil)
	// when no row exists.
	FindByID(ctx context.Context, id string) (*CanonicalWine, error)
	Insert(ctx context.Context, w CanonicalWine) (CanonicalWine, error)
	Update(ctx context.Context, id string, upd WineUpdate) (CanonicalWine, error)
	// UpsertOffers replaces the offer set for the given external wine ID.
	UpsertOffers(ctx context.Context, wineID string, offers []Offer) error
}

// PageCache stores raw markup keyed by source URL.
type PageCache interface {
	// Load returns the cached markup and whether the key was present.
	Load(ctx context.Context, url string) (string, bool)
	// Save writes markup for a URL. Write-once per key in practice;
	// concurrent writers to the same key are last-write-wins.
	Save(ctx context.Context, url string, html string) error
}

// Fetcher retrieves raw markup for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Enricher produces an AI-derived secondary snapshot for a wine, or nil
// when it has nothing to add. Implementations live outside this core.
type Enricher interface {
	Enrich(ctx context.Context, name string, vintage *int) (*Snapshot, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
