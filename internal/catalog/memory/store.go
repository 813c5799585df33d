// Package memory provides an in-memory catalog for development/testing.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vintro/wineresolver/internal/clock/system"
	"github.com/vintro/wineresolver/internal/wine"
)

// Store implements wine.Catalog with maps guarded by a RWMutex.
type Store struct {
	mu     sync.RWMutex
	clock  wine.Clock
	wines  map[string]wine.CanonicalWine
	offers map[string][]wine.Offer
}

// NewStore constructs a Store on the system clock.
func NewStore() *Store {
	return NewStoreWithClock(system.New())
}

// NewStoreWithClock constructs a Store with an injected clock.
func NewStoreWithClock(clock wine.Clock) *Store {
	return &Store{
		clock:  clock,
		wines:  make(map[string]wine.CanonicalWine),
		offers: make(map[string][]wine.Offer),
	}
}

// FindByName looks up wines by display name.
func (s *Store) FindByName(_ context.Context, name string, exact bool, vintage *int) ([]wine.CanonicalWine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []wine.CanonicalWine
	lowered := strings.ToLower(name)
	for _, w := range s.wines {
		if exact {
			if w.Name != name {
				continue
			}
		} else if !strings.Contains(strings.ToLower(w.Name), lowered) {
			continue
		}
		if !matchesVintage(w, vintage) {
			continue
		}
		out = append(out, cloneWine(w))
	}
	return out, nil
}

// FindByAlias looks up wines whose alias set contains name.
func (s *Store) FindByAlias(_ context.Context, name string, vintage *int) ([]wine.CanonicalWine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []wine.CanonicalWine
	for _, w := range s.wines {
		if !w.HasAlias(name) || !matchesVintage(w, vintage) {
			continue
		}
		out = append(out, cloneWine(w))
	}
	return out, nil
}

// FindByExternalID returns the wine holding an external-source ID, or
// (nil, nil) when absent.
func (s *Store) FindByExternalID(_ context.Context, externalID string) (*wine.CanonicalWine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.wines {
		if w.ExternalID != nil && *w.ExternalID == externalID {
			clone := cloneWine(w)
			return &clone, nil
		}
	}
	return nil, nil
}

// FindByID returns the wine with the given catalog ID, or (nil, nil)
// when absent.
func (s *Store) FindByID(_ context.Context, id string) (*wine.CanonicalWine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wines[id]
	if !ok {
		return nil, nil
	}
	clone := cloneWine(w)
	return &clone, nil
}

// Insert stores a new wine, assigning an ID and timestamps when unset.
func (s *Store) Insert(_ context.Context, w wine.CanonicalWine) (wine.CanonicalWine, error) {
	if w.Name == "" {
		return wine.CanonicalWine{}, fmt.Errorf("wine name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if _, exists := s.wines[w.ID]; exists {
		return wine.CanonicalWine{}, fmt.Errorf("wine %s already exists", w.ID)
	}
	now := s.clock.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = now
	}
	s.wines[w.ID] = cloneWine(w)
	return w, nil
}

// Update applies the non-nil fields of upd to the stored wine.
func (s *Store) Update(_ context.Context, id string, upd wine.WineUpdate) (wine.CanonicalWine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wines[id]
	if !ok {
		return wine.CanonicalWine{}, fmt.Errorf("update wine %s: %w", id, wine.ErrNotFound)
	}

	if upd.Name != nil {
		w.Name = *upd.Name
	}
	if upd.Winery != nil {
		w.Winery = upd.Winery
	}
	if upd.Vintage != nil {
		w.Vintage = upd.Vintage
	}
	if upd.Region != nil {
		w.Region = upd.Region
	}
	if upd.Country != nil {
		w.Country = upd.Country
	}
	if upd.Varietal != nil {
		w.Varietal = upd.Varietal
	}
	if upd.Type != nil {
		w.Type = upd.Type
	}
	if upd.Style != nil {
		w.Style = upd.Style
	}
	if upd.Price != nil {
		w.Price = upd.Price
	}
	if upd.AveragePrice != nil {
		w.AveragePrice = upd.AveragePrice
	}
	if upd.Description != nil {
		w.Description = upd.Description
	}
	if upd.TastingNotes != nil {
		w.TastingNotes = upd.TastingNotes
	}
	if upd.DrinkingWindow != nil {
		w.DrinkingWindow = upd.DrinkingWindow
	}
	if upd.WinemakerNotes != nil {
		w.WinemakerNotes = upd.WinemakerNotes
	}
	if upd.ProfessionalReviews != nil {
		w.ProfessionalReviews = upd.ProfessionalReviews
	}
	if upd.FoodPairings != nil {
		w.FoodPairings = upd.FoodPairings
	}
	if upd.ABV != nil {
		w.ABV = upd.ABV
	}
	if upd.ImageURL != nil {
		w.ImageURL = upd.ImageURL
	}
	if upd.ExternalID != nil {
		w.ExternalID = upd.ExternalID
	}
	if upd.ExternalURL != nil {
		w.ExternalURL = upd.ExternalURL
	}
	if upd.Aliases != nil {
		w.Aliases = append([]string(nil), (*upd.Aliases)...)
	}
	w.UpdatedAt = s.clock.Now()

	s.wines[id] = cloneWine(w)
	return w, nil
}

// UpsertOffers replaces the offer set for an external wine ID.
func (s *Store) UpsertOffers(_ context.Context, wineID string, offers []wine.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]wine.Offer, len(offers))
	copy(out, offers)
	s.offers[wineID] = out
	return nil
}

// Offers returns the stored offer set for an external wine ID.
func (s *Store) Offers(wineID string) []wine.Offer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offers := s.offers[wineID]
	out := make([]wine.Offer, len(offers))
	copy(out, offers)
	return out
}

func matchesVintage(w wine.CanonicalWine, vintage *int) bool {
	if vintage == nil {
		return true
	}
	return w.Vintage != nil && *w.Vintage == *vintage
}

func cloneWine(w wine.CanonicalWine) wine.CanonicalWine {
	w.Aliases = append([]string(nil), w.Aliases...)
	return w
}
