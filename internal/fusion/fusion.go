// Package fusion reconciles external snapshots into canonical catalog
// records: creating new wines, filling gaps on existing ones, and
// maintaining the alias set that links free-text names to records.
package fusion

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vintro/wineresolver/internal/wine"
)

// Manager merges snapshots into the catalog.
type Manager struct {
	catalog wine.Catalog
	logger  *zap.Logger
}

// New builds a Manager.
func New(catalog wine.Catalog, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{catalog: catalog, logger: logger}
}

// Reconcile folds a page snapshot (and an optional AI-derived one) into
// the catalog and returns the persisted record. Narrative fields from
// the AI snapshot always overwrite what the catalog holds; every other
// field only fills gaps. The query name becomes an alias when it
// differs from the canonical display name.
func (m *Manager) Reconcile(
	ctx context.Context,
	q wine.Query,
	snap *wine.Snapshot,
	aiSnap *wine.Snapshot,
	offers []wine.Offer,
) (*wine.CanonicalWine, error) {
	merged := mergeSnapshots(snap, aiSnap)

	existing, err := m.catalog.FindByExternalID(ctx, merged.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup by external id: %w", err)
	}

	var persisted wine.CanonicalWine
	if existing == nil {
		persisted, err = m.insertNew(ctx, q, merged)
	} else {
		persisted, err = m.updateExisting(ctx, q, merged, *existing)
	}
	if err != nil {
		return nil, err
	}

	// An empty list still replaces the prior set: offers mirror the
	// latest fetch, stale ones do not linger.
	if err := m.catalog.UpsertOffers(ctx, merged.ID, offers); err != nil {
		return nil, fmt.Errorf("upsert offers: %w", err)
	}

	return &persisted, nil
}

func (m *Manager) insertNew(ctx context.Context, q wine.Query, snap *wine.Snapshot) (wine.CanonicalWine, error) {
	name := q.Name
	if snap.Name != nil {
		name = displayName(*snap.Name, snap.Vintage)
	}

	w := wine.CanonicalWine{
		Name:                name,
		Winery:              snap.Producer,
		Vintage:             wine.Ptr(snap.Vintage),
		Region:              snap.Region,
		Country:             countryFromOrigin(snap.Origin),
		Varietal:            snap.GrapeVariety,
		Type:                snap.WineType,
		Style:               snap.WineStyle,
		Price:               snap.MinPrice,
		AveragePrice:        snap.AveragePrice,
		Description:         snap.Description,
		TastingNotes:        snap.TastingNotes,
		DrinkingWindow:      snap.DrinkingWindow,
		WinemakerNotes:      snap.WinemakerNotes,
		ProfessionalReviews: snap.ProfessionalReviews,
		FoodPairings:        snap.FoodPairings,
		ABV:                 snap.ABV,
		ImageURL:            snap.Image,
		ExternalID:          wine.Ptr(snap.ID),
		ExternalURL:         snap.URL,
	}
	if q.Name != w.Name {
		w.Aliases = []string{q.Name}
	}

	inserted, err := m.catalog.Insert(ctx, w)
	if err != nil {
		return wine.CanonicalWine{}, fmt.Errorf("insert wine: %w", err)
	}
	m.logger.Info("catalog wine created",
		zap.String("id", inserted.ID),
		zap.String("name", inserted.Name),
		zap.String("external_id", snap.ID))
	return inserted, nil
}

func (m *Manager) updateExisting(
	ctx context.Context,
	q wine.Query,
	snap *wine.Snapshot,
	existing wine.CanonicalWine,
) (wine.CanonicalWine, error) {
	var upd wine.WineUpdate
	dirty := false

	fillString := func(dst **string, current *string, value *string) {
		if current == nil && value != nil {
			*dst = value
			dirty = true
		}
	}
	overwriteString := func(dst **string, current *string, value *string) {
		if value != nil && (current == nil || *current != *value) {
			*dst = value
			dirty = true
		}
	}

	fillString(&upd.Winery, existing.Winery, snap.Producer)
	fillString(&upd.Region, existing.Region, snap.Region)
	fillString(&upd.Country, existing.Country, countryFromOrigin(snap.Origin))
	fillString(&upd.Varietal, existing.Varietal, snap.GrapeVariety)
	fillString(&upd.Type, existing.Type, snap.WineType)
	fillString(&upd.Style, existing.Style, snap.WineStyle)
	fillString(&upd.Description, existing.Description, snap.Description)
	fillString(&upd.ABV, existing.ABV, snap.ABV)
	fillString(&upd.ImageURL, existing.ImageURL, snap.Image)
	fillString(&upd.ExternalURL, existing.ExternalURL, snap.URL)
	if existing.Price == nil && snap.MinPrice != nil {
		upd.Price = snap.MinPrice
		dirty = true
	}
	if existing.AveragePrice == nil && snap.AveragePrice != nil {
		upd.AveragePrice = snap.AveragePrice
		dirty = true
	}
	if existing.Vintage == nil {
		upd.Vintage = wine.Ptr(snap.Vintage)
		dirty = true
	}

	// Narrative fields track the freshest enrichment.
	overwriteString(&upd.TastingNotes, existing.TastingNotes, snap.TastingNotes)
	overwriteString(&upd.DrinkingWindow, existing.DrinkingWindow, snap.DrinkingWindow)
	overwriteString(&upd.WinemakerNotes, existing.WinemakerNotes, snap.WinemakerNotes)
	overwriteString(&upd.ProfessionalReviews, existing.ProfessionalReviews, snap.ProfessionalReviews)
	overwriteString(&upd.FoodPairings, existing.FoodPairings, snap.FoodPairings)

	if q.Name != existing.Name && !existing.HasAlias(q.Name) {
		aliases := append(append([]string(nil), existing.Aliases...), q.Name)
		upd.Aliases = &aliases
		dirty = true
	}

	if !dirty {
		return existing, nil
	}

	updated, err := m.catalog.Update(ctx, existing.ID, upd)
	if err != nil {
		return wine.CanonicalWine{}, fmt.Errorf("update wine: %w", err)
	}
	m.logger.Info("catalog wine enriched",
		zap.String("id", updated.ID),
		zap.String("name", updated.Name),
		zap.String("external_id", snap.ID))
	return updated, nil
}

// mergeSnapshots overlays the AI snapshot onto the page snapshot. The
// AI one owns the narrative fields; everything else fills gaps only.
func mergeSnapshots(snap, aiSnap *wine.Snapshot) *wine.Snapshot {
	merged := *snap
	if aiSnap == nil {
		return &merged
	}

	if aiSnap.TastingNotes != nil {
		merged.TastingNotes = aiSnap.TastingNotes
	}
	if aiSnap.DrinkingWindow != nil {
		merged.DrinkingWindow = aiSnap.DrinkingWindow
	}
	if aiSnap.WinemakerNotes != nil {
		merged.WinemakerNotes = aiSnap.WinemakerNotes
	}
	if aiSnap.ProfessionalReviews != nil {
		merged.ProfessionalReviews = aiSnap.ProfessionalReviews
	}
	if aiSnap.FoodPairings != nil {
		merged.FoodPairings = aiSnap.FoodPairings
	}

	if merged.Description == nil {
		merged.Description = aiSnap.Description
	}
	if merged.Region == nil {
		merged.Region = aiSnap.Region
	}
	if merged.Origin == nil {
		merged.Origin = aiSnap.Origin
	}
	if merged.GrapeVariety == nil {
		merged.GrapeVariety = aiSnap.GrapeVariety
	}
	if merged.Producer == nil {
		merged.Producer = aiSnap.Producer
	}
	if merged.WineType == nil {
		merged.WineType = aiSnap.WineType
	}
	if merged.WineStyle == nil {
		merged.WineStyle = aiSnap.WineStyle
	}
	if merged.ABV == nil {
		merged.ABV = aiSnap.ABV
	}
	if merged.Image == nil {
		merged.Image = aiSnap.Image
	}
	if merged.AveragePrice == nil {
		merged.AveragePrice = aiSnap.AveragePrice
	}

	return &merged
}

// displayName strips the snapshot's vintage when it appears inside the
// page name, so "Opus One 2018" and "Opus One 2019" collapse onto one
// canonical name. Only that year is removed; other numeric tokens are
// part of the name ("1000 Stories" is a brand, not a vintage).
func displayName(name string, vintage int) string {
	year := strconv.Itoa(vintage)
	if len(year) != 4 {
		return name
	}
	pattern := regexp.MustCompile(`\s*\b` + year + `\b\s*`)
	cleaned := strings.Join(strings.Fields(pattern.ReplaceAllString(name, " ")), " ")
	if cleaned == "" {
		return name
	}
	return cleaned
}

// countryFromOrigin takes the most general component of the origin
// breadcrumb, e.g. "Oakville, Napa Valley, California" yields
// "California"; a single-component origin passes through whole.
func countryFromOrigin(origin *string) *string {
	if origin == nil {
		return nil
	}
	parts := strings.Split(*origin, ",")
	country := strings.TrimSpace(parts[len(parts)-1])
	if country == "" {
		return nil
	}
	return &country
}
