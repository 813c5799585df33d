// Package wine defines core types shared across subsystems.
package wine

import (
	"fmt"
	"time"
)

// NonVintage is the sentinel vintage for wines without a year
// (the external site labels these "All").
const NonVintage = 1

// CanonicalWine is the catalog's unit of truth for one wine+vintage.
type CanonicalWine struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Winery              *string   `json:"winery,omitempty"`
	Vintage             *int      `json:"vintage,omitempty"`
	Region              *string   `json:"region,omitempty"`
	Country             *string   `json:"country,omitempty"`
	Varietal            *string   `json:"varietal,omitempty"`
	Type                *string   `json:"type,omitempty"`
	Style               *string   `json:"style,omitempty"`
	Price               *float64  `json:"price,omitempty"`
	AveragePrice        *float64  `json:"average_price,omitempty"`
	Description         *string   `json:"description,omitempty"`
	TastingNotes        *string   `json:"tasting_notes,omitempty"`
	DrinkingWindow      *string   `json:"drinking_window,omitempty"`
	WinemakerNotes      *string   `json:"winemaker_notes,omitempty"`
	ProfessionalReviews *string   `json:"professional_reviews,omitempty"`
	FoodPairings        *string   `json:"food_pairings,omitempty"`
	ABV                 *string   `json:"abv,omitempty"`
	ImageURL            *string   `json:"image_url,omitempty"`
	ExternalID          *string   `json:"external_id,omitempty"`
	ExternalURL         *string   `json:"external_url,omitempty"`
	Aliases             []string  `json:"name_alias,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// HasAlias reports whether name is already in the alias set.
func (w CanonicalWine) HasAlias(name string) bool {
	for _, a := range w.Aliases {
		if a == name {
			return true
		}
	}
	return false
}

// WineUpdate carries a partial update; nil fields are left untouched.
type WineUpdate struct {
	Name                *string   `json:"name,omitempty"`
	Winery              *string   `json:"winery,omitempty"`
	Vintage             *int      `json:"vintage,omitempty"`
	Region              *string   `json:"region,omitempty"`
	Country             *string   `json:"country,omitempty"`
	Varietal            *string   `json:"varietal,omitempty"`
	Type                *string   `json:"type,omitempty"`
	Style               *string   `json:"style,omitempty"`
	Price               *float64  `json:"price,omitempty"`
	AveragePrice        *float64  `json:"average_price,omitempty"`
	Description         *string   `json:"description,omitempty"`
	TastingNotes        *string   `json:"tasting_notes,omitempty"`
	DrinkingWindow      *string   `json:"drinking_window,omitempty"`
	WinemakerNotes      *string   `json:"winemaker_notes,omitempty"`
	ProfessionalReviews *string   `json:"professional_reviews,omitempty"`
	FoodPairings        *string   `json:"food_pairings,omitempty"`
	ABV                 *string   `json:"abv,omitempty"`
	ImageURL            *string   `json:"image_url,omitempty"`
	ExternalID          *string   `json:"external_id,omitempty"`
	ExternalURL         *string   `json:"external_url,omitempty"`
	Aliases             *[]string `json:"name_alias,omitempty"`
}

// Snapshot is the ephemeral bundle of fields extracted from one external
// page fetch. It is never persisted directly, only merged into a
// CanonicalWine. AI-derived secondary snapshots reuse the same type with
// the text fields at the bottom populated.
type Snapshot struct {
	ID           string   `json:"id"`
	ExternalID   *int     `json:"external_id,omitempty"`
	Vintage      int      `json:"vintage"`
	Name         *string  `json:"name,omitempty"`
	URL          *string  `json:"url,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Region       *string  `json:"region,omitempty"`
	Origin       *string  `json:"origin,omitempty"`
	GrapeVariety *string  `json:"grape_variety,omitempty"`
	Image        *string  `json:"image,omitempty"`
	Producer     *string  `json:"producer,omitempty"`
	AveragePrice *float64 `json:"average_price,omitempty"`
	MinPrice     *float64 `json:"min_price,omitempty"`
	WineType     *string  `json:"wine_type,omitempty"`
	WineStyle    *string  `json:"wine_style,omitempty"`
	OffersCount  int      `json:"offers_count"`

	TastingNotes        *string `json:"tasting_notes,omitempty"`
	DrinkingWindow      *string `json:"drinking_window,omitempty"`
	WinemakerNotes      *string `json:"winemaker_notes,omitempty"`
	ProfessionalReviews *string `json:"professional_reviews,omitempty"`
	FoodPairings        *string `json:"food_pairings,omitempty"`
	ABV                 *string `json:"abv,omitempty"`
}

// SnapshotID builds the composite snapshot identifier.
func SnapshotID(externalID, vintage int) string {
	return fmt.Sprintf("%d_%d", externalID, vintage)
}

// Offer is one seller's listing for a specific wine+vintage.
type Offer struct {
	WineID        string   `json:"wine_id"`
	Price         *float64 `json:"price,omitempty"`
	UnitPrice     *float64 `json:"unit_price,omitempty"`
	Description   *string  `json:"description,omitempty"`
	SellerName    *string  `json:"seller_name,omitempty"`
	URL           *string  `json:"url,omitempty"`
	SellerRegion  *string  `json:"seller_address_region,omitempty"`
	SellerCountry *string  `json:"seller_address_country,omitempty"`
	Name          *string  `json:"name,omitempty"`
}

// Query is one resolution request.
type Query struct {
	Name    string `json:"name"`
	Vintage *int   `json:"vintage,omitempty"`
}

// Ptr returns a pointer to v; handy for optional fields.
func Ptr[T any](v T) *T {
	return &v
}
