// Package postgres provides the Postgres-backed catalog implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vintro/wineresolver/internal/wine"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// StoreConfig controls the Postgres connection pool used for catalog rows.
type StoreConfig struct {
	DSN             string
	WinesTable      string
	OffersTable     string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store implements wine.Catalog on Postgres.
type Store struct {
	pool        dbPool
	winesTable  string
	offersTable string
}

const wineColumns = `id, name, winery, vintage, region, country, varietal, type, style,
price, average_price, description, tasting_notes, drinking_window, winemaker_notes,
professional_reviews, food_pairings, abv, image_url, external_id, external_url,
name_alias, created_at, updated_at`

// NewStore creates a Postgres-backed Store using the provided config.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("catalog.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newStore(pool, cfg.WinesTable, cfg.OffersTable)
}

// NewStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewStoreWithPool(pool dbPool, winesTable, offersTable string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newStore(pool, winesTable, offersTable)
}

func newStore(pool dbPool, winesTable, offersTable string) (*Store, error) {
	if winesTable == "" {
		winesTable = "wines"
	}
	if offersTable == "" {
		offersTable = "offers"
	}
	for _, table := range []string{winesTable, offersTable} {
		if !validTableName.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return &Store{pool: pool, winesTable: winesTable, offersTable: offersTable}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// FindByName looks up wines by display name. Exact matches compare for
// equality; otherwise the name is a case-insensitive substring.
func (s *Store) FindByName(ctx context.Context, name string, exact bool, vintage *int) ([]wine.CanonicalWine, error) {
	where := "name ILIKE '%' || $1 || '%'"
	if exact {
		where = "name = $1"
	}
	args := []any{name}
	if vintage != nil {
		where += " AND vintage = $2"
		args = append(args, *vintage)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY updated_at DESC", wineColumns, s.winesTable, where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query wines by name: %w", err)
	}
	defer rows.Close()
	return scanWines(rows)
}

// FindByAlias looks up wines whose alias set contains name.
func (s *Store) FindByAlias(ctx context.Context, name string, vintage *int) ([]wine.CanonicalWine, error) {
	where := "$1 = ANY(name_alias)"
	args := []any{name}
	if vintage != nil {
		where += " AND vintage = $2"
		args = append(args, *vintage)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY updated_at DESC", wineColumns, s.winesTable, where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query wines by alias: %w", err)
	}
	defer rows.Close()
	return scanWines(rows)
}

// FindByExternalID returns the wine holding an external-source ID, or
// (nil, nil) when no row exists.
func (s *Store) FindByExternalID(ctx context.Context, externalID string) (*wine.CanonicalWine, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE external_id = $1 LIMIT 1", wineColumns, s.winesTable)

	w, err := scanWine(s.pool.QueryRow(ctx, query, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query wine by external id: %w", err)
	}
	return &w, nil
}

// FindByID returns the wine with the given catalog ID, or (nil, nil)
// when no row exists.
func (s *Store) FindByID(ctx context.Context, id string) (*wine.CanonicalWine, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 LIMIT 1", wineColumns, s.winesTable)

	w, err := scanWine(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query wine by id: %w", err)
	}
	return &w, nil
}

// Insert stores a new wine, assigning an ID and timestamps when unset.
func (s *Store) Insert(ctx context.Context, w wine.CanonicalWine) (wine.CanonicalWine, error) {
	if w.Name == "" {
		return wine.CanonicalWine{}, fmt.Errorf("wine name is required")
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = now
	}

	query := fmt.Sprintf(`
INSERT INTO %s (%s) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24
)`, s.winesTable, wineColumns)

	args := []any{
		w.ID,
		w.Name,
		w.Winery,
		w.Vintage,
		w.Region,
		w.Country,
		w.Varietal,
		w.Type,
		w.Style,
		w.Price,
		w.AveragePrice,
		w.Description,
		w.TastingNotes,
		w.DrinkingWindow,
		w.WinemakerNotes,
		w.ProfessionalReviews,
		w.FoodPairings,
		w.ABV,
		w.ImageURL,
		w.ExternalID,
		w.ExternalURL,
		w.Aliases,
		w.CreatedAt,
		w.UpdatedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return wine.CanonicalWine{}, fmt.Errorf("insert wine: %w", err)
	}
	return w, nil
}

// Update applies the non-nil fields of upd to the wine with the given
// ID and returns the updated row.
func (s *Store) Update(ctx context.Context, id string, upd wine.WineUpdate) (wine.CanonicalWine, error) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Winery != nil {
		add("winery", *upd.Winery)
	}
	if upd.Vintage != nil {
		add("vintage", *upd.Vintage)
	}
	if upd.Region != nil {
		add("region", *upd.Region)
	}
	if upd.Country != nil {
		add("country", *upd.Country)
	}
	if upd.Varietal != nil {
		add("varietal", *upd.Varietal)
	}
	if upd.Type != nil {
		add("type", *upd.Type)
	}
	if upd.Style != nil {
		add("style", *upd.Style)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.AveragePrice != nil {
		add("average_price", *upd.AveragePrice)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.TastingNotes != nil {
		add("tasting_notes", *upd.TastingNotes)
	}
	if upd.DrinkingWindow != nil {
		add("drinking_window", *upd.DrinkingWindow)
	}
	if upd.WinemakerNotes != nil {
		add("winemaker_notes", *upd.WinemakerNotes)
	}
	if upd.ProfessionalReviews != nil {
		add("professional_reviews", *upd.ProfessionalReviews)
	}
	if upd.FoodPairings != nil {
		add("food_pairings", *upd.FoodPairings)
	}
	if upd.ABV != nil {
		add("abv", *upd.ABV)
	}
	if upd.ImageURL != nil {
		add("image_url", *upd.ImageURL)
	}
	if upd.ExternalID != nil {
		add("external_id", *upd.ExternalID)
	}
	if upd.ExternalURL != nil {
		add("external_url", *upd.ExternalURL)
	}
	if upd.Aliases != nil {
		add("name_alias", *upd.Aliases)
	}

	add("updated_at", time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		s.winesTable, strings.Join(sets, ", "), len(args), wineColumns,
	)

	w, err := scanWine(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return wine.CanonicalWine{}, fmt.Errorf("update wine %s: %w", id, wine.ErrNotFound)
	}
	if err != nil {
		return wine.CanonicalWine{}, fmt.Errorf("update wine: %w", err)
	}
	return w, nil
}

// UpsertOffers replaces the offer set for an external wine ID inside a
// single transaction.
func (s *Store) UpsertOffers(ctx context.Context, wineID string, offers []wine.Offer) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin offers tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE wine_id = $1", s.offersTable)
	if _, err := tx.Exec(ctx, deleteQuery, wineID); err != nil {
		return fmt.Errorf("delete stale offers: %w", err)
	}

	insertQuery := fmt.Sprintf(`
INSERT INTO %s (
	wine_id, price, unit_price, description, seller_name, url,
	seller_address_region, seller_address_country, name
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, s.offersTable)

	for _, o := range offers {
		args := []any{
			wineID,
			o.Price,
			o.UnitPrice,
			o.Description,
			o.SellerName,
			o.URL,
			o.SellerRegion,
			o.SellerCountry,
			o.Name,
		}
		if _, err := tx.Exec(ctx, insertQuery, args...); err != nil {
			return fmt.Errorf("insert offer: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit offers tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWine(row rowScanner) (wine.CanonicalWine, error) {
	var w wine.CanonicalWine
	err := row.Scan(
		&w.ID,
		&w.Name,
		&w.Winery,
		&w.Vintage,
		&w.Region,
		&w.Country,
		&w.Varietal,
		&w.Type,
		&w.Style,
		&w.Price,
		&w.AveragePrice,
		&w.Description,
		&w.TastingNotes,
		&w.DrinkingWindow,
		&w.WinemakerNotes,
		&w.ProfessionalReviews,
		&w.FoodPairings,
		&w.ABV,
		&w.ImageURL,
		&w.ExternalID,
		&w.ExternalURL,
		&w.Aliases,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return wine.CanonicalWine{}, err
	}
	return w, nil
}

func scanWines(rows pgx.Rows) ([]wine.CanonicalWine, error) {
	var out []wine.CanonicalWine
	for rows.Next() {
		w, err := scanWine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wine row: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wine rows: %w", err)
	}
	return out, nil
}
