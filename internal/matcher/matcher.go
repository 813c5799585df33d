// Package matcher finds catalog wines for free-text names.
package matcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vintro/wineresolver/internal/wine"
)

// Matcher resolves a query against the local catalog before any
// external lookup is attempted.
type Matcher struct {
	catalog wine.Catalog
	logger  *zap.Logger
}

// New builds a Matcher.
func New(catalog wine.Catalog, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{catalog: catalog, logger: logger}
}

// FindLocal returns the best local match for a query, or (nil, nil)
// when the catalog has no candidate. Precedence: exact name, then
// alias, then case-insensitive substring. Ties go to the first row the
// catalog returns.
func (m *Matcher) FindLocal(ctx context.Context, q wine.Query) (*wine.CanonicalWine, error) {
	exact, err := m.catalog.FindByName(ctx, q.Name, true, q.Vintage)
	if err != nil {
		return nil, fmt.Errorf("exact name lookup: %w", err)
	}
	if len(exact) > 0 {
		m.logger.Debug("local exact match", zap.String("name", q.Name), zap.String("id", exact[0].ID))
		return &exact[0], nil
	}

	byAlias, err := m.catalog.FindByAlias(ctx, q.Name, q.Vintage)
	if err != nil {
		return nil, fmt.Errorf("alias lookup: %w", err)
	}
	if len(byAlias) > 0 {
		m.logger.Debug("local alias match", zap.String("name", q.Name), zap.String("id", byAlias[0].ID))
		return &byAlias[0], nil
	}

	loose, err := m.catalog.FindByName(ctx, q.Name, false, q.Vintage)
	if err != nil {
		return nil, fmt.Errorf("substring lookup: %w", err)
	}
	if len(loose) > 0 {
		m.logger.Debug("local substring match", zap.String("name", q.Name), zap.String("id", loose[0].ID))
		return &loose[0], nil
	}

	return nil, nil
}
