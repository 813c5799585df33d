// Package resolver orchestrates wine resolution: local catalog lookup,
// external search, fusion, and placeholder fallback.
package resolver

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vintro/wineresolver/internal/fusion"
	"github.com/vintro/wineresolver/internal/matcher"
	"github.com/vintro/wineresolver/internal/metrics"
	"github.com/vintro/wineresolver/internal/wine"
	"github.com/vintro/wineresolver/internal/winesearcher"
)

// Config controls resolver behavior.
type Config struct {
	// Concurrency caps in-flight resolutions during batch requests.
	Concurrency int
}

// Resolver turns free-text wine queries into canonical catalog records.
type Resolver struct {
	matcher  *matcher.Matcher
	client   *winesearcher.Client
	fusion   *fusion.Manager
	catalog  wine.Catalog
	enricher wine.Enricher
	cfg      Config
	logger   *zap.Logger
}

// Outcome is one batch resolution result, in input order.
type Outcome struct {
	Query wine.Query
	Wine  *wine.CanonicalWine
	Err   error
}

// New builds a Resolver. The enricher is optional; pass nil to skip
// AI enrichment.
func New(
	m *matcher.Matcher,
	client *winesearcher.Client,
	f *fusion.Manager,
	catalog wine.Catalog,
	enricher wine.Enricher,
	cfg Config,
	logger *zap.Logger,
) *Resolver {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		matcher:  m,
		client:   client,
		fusion:   f,
		catalog:  catalog,
		enricher: enricher,
		cfg:      cfg,
		logger:   logger,
	}
}

// Resolve maps one query to a canonical wine. The catalog is consulted
// first; on a miss the external source is searched and the result fused
// in. When the external lookup yields nothing usable, a placeholder
// record is created so the query still resolves. Only persistence
// failures surface as errors.
func (r *Resolver) Resolve(ctx context.Context, q wine.Query) (*wine.CanonicalWine, error) {
	if q.Name == "" {
		return nil, fmt.Errorf("query name is required")
	}

	local, err := r.matcher.FindLocal(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("local lookup: %w", err)
	}
	if local != nil {
		metrics.ObserveResolution("local")
		return local, nil
	}

	snap, offers, fetchErr := r.client.FetchOne(ctx, q)
	if fetchErr != nil {
		r.logger.Warn("external lookup failed, creating placeholder",
			zap.String("name", q.Name), zap.Error(fetchErr))
		return r.placeholder(ctx, q)
	}

	var aiSnap *wine.Snapshot
	if r.enricher != nil {
		aiSnap, err = r.enricher.Enrich(ctx, q.Name, q.Vintage)
		if err != nil {
			r.logger.Warn("enrichment failed", zap.String("name", q.Name), zap.Error(err))
			aiSnap = nil
		}
	}

	resolved, err := r.fusion.Reconcile(ctx, q, snap, aiSnap, offers)
	if err != nil {
		return nil, fmt.Errorf("fuse snapshot: %w", err)
	}
	metrics.ObserveResolution("external")
	return resolved, nil
}

// ResolveMany resolves queries concurrently, capped at the configured
// width. Outcomes come back in input order and one failure never
// cancels its neighbors.
func (r *Resolver) ResolveMany(ctx context.Context, queries []wine.Query) []Outcome {
	outcomes := make([]Outcome, len(queries))
	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, q := range queries {
		wg.Add(1)
		go func(i int, q wine.Query) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			w, err := r.Resolve(ctx, q)
			outcomes[i] = Outcome{Query: q, Wine: w, Err: err}
		}(i, q)
	}
	wg.Wait()

	return outcomes
}

// placeholder records an unresolvable query as a bare catalog row so
// repeat lookups hit locally and a human can fill it in later.
func (r *Resolver) placeholder(ctx context.Context, q wine.Query) (*wine.CanonicalWine, error) {
	w := wine.CanonicalWine{
		Name:    q.Name,
		Vintage: q.Vintage,
	}
	inserted, err := r.catalog.Insert(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("insert placeholder: %w", err)
	}
	metrics.ObserveResolution("placeholder")
	return &inserted, nil
}
