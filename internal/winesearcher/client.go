package winesearcher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vintro/wineresolver/internal/metrics"
	"github.com/vintro/wineresolver/internal/wine"
)

// Config controls search behavior.
type Config struct {
	// Country filters offers; "-" means all countries.
	Country string
	// Concurrency caps in-flight fetches during batch lookups.
	Concurrency int
	// IncludeAuction widens the search to auction listings.
	IncludeAuction bool
}

// Client fetches and parses wine pages, consulting the page cache
// before going to the network.
type Client struct {
	cache   wine.PageCache
	fetcher wine.Fetcher
	cfg     Config
	logger  *zap.Logger
}

// Result is one batch lookup outcome, in input order.
type Result struct {
	Query    wine.Query
	Snapshot *wine.Snapshot
	Offers   []wine.Offer
	Err      error
}

// New builds a Client.
func New(cache wine.PageCache, fetcher wine.Fetcher, cfg Config, logger *zap.Logger) *Client {
	if cfg.Country == "" {
		cfg.Country = "usa"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cache: cache, fetcher: fetcher, cfg: cfg, logger: logger}
}

// FetchOne resolves a single query against the external site. The raw
// page is cached before parsing so a later parser fix can replay it
// without refetching.
func (c *Client) FetchOne(ctx context.Context, q wine.Query) (*wine.Snapshot, []wine.Offer, error) {
	url := ComposeSearchURL(q.Name, q.Vintage, c.cfg.Country, c.cfg.IncludeAuction)

	html, cached := c.cache.Load(ctx, url)
	if !cached {
		fetched, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch %q: %w", q.Name, err)
		}
		html = fetched
		if saveErr := c.cache.Save(ctx, url, html); saveErr != nil {
			c.logger.Warn("page cache write failed", zap.String("url", url), zap.Error(saveErr))
		}
	}

	snap, offers, err := Parse(html)
	if err != nil {
		metrics.ObserveParseFailure()
		c.logger.Warn("page parse failed",
			zap.String("name", q.Name),
			zap.String("url", url),
			zap.Bool("cached", cached),
			zap.Error(err))
		return nil, nil, fmt.Errorf("parse %q: %w", q.Name, err)
	}

	c.logger.Info("external lookup succeeded",
		zap.String("name", q.Name),
		zap.Stringp("resolved_name", snap.Name),
		zap.Int("vintage", snap.Vintage),
		zap.Int("offers", len(offers)))
	return snap, offers, nil
}

// FetchBatch resolves many queries concurrently, capped at the
// configured width. One failed query never fails its neighbors; results
// come back in input order.
func (c *Client) FetchBatch(ctx context.Context, queries []wine.Query) []Result {
	results := make([]Result, len(queries))
	sem := make(chan struct{}, c.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, q := range queries {
		wg.Add(1)
		go func(i int, q wine.Query) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			snap, offers, err := c.FetchOne(ctx, q)
			results[i] = Result{Query: q, Snapshot: snap, Offers: offers, Err: err}
		}(i, q)
	}
	wg.Wait()

	return results
}
