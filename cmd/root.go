// Package cmd holds the CLI commands for the wine resolution service.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vintro/wineresolver/internal/cache"
	"github.com/vintro/wineresolver/internal/catalog/memory"
	"github.com/vintro/wineresolver/internal/catalog/postgres"
	"github.com/vintro/wineresolver/internal/config"
	"github.com/vintro/wineresolver/internal/fetch"
	"github.com/vintro/wineresolver/internal/fusion"
	"github.com/vintro/wineresolver/internal/logging"
	"github.com/vintro/wineresolver/internal/matcher"
	"github.com/vintro/wineresolver/internal/metrics"
	"github.com/vintro/wineresolver/internal/resolver"
	"github.com/vintro/wineresolver/internal/wine"
	"github.com/vintro/wineresolver/internal/winesearcher"
)

var cfgFile string

// app bundles the wired service components for commands to use.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	catalog  wine.Catalog
	resolver *resolver.Resolver
	closers  []func()
}

func (a *app) Close() {
	for _, c := range a.closers {
		c()
	}
	_ = a.logger.Sync()
}

// buildApp loads configuration and wires the resolution stack.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	metrics.Init()

	pageCache, err := cache.New(cache.Config{Dir: cfg.Cache.Dir}, logger)
	if err != nil {
		return nil, fmt.Errorf("build page cache: %w", err)
	}

	fetcher := fetch.New(cfg)
	client := winesearcher.New(pageCache, fetcher, winesearcher.Config{
		Country:        cfg.Search.Country,
		Concurrency:    cfg.Search.Concurrency,
		IncludeAuction: cfg.Search.IncludeAuction,
	}, logger)

	a := &app{cfg: cfg, logger: logger}

	var catalog wine.Catalog
	switch cfg.Catalog.Backend {
	case "postgres":
		store, storeErr := postgres.NewStore(ctx, postgres.StoreConfig{
			DSN:             cfg.Catalog.DSN,
			WinesTable:      cfg.Catalog.WinesTable,
			OffersTable:     cfg.Catalog.OffersTable,
			MaxConns:        cfg.Catalog.MaxConns,
			MinConns:        cfg.Catalog.MinConns,
			MaxConnLifetime: cfg.Catalog.ConnLifetime,
		})
		if storeErr != nil {
			return nil, fmt.Errorf("build postgres catalog: %w", storeErr)
		}
		a.closers = append(a.closers, store.Close)
		catalog = store
	default:
		catalog = memory.NewStore()
	}
	a.catalog = catalog

	a.resolver = resolver.New(
		matcher.New(catalog, logger),
		client,
		fusion.New(catalog, logger),
		catalog,
		nil,
		resolver.Config{Concurrency: cfg.Search.Concurrency},
		logger,
	)

	logger.Info("service wired",
		zap.String("catalog_backend", cfg.Catalog.Backend),
		zap.Bool("use_proxy", cfg.Fetch.UseProxy),
		zap.String("cache_dir", cfg.Cache.Dir))
	return a, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wineresolver",
		Short: "Resolve free-text wine names into canonical catalog records.",
		Long: `wineresolver maps messy wine names ("opus one 2018", "Ch. Lafite")
onto canonical catalog records, enriching them from an external wine
search site and remembering every spelling it has seen as an alias.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newResolveCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
