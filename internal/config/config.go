// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Search  SearchConfig  `mapstructure:"search"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CatalogConfig selects and configures the catalog persistence backend.
type CatalogConfig struct {
	// Backend is "postgres" or "memory".
	Backend      string        `mapstructure:"backend"`
	DSN          string        `mapstructure:"dsn"`
	MaxConns     int32         `mapstructure:"max_conns"`
	MinConns     int32         `mapstructure:"min_conns"`
	WinesTable   string        `mapstructure:"wines_table"`
	OffersTable  string        `mapstructure:"offers_table"`
	ConnLifetime time.Duration `mapstructure:"conn_lifetime"`
}

// CacheConfig sets the page cache location.
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// FetchConfig controls markup retrieval.
type FetchConfig struct {
	// UseProxy routes fetches through the crawling proxy service instead
	// of direct HTTP GET.
	UseProxy       bool   `mapstructure:"use_proxy"`
	ProxyURL       string `mapstructure:"proxy_url"`
	ProxyAPIKey    string `mapstructure:"proxy_api_key"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SearchConfig governs external-source lookups.
type SearchConfig struct {
	Country        string `mapstructure:"country"`
	Concurrency    int    `mapstructure:"concurrency"`
	IncludeAuction bool   `mapstructure:"include_auction"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CELLAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("catalog.backend", "memory")
	v.SetDefault("catalog.wines_table", "wines")
	v.SetDefault("catalog.offers_table", "offers")
	v.SetDefault("cache.dir", ".cache/wine_searcher")
	v.SetDefault("fetch.use_proxy", false)
	v.SetDefault("fetch.proxy_url", "https://api.firecrawl.dev/v1/scrape")
	v.SetDefault("fetch.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("search.country", "usa")
	v.SetDefault("search.concurrency", 5)
	v.SetDefault("search.include_auction", false)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	switch c.Catalog.Backend {
	case "postgres":
		if c.Catalog.DSN == "" {
			return fmt.Errorf("catalog.dsn must be set when catalog.backend is postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("catalog.backend must be postgres or memory, got %q", c.Catalog.Backend)
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must be set")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.UseProxy && c.Fetch.ProxyAPIKey == "" {
		return fmt.Errorf("fetch.proxy_api_key must be set when fetch.use_proxy is enabled")
	}
	if c.Search.Concurrency < 1 || c.Search.Concurrency > 32 {
		return fmt.Errorf("search.concurrency must be between 1 and 32")
	}
	return nil
}

// FetchTimeout converts the fetch timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}
