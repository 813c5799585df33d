package fetch

import (
	"github.com/vintro/wineresolver/internal/config"
	"github.com/vintro/wineresolver/internal/wine"
)

// New selects a fetcher implementation from configuration.
func New(cfg config.Config) wine.Fetcher {
	if cfg.Fetch.UseProxy {
		return NewFirecrawl(FirecrawlConfig{
			Endpoint: cfg.Fetch.ProxyURL,
			APIKey:   cfg.Fetch.ProxyAPIKey,
			Timeout:  cfg.FetchTimeout(),
		})
	}
	return NewDirect(DirectConfig{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})
}
