package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vintro/wineresolver/internal/metrics"
)

// FirecrawlConfig controls the scrape-proxy client.
type FirecrawlConfig struct {
	// Endpoint is the scrape API URL, e.g. https://api.firecrawl.dev/v1/scrape.
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// FirecrawlFetcher implements wine.Fetcher by delegating retrieval to
// the Firecrawl scrape API. Useful when the source blocks datacenter IPs.
type FirecrawlFetcher struct {
	cfg    FirecrawlConfig
	client *http.Client
}

// NewFirecrawl builds a FirecrawlFetcher.
func NewFirecrawl(cfg FirecrawlConfig) *FirecrawlFetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &FirecrawlFetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type firecrawlRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type firecrawlResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		RawHTML string `json:"rawHtml"`
		HTML    string `json:"html"`
	} `json:"data"`
}

// Fetch asks the scrape proxy for the raw markup of a URL.
func (f *FirecrawlFetcher) Fetch(ctx context.Context, url string) (string, error) {
	start := time.Now()

	payload, err := json.Marshal(firecrawlRequest{URL: url, Formats: []string{"rawHtml"}})
	if err != nil {
		return "", fmt.Errorf("marshal scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.cfg.APIKey)

	resp, err := f.client.Do(req)
	if err != nil {
		metrics.ObserveFetch("firecrawl", "error", time.Since(start))
		return "", fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveFetch("firecrawl", "error", time.Since(start))
		return "", fmt.Errorf("read scrape response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.ObserveFetch("firecrawl", fmt.Sprintf("%d", resp.StatusCode), time.Since(start))
		return "", fmt.Errorf("scrape %s: unexpected status %d: %s", url, resp.StatusCode, truncate(body, 256))
	}

	var parsed firecrawlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.ObserveFetch("firecrawl", "error", time.Since(start))
		return "", fmt.Errorf("decode scrape response: %w", err)
	}
	if !parsed.Success {
		metrics.ObserveFetch("firecrawl", "error", time.Since(start))
		return "", fmt.Errorf("scrape %s failed: %s", url, parsed.Error)
	}

	html := parsed.Data.RawHTML
	if html == "" {
		html = parsed.Data.HTML
	}
	if html == "" {
		metrics.ObserveFetch("firecrawl", "empty", time.Since(start))
		return "", fmt.Errorf("scrape %s returned no markup", url)
	}

	metrics.ObserveFetch("firecrawl", "ok", time.Since(start))
	return html, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
