// Package fetch retrieves raw markup from the external wine source,
// either directly via gocolly or through the Firecrawl scrape proxy.
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/vintro/wineresolver/internal/metrics"
)

// DirectConfig controls collector behavior.
type DirectConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// DirectFetcher implements wine.Fetcher with a plain HTTP GET through
// the Colly collector.
type DirectFetcher struct {
	cfg           DirectConfig
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// NewDirect builds a DirectFetcher.
func NewDirect(cfg DirectConfig) *DirectFetcher {
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.IgnoreRobotsTxt = true

	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &DirectFetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET and returns the response body.
func (f *DirectFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var (
		body       []byte
		statusCode int
		fetchErr   error
	)
	start := time.Now()

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	if f.transport != nil {
		collector.WithTransport(f.transport)
	}

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
	})

	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		// Colly surfaces bad statuses through OnError; report the code
		// when we have one.
		if statusCode != 0 && (statusCode < 200 || statusCode >= 300) {
			metrics.ObserveFetch("direct", fmt.Sprintf("%d", statusCode), time.Since(start))
			return "", fmt.Errorf("fetch %s: unexpected status %d: %w", url, statusCode, err)
		}
		metrics.ObserveFetch("direct", "error", time.Since(start))
		return "", err
	}
	if statusCode < 200 || statusCode >= 300 {
		metrics.ObserveFetch("direct", fmt.Sprintf("%d", statusCode), time.Since(start))
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, statusCode)
	}
	metrics.ObserveFetch("direct", "ok", time.Since(start))
	return string(body), nil
}

func (f *DirectFetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("response failed: %w", *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
