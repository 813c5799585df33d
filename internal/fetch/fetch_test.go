package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vintro/wineresolver/internal/config"
)

func TestDirectFetchReturnsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := NewDirect(DirectConfig{UserAgent: "test-agent", Timeout: 5 * time.Second})
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "<html><body>hello</body></html>", body)
}

func TestDirectFetchSendsUserAgent(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewDirect(DirectConfig{UserAgent: "cellar-bot/1.0", Timeout: 5 * time.Second})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "cellar-bot/1.0", gotUA)
}

func TestDirectFetchNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewDirect(DirectConfig{Timeout: 5 * time.Second})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestFirecrawlFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req firecrawlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "https://www.wine-searcher.com/find/opus-one/2018/usa", req.URL)
		require.Equal(t, []string{"rawHtml"}, req.Formats)

		resp := map[string]any{
			"success": true,
			"data":    map[string]any{"rawHtml": "<html>proxied</html>"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	f := NewFirecrawl(FirecrawlConfig{Endpoint: srv.URL, APIKey: "secret-key"})
	body, err := f.Fetch(context.Background(), "https://www.wine-searcher.com/find/opus-one/2018/usa")
	require.NoError(t, err)
	require.Equal(t, "<html>proxied</html>", body)
}

func TestFirecrawlFetchFallsBackToHTMLField(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{
			"success": true,
			"data":    map[string]any{"html": "<html>rendered</html>"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	f := NewFirecrawl(FirecrawlConfig{Endpoint: srv.URL, APIKey: "k"})
	body, err := f.Fetch(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "<html>rendered</html>", body)
}

func TestFirecrawlFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{"success": false, "error": "rate limited"}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	f := NewFirecrawl(FirecrawlConfig{Endpoint: srv.URL, APIKey: "k"})
	_, err := f.Fetch(context.Background(), "https://example.com")
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limited")
}

func TestFirecrawlFetchBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewFirecrawl(FirecrawlConfig{Endpoint: srv.URL, APIKey: "bad"})
	_, err := f.Fetch(context.Background(), "https://example.com")
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

func TestNewSelectsByConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.Fetch.TimeoutSeconds = 10

	cfg.Fetch.UseProxy = false
	_, ok := New(cfg).(*DirectFetcher)
	require.True(t, ok)

	cfg.Fetch.UseProxy = true
	cfg.Fetch.ProxyURL = "https://api.firecrawl.dev/v1/scrape"
	cfg.Fetch.ProxyAPIKey = "k"
	_, ok = New(cfg).(*FirecrawlFetcher)
	require.True(t, ok)
}
