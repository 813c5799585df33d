// Package cache implements the file-backed page cache.
//
// Each cached URL maps to one file named by the stable hash of the URL.
// The first line of every file records the source URL as an HTML comment
// so cache directories stay debuggable by hand.
package cache

import (
	"context"
	"crypto/md5" //nolint:gosec // content-address key, not a security boundary
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vintro/wineresolver/internal/metrics"
)

const urlCommentPrefix = "<!-- URL:"

// Config captures the parameters for the file cache.
type Config struct {
	// Dir is the directory where cached pages are stored. Created lazily
	// on first write.
	Dir string `mapstructure:"dir"`
}

// FileCache stores raw markup on the local filesystem.
type FileCache struct {
	dir    string
	logger *zap.Logger
}

// New creates a file cache rooted at cfg.Dir. The directory is not
// created until the first Save.
func New(cfg Config, logger *zap.Logger) (*FileCache, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileCache{dir: cfg.Dir, logger: logger}, nil
}

// Key derives the cache filename for a URL.
func Key(url string) string {
	sum := md5.Sum([]byte(url)) //nolint:gosec // see package comment
	return hex.EncodeToString(sum[:]) + ".html"
}

// Load returns the cached markup for a URL and whether it was present.
// The leading URL comment line is stripped before returning.
func (c *FileCache) Load(_ context.Context, url string) (string, bool) {
	path := filepath.Join(c.dir, Key(url))
	raw, err := os.ReadFile(path) //nolint:gosec // path is hash-derived
	if err != nil {
		metrics.ObserveCacheLookup(false)
		return "", false
	}
	content := string(raw)
	if strings.HasPrefix(content, urlCommentPrefix) {
		if idx := strings.IndexByte(content, '\n'); idx >= 0 {
			content = content[idx+1:]
		}
	}
	metrics.ObserveCacheLookup(true)
	c.logger.Debug("page cache hit", zap.String("url", url), zap.String("path", path))
	return content, true
}

// Save writes markup for a URL, creating the cache directory if needed.
// Entries are write-once per key; a second writer for the same key simply
// wins with identical content for a stable URL.
func (c *FileCache) Save(_ context.Context, url string, html string) error {
	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	path := filepath.Join(c.dir, Key(url))
	content := fmt.Sprintf("%s %s -->\n%s", urlCommentPrefix, url, html)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	c.logger.Debug("page cached", zap.String("url", url), zap.String("path", path))
	return nil
}
