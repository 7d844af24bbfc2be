// Package cache memoizes remote lookups in a JSON side file.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Loader fetches the value for a key on a cache miss.
type Loader func(ctx context.Context, key string) (string, error)

// Options configures a Cache.
type Options struct {
	// DryRun keeps new entries in memory only.
	DryRun bool
	Logger *log.Logger
}

// Cache maps keys to previously fetched text.
type Cache struct {
	path    string
	entries map[string]string
	dryRun  bool
	logger  *log.Logger
}

// Open loads the cache file at path. A missing file yields an empty cache.
func Open(path string, opts Options) (*Cache, error) {
	c := &Cache{
		path:    path,
		entries: make(map[string]string),
		dryRun:  opts.DryRun,
		logger:  opts.Logger,
	}
	if c.logger == nil {
		c.logger = log.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("parsing cache %s: %w", path, err)
	}
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	return c, nil
}

// Path returns the cache file path.
func (c *Cache) Path() string {
	return c.path
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (string, bool) {
	v, ok := c.entries[key]
	return v, ok
}

// GetOrFetch returns the cached value for key, calling load on a miss. A
// successful load is stored and persisted; a failed one stores nothing.
func (c *Cache) GetOrFetch(ctx context.Context, key string, load Loader) (string, error) {
	if v, ok := c.entries[key]; ok {
		c.logger.Info("cache hit", "key", key)
		return v, nil
	}

	v, err := load(ctx, key)
	if err != nil {
		return "", err
	}
	c.entries[key] = v
	if err := c.Persist(); err != nil {
		return "", err
	}
	return v, nil
}

// Persist writes the whole cache to disk. It does nothing in dry-run mode.
func (c *Cache) Persist() error {
	if c.dryRun {
		c.logger.Debug("dry run: cache not written", "path", c.path)
		return nil
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating cache directory: %w", err)
		}
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}
