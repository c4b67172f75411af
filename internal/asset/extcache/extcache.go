// Package extcache caches the enabled file-extension allowlist. The list
// lives in configuration and can change under hot reload, so lookups go
// through an injected cache with an explicit TTL instead of a package-level
// variable.
package extcache

import (
	"strings"
	"sync"
	"time"

	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/config"
)

const configKey = "modules.asset.allowed_extensions"

// Cache holds the parsed allowlist and refreshes it from config once the
// TTL lapses.
type Cache struct {
	cfg   config.Config
	clock clock.Clocker
	ttl   time.Duration

	mu        sync.Mutex
	set       map[string]struct{}
	refreshAt time.Time
}

func New(cfg config.Config, clk clock.Clocker, ttl time.Duration) *Cache {
	return &Cache{cfg: cfg, clock: clk, ttl: ttl}
}

// Allowed reports whether the extension (with or without a leading dot,
// any case) is on the allowlist. An empty allowlist rejects everything.
func (c *Cache) Allowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.set == nil || !now.Before(c.refreshAt) {
		c.set = c.load()
		c.refreshAt = now.Add(c.ttl)
	}

	_, ok := c.set[ext]
	return ok
}

func (c *Cache) load() map[string]struct{} {
	raw := c.cfg.GetArray(configKey)
	set := make(map[string]struct{}, len(raw))
	for _, e := range raw {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}
