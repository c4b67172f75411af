package extcache

import (
	"strings"
	"testing"
	"time"

	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/config"
)

// stubConfig overrides only GetArray; the cache reads nothing else.
type stubConfig struct {
	config.Config
	exts string
}

func (s *stubConfig) GetArray(string) []string {
	if strings.TrimSpace(s.exts) == "" {
		return nil
	}
	return strings.Split(s.exts, ",")
}

func TestAllowedNormalizesInput(t *testing.T) {
	clk := clock.NewStatic(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	c := New(&stubConfig{exts: "png,JPG, pdf"}, clk, 5*time.Minute)

	cases := map[string]bool{
		"png":   true,
		".png":  true,
		"PNG":   true,
		"jpg":   true,
		" pdf ": true,
		"exe":   false,
		"":      false,
		".":     false,
	}
	for ext, want := range cases {
		if got := c.Allowed(ext); got != want {
			t.Errorf("Allowed(%q) = %v, want %v", ext, got, want)
		}
	}
}

func TestAllowedEmptyListRejectsEverything(t *testing.T) {
	clk := clock.NewStatic(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	c := New(&stubConfig{}, clk, 5*time.Minute)

	if c.Allowed("png") {
		t.Error("empty allowlist permitted an extension")
	}
}

func TestAllowedRefreshesAfterTTL(t *testing.T) {
	clk := clock.NewStatic(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	cfg := &stubConfig{exts: "png"}
	c := New(cfg, clk, 5*time.Minute)

	if !c.Allowed("png") {
		t.Fatal("png not allowed before change")
	}
	if c.Allowed("gif") {
		t.Fatal("gif allowed before change")
	}

	cfg.exts = "png,gif"

	// Inside the TTL the stale set still answers.
	if c.Allowed("gif") {
		t.Error("gif visible before TTL lapsed")
	}

	clk.Advance(5 * time.Minute)
	if !c.Allowed("gif") {
		t.Error("gif not visible after TTL lapsed")
	}
}
