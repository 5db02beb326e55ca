package window

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bryanchriswhite/godotshot/internal/logger"
)

// CacheTTL is how long a listing for one pattern is reused.
const CacheTTL = 5 * time.Second

type cacheEntry struct {
	fetchedAt time.Time
	windows   []Record
}

// Registry serves window listings filtered by title pattern, caching each
// pattern's result for CacheTTL.
type Registry struct {
	lister Lister
	clock  func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewRegistry wraps lister with a per-pattern cache. A nil clock means
// time.Now.
func NewRegistry(lister Lister, clock func() time.Time) *Registry {
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		lister: lister,
		clock:  clock,
		cache:  make(map[string]cacheEntry),
	}
}

// List returns windows whose title contains pattern, ignoring case. An empty
// pattern returns every window. Each distinct pattern is fetched and cached
// on its own.
func (r *Registry) List(ctx context.Context, pattern string) ([]Record, error) {
	log := logger.WithComponent("window-registry")
	now := r.clock()

	r.mu.Lock()
	entry, ok := r.cache[pattern]
	r.mu.Unlock()
	if ok && now.Sub(entry.fetchedAt) < CacheTTL {
		log.Debug().Str("pattern", pattern).Int("count", len(entry.windows)).Msg("Window cache hit")
		return entry.windows, nil
	}

	all, err := r.lister.ListWindows(ctx)
	if err != nil {
		return nil, err
	}
	windows := filter(all, pattern)

	r.mu.Lock()
	r.cache[pattern] = cacheEntry{fetchedAt: now, windows: windows}
	r.mu.Unlock()

	log.Debug().
		Str("pattern", pattern).
		Str("lister", r.lister.Name()).
		Int("total", len(all)).
		Int("matched", len(windows)).
		Msg("Window cache refreshed")
	return windows, nil
}

// Clear drops every cached listing.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.cache = make(map[string]cacheEntry)
	r.mu.Unlock()
}

func filter(windows []Record, pattern string) []Record {
	if pattern == "" {
		return windows
	}
	needle := strings.ToLower(pattern)
	out := make([]Record, 0, len(windows))
	for _, w := range windows {
		if strings.Contains(strings.ToLower(w.Title), needle) {
			out = append(out, w)
		}
	}
	return out
}
