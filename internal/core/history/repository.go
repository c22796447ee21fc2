package history

import (
	"context"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const preloadKey = "recent"

// Repository keeps a bounded, newest-first, unique-by-value view of history
// in memory. Reads are served from the cache once it is populated; writes
// patch the cache immediately and reach the store afterwards.
//
// The cache is deduplicated across the whole list while the backend only
// suppresses adjacent duplicates, so the two can disagree on counts.
type Repository struct {
	store *Store
	opts  Options
	log   zerolog.Logger

	loads singleflight.Group

	mu    sync.Mutex
	cache *lru.Cache[string, struct{}] // nil until loaded
	gen   uint64                       // bumped whenever an in-flight load may be stale

	pruneMu sync.Mutex
	prunes  sync.WaitGroup
}

// NewRepository creates a Repository over store.
func NewRepository(store *Store, opts Options, log zerolog.Logger) *Repository {
	return &Repository{
		store: store,
		opts:  opts.withDefaults(),
		log:   log,
	}
}

// Options returns the bounds the repository was created with.
func (r *Repository) Options() Options {
	return r.opts
}

// GetCachedRecent returns the cached entries, newest first. The first call
// loads them from the store; concurrent callers during that load share it.
// A shared load that a Record overtook is discarded and run again, so an
// entry recorded before this call is never missing. The returned slice
// belongs to the caller.
func (r *Repository) GetCachedRecent(ctx context.Context) ([]string, error) {
	for {
		r.mu.Lock()
		if r.cache != nil {
			entries := newestFirst(r.cache)
			r.mu.Unlock()
			return entries, nil
		}
		r.mu.Unlock()

		v, err, shared := r.loads.Do(preloadKey, func() (any, error) {
			return r.preload(context.WithoutCancel(ctx))
		})
		if err != nil {
			return nil, err
		}
		if shared {
			r.log.Debug().Msg("joined in-flight preload")
		}

		res := v.(preloadResult)

		r.mu.Lock()
		switch {
		case r.cache != nil:
			entries := newestFirst(r.cache)
			r.mu.Unlock()
			return entries, nil
		case r.gen == res.gen:
			r.mu.Unlock()
			return slices.Clone(res.entries), nil
		}
		r.mu.Unlock()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.log.Debug().Msg("preload overtaken by a write, reloading")
	}
}

type preloadResult struct {
	entries []string
	gen     uint64
}

func (r *Repository) preload(ctx context.Context) (preloadResult, error) {
	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()

	records, err := r.store.GetRecent(ctx, r.opts.PreloadCap)
	if err != nil {
		r.log.Warn().Err(err).Msg("preload history")
		return preloadResult{}, err
	}

	cache := newCache(r.opts.PreloadCap)
	// Oldest first, so a repeated entry ends up at its newest position.
	for i := len(records) - 1; i >= 0; i-- {
		cache.Add(records[i].Content, struct{}{})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen == gen && r.cache == nil {
		r.cache = cache
	}

	r.log.Debug().Int("records", len(records)).Int("entries", cache.Len()).Msg("preloaded history")
	return preloadResult{entries: newestFirst(cache), gen: gen}, nil
}

// Record stores content and moves it to the front of the cache. Blank
// content is ignored. Pruning runs in the background and its failures are
// only logged.
func (r *Repository) Record(ctx context.Context, content string) error {
	content, ok := Normalize(content)
	if !ok {
		return nil
	}

	r.mu.Lock()
	patched := r.cache != nil
	if patched {
		r.cache.Add(content, struct{}{})
	} else {
		r.gen++
	}
	r.mu.Unlock()

	if err := r.store.AddHistory(ctx, content); err != nil {
		return err
	}

	// A load that ran while the append was in flight may have missed it:
	// patch a cache installed since then and invalidate any load still running.
	r.mu.Lock()
	if !patched && r.cache != nil {
		r.cache.Add(content, struct{}{})
	}
	r.gen++
	r.mu.Unlock()

	r.prune(ctx)
	return nil
}

func (r *Repository) prune(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	r.prunes.Add(1)
	go func() {
		defer r.prunes.Done()

		r.pruneMu.Lock()
		defer r.pruneMu.Unlock()

		if _, err := r.store.PruneOld(ctx, r.opts.RetentionMax); err != nil {
			r.log.Debug().Err(err).Msg("background prune failed")
		}
	}()
}

// InvalidateCache drops the cache so the next read reloads from the store.
func (r *Repository) InvalidateCache() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache = nil
	r.gen++
}

// Close waits for background prunes to finish.
func (r *Repository) Close() error {
	r.prunes.Wait()
	return nil
}

func newCache(size int) *lru.Cache[string, struct{}] {
	// lru.New only fails for non-positive sizes, which withDefaults rules out.
	c, err := lru.New[string, struct{}](size)
	if err != nil {
		panic(err)
	}
	return c
}

func newestFirst(c *lru.Cache[string, struct{}]) []string {
	keys := c.Keys()
	slices.Reverse(keys)
	return keys
}
