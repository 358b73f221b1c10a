package nnueprobe

import (
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"

	"github.com/hailam/nnueprobe/internal/tracestore"
)

// CachedProber memoizes full evaluation results in an in-memory cache, with
// an optional persistent store behind it. Results are identical to what the
// wrapped prober would return; only the work is skipped.
type CachedProber struct {
	prober *Prober
	cache  *ristretto.Cache[uint64, *EvaluationResult]
	store  *tracestore.Store

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedProber wraps prober with a cache holding up to capacity results.
func NewCachedProber(prober *Prober, capacity int64) (*CachedProber, error) {
	return NewCachedProberWithStore(prober, capacity, nil)
}

// NewCachedProberWithStore additionally reads and writes every result
// through a persistent store. A nil store disables persistence. The caller
// keeps ownership of the store; Close does not touch it.
func NewCachedProberWithStore(prober *Prober, capacity int64, store *tracestore.Store) (*CachedProber, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, *EvaluationResult]{
		NumCounters: capacity * 10,
		MaxCost:     capacity,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &CachedProber{prober: prober, cache: cache, store: store}, nil
}

// EvaluateWithActivations returns the cached result for fen, computing and
// caching it on a miss. Results are shared with the cache: treat them as
// read-only.
func (c *CachedProber) EvaluateWithActivations(fen string) (*EvaluationResult, error) {
	key := xxhash.Sum64String(fen)

	if res, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return res, nil
	}

	if c.store != nil {
		res := new(EvaluationResult)
		// A failed store read falls back to recomputing, which repairs the
		// entry on the way out.
		if found, err := c.store.Get(fen, res); err == nil && found {
			c.hits.Add(1)
			c.cache.Set(key, res, 1)
			return res, nil
		}
	}

	c.misses.Add(1)
	res, err := c.prober.EvaluateWithActivations(fen)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, res, 1)
	if c.store != nil {
		if err := c.store.Put(fen, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Evaluate returns the cached final evaluation in centipawns.
func (c *CachedProber) Evaluate(fen string) (float64, error) {
	res, err := c.EvaluateWithActivations(fen)
	if err != nil {
		return 0, err
	}
	return res.FinalEval, nil
}

// Hits reports how many evaluations were served from the cache or store.
func (c *CachedProber) Hits() uint64 { return c.hits.Load() }

// Misses reports how many evaluations had to be computed.
func (c *CachedProber) Misses() uint64 { return c.misses.Load() }

// HitRate returns the cache hit rate as a percentage (0-100).
func (c *CachedProber) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Wait blocks until buffered cache writes are applied, making earlier
// evaluations visible to later lookups. Mostly useful in tests.
func (c *CachedProber) Wait() { c.cache.Wait() }

// Close releases the in-memory cache.
func (c *CachedProber) Close() { c.cache.Close() }
