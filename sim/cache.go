package sim

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the measurement cache capacity when none is configured.
const DefaultCacheSize = 4096

var _ Oracle = (*CachingOracle)(nil)

// CachingOracle memoizes Measure results keyed by Request.Fingerprint, so
// identical grid points across arcs or re-runs skip the simulator entirely.
// Failures are never cached.
type CachingOracle struct {
	inner Oracle
	cache *lru.Cache[string, Result]
	log   log.Logger
}

// NewCachingOracle wraps inner with an LRU measurement cache of the given
// capacity; zero or negative selects DefaultCacheSize.
func NewCachingOracle(inner Oracle, size int, logger log.Logger) (*CachingOracle, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner oracle cannot be nil")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Result](size)
	if err != nil {
		return nil, fmt.Errorf("creating measurement cache: %w", err)
	}
	if logger == nil {
		logger = log.New("component", "simcache")
	}
	return &CachingOracle{inner: inner, cache: cache, log: logger}, nil
}

// Measure returns the cached result when the request has been answered
// before, otherwise consults the inner oracle and caches its answer.
func (c *CachingOracle) Measure(ctx context.Context, req Request) (Result, error) {
	key := req.Fingerprint()
	if cached, ok := c.cache.Get(key); ok {
		c.log.Debug("Measurement cache hit",
			"cell", req.Cell, "arc", req.Arc, "pass", req.Pass())
		return cached.Clone(), nil
	}

	result, err := c.inner.Measure(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, result.Clone())
	return result, nil
}

// Len reports how many measurements are currently cached.
func (c *CachingOracle) Len() int {
	return c.cache.Len()
}
