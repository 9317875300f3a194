package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/memocache/cache"
)

// StatsSource is anything that reports cache statistics, typically a
// *cache.TTLLRU.
type StatsSource[K comparable] interface {
	Stats() cache.Stats[K]
}

// CacheCheckerConfig configures a cache health checker.
type CacheCheckerConfig struct {
	// EvictionThreshold is the capacity evictions per miss at which the
	// cache is reported degraded: it is thrashing and serving few hits.
	// Default: 0.9
	EvictionThreshold float64

	// ErrorThreshold is the failed computes per miss at which the cache is
	// reported unhealthy.
	// Default: 0.5
	ErrorThreshold float64

	// MinMisses is the number of misses required before ratios are judged.
	// Default: 100
	MinMisses uint64
}

// CacheChecker reports on one cache instance from its counters.
type CacheChecker struct {
	name   string
	config CacheCheckerConfig
	stats  func() counters
}

type counters struct {
	capacity, length                                   int
	hits, misses, evictions, expirations, computeErrors uint64
}

// NewCacheChecker creates a checker named name over src.
func NewCacheChecker[K comparable](name string, src StatsSource[K], config CacheCheckerConfig) (*CacheChecker, error) {
	if src == nil {
		return nil, ErrNilStatsSource
	}
	if config.EvictionThreshold <= 0 {
		config.EvictionThreshold = 0.9
	}
	if config.ErrorThreshold <= 0 {
		config.ErrorThreshold = 0.5
	}
	if config.MinMisses == 0 {
		config.MinMisses = 100
	}

	return &CacheChecker{
		name:   name,
		config: config,
		stats: func() counters {
			s := src.Stats()
			return counters{
				capacity:      s.Capacity,
				length:        s.Len,
				hits:          s.Hits,
				misses:        s.Misses,
				evictions:     s.Evictions,
				expirations:   s.Expirations,
				computeErrors: s.ComputeErrors,
			}
		},
	}, nil
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string {
	return c.name
}

// Check judges the cache's eviction and compute error ratios.
func (c *CacheChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	s := c.stats()
	details := map[string]any{
		"capacity":       s.capacity,
		"len":            s.length,
		"hits":           s.hits,
		"misses":         s.misses,
		"evictions":      s.evictions,
		"expirations":    s.expirations,
		"compute_errors": s.computeErrors,
		"hit_ratio":      ratio(s.hits, s.hits+s.misses),
	}

	if s.misses < c.config.MinMisses {
		return Healthy("not enough traffic to judge").WithDetails(details)
	}

	errorRatio := ratio(s.computeErrors, s.misses)
	evictionRatio := ratio(s.evictions, s.misses)
	details["error_ratio"] = errorRatio
	details["eviction_ratio"] = evictionRatio

	if errorRatio >= c.config.ErrorThreshold {
		return Unhealthy(
			fmt.Sprintf("compute errors high: %.1f%% of misses", errorRatio*100),
			ErrCheckFailed,
		).WithDetails(details)
	}

	if evictionRatio >= c.config.EvictionThreshold {
		return Degraded(
			fmt.Sprintf("cache thrashing: %.1f%% of misses evict", evictionRatio*100),
		).WithDetails(details)
	}

	return Healthy(
		fmt.Sprintf("hit ratio %.1f%%", ratio(s.hits, s.hits+s.misses)*100),
	).WithDetails(details)
}

func ratio(n, d uint64) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

var _ Checker = (*CacheChecker)(nil)
