// Package health reports on the state of memoizing caches.
//
// A CacheChecker reads a cache's counters and judges them: a cache whose
// computes fail for a large share of misses is unhealthy, and one whose
// misses mostly end in capacity evictions is degraded because it is
// thrashing. An Aggregator runs many checkers concurrently and the HTTP
// handlers expose the results.
//
// # Basic Usage
//
//	c, _ := cache.New[string, []byte](cache.DefaultConfig())
//	checker, _ := health.NewCacheChecker[string]("pages", c, health.CacheCheckerConfig{})
//
//	agg := health.NewAggregator()
//	agg.Register(checker)
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// # Endpoints
//
//	GET /healthz        liveness, always OK
//	GET /readyz         OK, DEGRADED or UNHEALTHY
//	GET /health         JSON detail for every check
//	GET /health/{name}  JSON detail for one check
package health
