// Command memocache demonstrates memoizing caches with telemetry, health
// probes and a cached concurrent page fetcher.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/memocache/cache"
	"github.com/jonwraymond/memocache/config"
	"github.com/jonwraymond/memocache/fetch"
	"github.com/jonwraymond/memocache/health"
	"github.com/jonwraymond/memocache/observe"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintln(os.Stderr, "memocache:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}

	registry := promclient.NewRegistry()
	oc := cfg.ObserveConfig()
	oc.Registerer = registry

	obs, err := observe.NewObserver(ctx, oc)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()
	logger := obs.Logger()

	agg := health.NewAggregator()

	if err := ttlScenario(ctx, obs, agg); err != nil {
		return err
	}
	if err := lruScenario(ctx); err != nil {
		return err
	}
	if len(cfg.Fetch.URLs) > 0 {
		if err := fetchScenario(ctx, cfg, obs, agg); err != nil {
			return err
		}
	}

	if cfg.Health.Listen == "" {
		return nil
	}

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, agg)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: cfg.Health.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info(ctx, "serving health and metrics", observe.Field{Key: "addr", Value: cfg.Health.Listen})

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ttlScenario replays the capacity-2, ttl-5s walkthrough on a memoized
// function with a manual clock.
func ttlScenario(ctx context.Context, obs observe.Observer, agg *health.Aggregator) error {
	meta := observe.CacheMeta{Namespace: "demo", Name: "triple"}
	inst, err := observe.Instrument(obs, meta)
	if err != nil {
		return err
	}

	clock := cache.NewManualClock(time.Unix(0, 0))
	store, err := cache.New[string, string](inst.Apply(cache.Config{
		Capacity: 2,
		TTL:      5 * time.Second,
		Clock:    clock,
	}))
	if err != nil {
		return err
	}

	checker, err := health.NewCacheChecker[string](meta.ID(), store, health.CacheCheckerConfig{})
	if err != nil {
		return err
	}
	agg.Register(checker)

	computes := 0
	fn := observe.WrapMemo(inst.Tracer, meta, func(ctx context.Context, args cache.Args) (string, error) {
		computes++
		return fmt.Sprintf("(ttl result) %d", args.Positional[0].(int)*3), nil
	})
	triple, err := cache.NewMemo("triple", fn, store, nil)
	if err != nil {
		return err
	}

	call := func(at time.Duration, x int) error {
		clock.Set(time.Unix(0, 0).Add(at))
		before := computes
		v, err := triple.Call(ctx, cache.P(x))
		if err != nil {
			return err
		}
		fmt.Printf("t=%-3s triple(%d) = %s computed=%t\n", at, x, v, computes > before)
		return nil
	}

	steps := []struct {
		at time.Duration
		x  int
	}{
		{0, 10}, {1 * time.Second, 10}, {2 * time.Second, 20},
		{3 * time.Second, 30}, {4 * time.Second, 10}, {7 * time.Second, 20},
		{12 * time.Second, 30},
	}
	for _, s := range steps {
		if err := call(s.at, s.x); err != nil {
			return err
		}
	}

	st := store.Stats()
	fmt.Printf("ttl cache: len=%d hits=%d misses=%d evictions=%d expirations=%d\n",
		st.Len, st.Hits, st.Misses, st.Evictions, st.Expirations)
	return nil
}

// lruScenario memoizes a two-argument function in a plain capacity-3 LRU.
func lruScenario(ctx context.Context) error {
	type pair struct{ a, b int }

	lru, err := cache.NewLRU[pair, int](3)
	if err != nil {
		return err
	}

	f := func(p pair) (int, error) {
		return lru.GetOrCompute(ctx, p, func(context.Context) (int, error) {
			return p.a*2 + p.b, nil
		})
	}

	for _, p := range []pair{{5, 10}, {5, 10}, {3, 7}, {2, 4}, {3, 7}} {
		v, err := f(p)
		if err != nil {
			return err
		}
		fmt.Printf("f(%d, %d) = %d\n", p.a, p.b, v)
	}

	info := lru.Info()
	fmt.Printf("lru cache: hits=%d misses=%d capacity=%d len=%d\n", info.Hits, info.Misses, info.Capacity, info.Len)
	return nil
}

// fetchScenario fetches the configured URLs twice; the second pass is
// served from the cache except for failures.
func fetchScenario(ctx context.Context, cfg config.Config, obs observe.Observer, agg *health.Aggregator) error {
	meta := observe.CacheMeta{Namespace: "demo", Name: "pages"}
	inst, err := observe.Instrument(obs, meta)
	if err != nil {
		return err
	}

	cc, err := cfg.CacheConfig()
	if err != nil {
		return err
	}
	cc.Locking = cache.LockPerKey // required by fetch.NewCached
	store, err := cache.New[string, fetch.Content](inst.Apply(cc))
	if err != nil {
		return err
	}

	checker, err := health.NewCacheChecker[string](meta.ID(), store, health.CacheCheckerConfig{})
	if err != nil {
		return err
	}
	agg.Register(checker)

	cached, err := fetch.NewCached(cfg.FetchClient(inst.Logger), store)
	if err != nil {
		return err
	}

	for pass := 1; pass <= 2; pass++ {
		start := time.Now()
		results := fetch.All(ctx, cached, cfg.Fetch.URLs, cfg.Fetch.Concurrency)
		fmt.Printf("fetch pass %d took %s\n", pass, time.Since(start).Round(time.Millisecond))
		for _, r := range results {
			if r.OK() {
				fmt.Printf("  %s: %d bytes\n", r.URL, len(r.Content.Body))
			} else {
				fmt.Printf("  %s: %s error: %v\n", r.URL, fetch.KindOf(r.Err), r.Err)
			}
		}
	}
	return nil
}
