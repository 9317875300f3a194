package observe

import (
	"context"

	"github.com/jonwraymond/memocache/cache"
)

// WrapCompute wraps a compute function in a span named meta.SpanName().
// The span carries the compute's error status; the error itself is
// returned unchanged. A nil tracer yields fn unchanged.
func WrapCompute[V any](tracer Tracer, meta CacheMeta, fn cache.ComputeFunc[V]) cache.ComputeFunc[V] {
	if tracer == nil || fn == nil {
		return fn
	}
	return func(ctx context.Context) (V, error) {
		ctx, span := tracer.StartSpan(ctx, meta)
		v, err := fn(ctx)
		tracer.EndSpan(span, err)
		return v, err
	}
}

// Instrumentation bundles the telemetry for one cache instance.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Ownership: the Recorder belongs to exactly one cache; create one
//     Instrumentation per cache.
type Instrumentation struct {
	Meta     CacheMeta
	Tracer   Tracer
	Recorder *Recorder
	Logger   Logger
}

// Instrument creates the Tracer, Recorder and scoped Logger for a cache
// from an Observer.
func Instrument(obs Observer, meta CacheMeta) (*Instrumentation, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	rec, err := NewRecorder(meta, obs.Meter(), obs.Logger())
	if err != nil {
		return nil, err
	}

	return &Instrumentation{
		Meta:     meta,
		Tracer:   NewTracer(obs.Tracer()),
		Recorder: rec,
		Logger:   obs.Logger().WithCache(meta),
	}, nil
}

// Apply sets cfg.Recorder to the instrumentation's Recorder.
func (i *Instrumentation) Apply(cfg cache.Config) cache.Config {
	cfg.Recorder = i.Recorder
	return cfg
}

// WrapMemo is WrapCompute for memoized functions.
func WrapMemo[V any](tracer Tracer, meta CacheMeta, fn cache.MemoFunc[V]) cache.MemoFunc[V] {
	if tracer == nil || fn == nil {
		return fn
	}
	return func(ctx context.Context, args cache.Args) (V, error) {
		ctx, span := tracer.StartSpan(ctx, meta)
		v, err := fn(ctx, args)
		tracer.EndSpan(span, err)
		return v, err
	}
}
