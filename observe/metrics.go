package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/memocache/cache"
)

// Recorder turns cache events into OpenTelemetry metrics and log lines.
// It implements cache.Recorder; pass it as cache.Config.Recorder.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: recording is best-effort and never fails the cache operation.
type Recorder struct {
	meta   CacheMeta
	logger Logger
	attrs  metric.MeasurementOption

	hits         metric.Int64Counter
	misses       metric.Int64Counter
	evictions    metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewRecorder creates the cache instruments on meter. A nil logger discards
// log lines.
func NewRecorder(meta CacheMeta, meter metric.Meter, logger Logger) (*Recorder, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NopLogger()
	}

	hits, err := meter.Int64Counter(
		"cache.hits",
		metric.WithDescription("Number of lookups served from the cache"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"cache.misses",
		metric.WithDescription("Number of lookups that found no fresh entry"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"cache.evictions",
		metric.WithDescription("Number of entries removed for capacity or expiry"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"cache.compute.errors",
		metric.WithDescription("Number of failed computes"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"cache.compute.duration_ms",
		metric.WithDescription("Compute duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		meta:         meta,
		logger:       logger.WithCache(meta),
		attrs:        metric.WithAttributes(meta.attributes()...),
		hits:         hits,
		misses:       misses,
		evictions:    evictions,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordHit counts a lookup served from the cache.
func (r *Recorder) RecordHit(ctx context.Context) {
	r.hits.Add(ctx, 1, r.attrs)
}

// RecordMiss counts a lookup that found no fresh entry.
func (r *Recorder) RecordMiss(ctx context.Context) {
	r.misses.Add(ctx, 1, r.attrs)
}

// RecordEviction counts a removed entry, tagged with its reason.
func (r *Recorder) RecordEviction(ctx context.Context, reason cache.EvictReason) {
	attrs := append(r.meta.attributes(), attribute.String("reason", reason.String()))
	r.evictions.Add(ctx, 1, metric.WithAttributes(attrs...))
	r.logger.Debug(ctx, "cache entry evicted", Field{Key: "reason", Value: reason.String()})
}

// RecordCompute records a compute's duration and, on failure, its error.
func (r *Recorder) RecordCompute(ctx context.Context, d time.Duration, err error) {
	durationMs := float64(d.Microseconds()) / 1000
	r.durationHist.Record(ctx, durationMs, r.attrs)

	if err != nil {
		r.errorCount.Add(ctx, 1, r.attrs)
		r.logger.Warn(ctx, "cache compute failed",
			Field{Key: "duration_ms", Value: durationMs},
			Field{Key: "error", Value: err.Error()},
		)
	}
}

var _ cache.Recorder = (*Recorder)(nil)
