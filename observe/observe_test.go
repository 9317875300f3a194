package observe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
)

func validConfig() Config {
	return Config{
		ServiceName: "test-service",
		Tracing: TracingConfig{
			Enabled:   true,
			Exporter:  "stdout",
			SamplePct: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Exporter: "stdout",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, ErrMissingServiceName},
		{"unknown tracing exporter", func(c *Config) { c.Tracing.Exporter = "unknown" }, ErrInvalidTracingExporter},
		{"unknown metrics exporter", func(c *Config) { c.Metrics.Exporter = "badvalue" }, ErrInvalidMetricsExporter},
		{"sample pct above range", func(c *Config) { c.Tracing.SamplePct = 1.5 }, ErrInvalidSamplePct},
		{"sample pct negative", func(c *Config) { c.Tracing.SamplePct = -0.1 }, ErrInvalidSamplePct},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
		{"disabled subsystems skip checks", func(c *Config) {
			c.Tracing = TracingConfig{Exporter: "bogus"}
			c.Metrics = MetricsConfig{Exporter: "bogus"}
			c.Logging = LoggingConfig{Level: "bogus"}
		}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestNewObserver_InvalidConfig(t *testing.T) {
	_, err := NewObserver(context.Background(), Config{})
	if !errors.Is(err, ErrMissingServiceName) {
		t.Fatalf("expected ErrMissingServiceName, got %v", err)
	}
}

func TestNewObserver_Disabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "svc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Tracer() == nil || obs.Meter() == nil || obs.Logger() == nil {
		t.Fatal("expected non-nil telemetry primitives")
	}
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown of disabled observer failed: %v", err)
	}
}

func TestNewObserver_StdoutExporters(t *testing.T) {
	var buf bytes.Buffer
	cfg := validConfig()
	cfg.Output = &buf

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs.Logger().Info(context.Background(), "hello")
	_, span := obs.Tracer().Start(context.Background(), "op")
	span.End()

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected telemetry written to Output")
	}
}

func TestNewObserver_PrometheusRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	cfg := Config{
		ServiceName: "svc",
		Metrics:     MetricsConfig{Enabled: true, Exporter: "prometheus"},
		Registerer:  reg,
	}

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer obs.Shutdown(context.Background())

	rec, err := NewRecorder(CacheMeta{Name: "prom"}, obs.Meter(), nil)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	rec.RecordHit(context.Background())

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "cache_hits") {
			found = true
		}
	}
	if !found {
		t.Fatal("cache hits not exported to the registry")
	}
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	l.Info(context.Background(), "x")
	l.Warn(context.Background(), "x")
	l.Error(context.Background(), "x")
	l.Debug(context.Background(), "x")
	if l.WithCache(CacheMeta{Name: "c"}) == nil {
		t.Fatal("WithCache returned nil")
	}
}
