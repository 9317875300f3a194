// Package config loads memocache settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/memocache/cache"
	"github.com/jonwraymond/memocache/fetch"
	"github.com/jonwraymond/memocache/observe"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the root of a memocache configuration file.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Observe ObserveConfig `yaml:"observe"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Health  HealthConfig  `yaml:"health"`
}

// CacheConfig configures cache instances.
type CacheConfig struct {
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
	NoExpiry bool          `yaml:"no_expiry"` // overrides TTL
	Locking  string        `yaml:"locking"`   // whole|per-key
}

// ObserveConfig configures telemetry.
type ObserveConfig struct {
	ServiceName string        `yaml:"service_name"`
	Tracing     TracingConfig `yaml:"tracing"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Logging     LoggingConfig `yaml:"logging"`
}

// TracingConfig mirrors observe.TracingConfig.
type TracingConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Exporter  string  `yaml:"exporter"`
	SamplePct float64 `yaml:"sample_pct"`
}

// MetricsConfig mirrors observe.MetricsConfig.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// LoggingConfig mirrors observe.LoggingConfig.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}

// FetchConfig configures the page fetcher.
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
	Retries     int           `yaml:"retries"` // extra attempts after the first
	URLs        []string      `yaml:"urls"`
}

// HealthConfig configures the HTTP health and metrics server.
type HealthConfig struct {
	Listen string `yaml:"listen"` // empty disables the server
}

// Default returns the configuration used for absent keys.
func Default() Config {
	cc := cache.DefaultConfig()
	return Config{
		Cache: CacheConfig{
			Capacity: cc.Capacity,
			TTL:      cc.TTL,
			Locking:  cc.Locking.String(),
		},
		Observe: ObserveConfig{
			ServiceName: "memocache",
			Tracing:     TracingConfig{Exporter: "none", SamplePct: 1.0},
			Metrics:     MetricsConfig{Exporter: "none"},
			Logging:     LoggingConfig{Enabled: true, Level: "info"},
		},
		Fetch: FetchConfig{
			Timeout:     fetch.DefaultTimeout,
			Concurrency: fetch.DefaultConcurrency,
		},
	}
}

// Load reads and validates the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references from the environment, decodes the YAML
// over Default and validates the result. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	expanded, err := expandEnv(string(data), os.LookupEnv)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	var errs []error

	if _, err := c.CacheConfig(); err != nil {
		errs = append(errs, err)
	}
	oc := c.ObserveConfig()
	if err := oc.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout))
	}
	if c.Fetch.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("fetch.concurrency must be positive, got %d", c.Fetch.Concurrency))
	}
	if c.Fetch.Retries < 0 {
		errs = append(errs, fmt.Errorf("fetch.retries must not be negative, got %d", c.Fetch.Retries))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// CacheConfig converts the cache section into a validated cache.Config.
func (c Config) CacheConfig() (cache.Config, error) {
	mode, err := cache.ParseLockMode(c.Cache.Locking)
	if err != nil {
		return cache.Config{}, err
	}

	cc := cache.Config{
		Capacity: c.Cache.Capacity,
		TTL:      c.Cache.TTL,
		Locking:  mode,
	}
	if c.Cache.NoExpiry {
		cc.TTL = cache.NoExpiration
	}
	if err := cc.Validate(); err != nil {
		return cache.Config{}, err
	}
	return cc, nil
}

// ObserveConfig converts the observe section.
func (c Config) ObserveConfig() observe.Config {
	o := c.Observe
	return observe.Config{
		ServiceName: o.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   o.Tracing.Enabled,
			Exporter:  o.Tracing.Exporter,
			SamplePct: o.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  o.Metrics.Enabled,
			Exporter: o.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: o.Logging.Enabled,
			Level:   o.Logging.Level,
		},
	}
}

// FetchClient builds a fetch.Client from the fetch section.
func (c Config) FetchClient(logger observe.Logger) *fetch.Client {
	return &fetch.Client{
		Timeout: c.Fetch.Timeout,
		Retry: fetch.RetryPolicy{
			MaxAttempts: c.Fetch.Retries + 1,
			Jitter:      true,
		},
		Breaker: fetch.NewBreaker(fetch.BreakerConfig{}),
		Logger:  logger,
	}
}
