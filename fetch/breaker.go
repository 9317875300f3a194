package fetch

import (
	"sync"
	"time"

	"github.com/jonwraymond/memocache/cache"
)

// BreakerState is the state of one host's circuit.
type BreakerState int

const (
	// StateClosed lets requests through.
	StateClosed BreakerState = iota
	// StateOpen rejects requests until ResetTimeout has passed.
	StateOpen
	// StateHalfOpen lets one probe through to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens a host's
	// circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long a circuit stays open before a probe.
	// Default: 30s
	ResetTimeout time.Duration

	// Clock supplies the current time.
	// Default: cache.SystemClock
	Clock cache.Clock
}

// Breaker keeps one circuit per host so a dead host stops costing a
// timeout per URL. Only timeouts and 5xx responses count as failures.
type Breaker struct {
	config BreakerConfig

	mu    sync.Mutex
	hosts map[string]*circuit
}

type circuit struct {
	state       BreakerState
	failures    int
	lastFailure time.Time
	probing     bool
}

// NewBreaker creates a Breaker.
func NewBreaker(config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.Clock == nil {
		config.Clock = cache.SystemClock{}
	}
	return &Breaker{config: config, hosts: make(map[string]*circuit)}
}

// State returns host's current state.
func (b *Breaker) State(host string) BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.hosts[host]
	if !ok {
		return StateClosed
	}
	return b.currentStateLocked(c)
}

// allow reports whether a request to host may proceed.
func (b *Breaker) allow(host string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.hosts[host]
	if !ok {
		return true
	}

	switch b.currentStateLocked(c) {
	case StateOpen:
		return false
	case StateHalfOpen:
		if c.probing {
			return false
		}
		c.probing = true
	}
	return true
}

// record feeds a request outcome into host's circuit.
func (b *Breaker) record(host string, err error) {
	failure := retryable(err)

	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.hosts[host]
	if !ok {
		if !failure {
			return
		}
		c = &circuit{}
		b.hosts[host] = c
	}

	state := b.currentStateLocked(c)
	c.probing = false

	if !failure {
		c.state = StateClosed
		c.failures = 0
		return
	}

	c.failures++
	c.lastFailure = b.config.Clock.Now()
	if state == StateHalfOpen || c.failures >= b.config.MaxFailures {
		c.state = StateOpen
	}
}

func (b *Breaker) currentStateLocked(c *circuit) BreakerState {
	if c.state == StateOpen && b.config.Clock.Now().Sub(c.lastFailure) >= b.config.ResetTimeout {
		c.state = StateHalfOpen
		c.probing = false
	}
	return c.state
}
