package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindUnexpected covers failures that are neither client nor timeout
	// errors: malformed requests, body read failures, open circuits.
	KindUnexpected Kind = iota
	// KindClient covers transport failures and non-2xx responses.
	KindClient
	// KindTimeout covers requests that exceeded their deadline.
	KindTimeout
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindTimeout:
		return "timeout"
	default:
		return "unexpected"
	}
}

// Sentinel errors, one per Kind. Match them with errors.Is.
var (
	ErrClient     = errors.New("fetch: client error")
	ErrTimeout    = errors.New("fetch: timeout")
	ErrUnexpected = errors.New("fetch: unexpected error")

	// ErrCircuitOpen is returned without a request when the target host
	// has failed too often recently.
	ErrCircuitOpen = errors.New("fetch: circuit breaker is open")

	// ErrWholeLockStore is returned by NewCached for a store that holds its
	// lock across computes, which would serialize every fetch.
	ErrWholeLockStore = errors.New("fetch: cache store must use per-key locking")

	// ErrStatus is wrapped by errors for non-2xx responses.
	ErrStatus = errors.New("fetch: unexpected status")
)

// Error is the error returned for a failed fetch. It unwraps to both its
// kind's sentinel and the underlying cause.
type Error struct {
	URL        string
	Kind       Kind
	StatusCode int // zero unless the server answered
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %s error: %v", e.URL, e.Kind, e.Err)
}

// Unwrap returns the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

func (k Kind) sentinel() error {
	switch k {
	case KindClient:
		return ErrClient
	case KindTimeout:
		return ErrTimeout
	default:
		return ErrUnexpected
	}
}

// KindOf reports the Kind of err, or KindUnexpected when err is not a fetch
// error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnexpected
}

// classify maps a transport error to a Kind.
func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindUnexpected
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindClient
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return KindClient
	}
	return KindUnexpected
}
