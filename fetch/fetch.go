package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonwraymond/memocache/observe"
)

// DefaultTimeout bounds each request when Client.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// DefaultMaxBodyBytes bounds response bodies when Client.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 10 << 20

// Content is a successfully fetched response.
type Content struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Text returns the body as a string.
func (c Content) Text() string {
	return string(c.Body)
}

// Fetcher retrieves the content at a URL.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: failures are *Error values classified by Kind.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Content, error)
}

// Client fetches URLs over HTTP GET. The zero value is usable.
type Client struct {
	// HTTP is the underlying client.
	// Default: http.DefaultClient
	HTTP *http.Client

	// Timeout bounds each attempt.
	// Default: DefaultTimeout
	Timeout time.Duration

	// MaxBodyBytes truncates larger bodies.
	// Default: DefaultMaxBodyBytes
	MaxBodyBytes int64

	// Retry retries transient failures. The zero value makes one attempt.
	Retry RetryPolicy

	// Breaker, when set, short-circuits requests to failing hosts.
	Breaker *Breaker

	// Logger receives retry and circuit events.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// Fetch GETs rawURL. Non-2xx responses fail with KindClient, deadlines with
// KindTimeout and everything else with KindUnexpected.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Content, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Content{}, &Error{URL: rawURL, Kind: KindUnexpected, Err: err}
	}

	if c.Breaker != nil && !c.Breaker.allow(u.Host) {
		c.logger().Warn(ctx, "fetch rejected by open circuit", field("host", u.Host))
		return Content{}, &Error{URL: rawURL, Kind: KindUnexpected, Err: ErrCircuitOpen}
	}

	var content Content
	err = c.Retry.do(ctx, func(ctx context.Context) error {
		var err error
		content, err = c.fetchOnce(ctx, rawURL)
		return err
	}, func(attempt int, err error, delay time.Duration) {
		c.logger().Warn(ctx, "fetch retry",
			field("url", rawURL),
			field("attempt", attempt),
			field("delay_ms", delay.Milliseconds()),
			field("error", err.Error()),
		)
	})

	if c.Breaker != nil {
		c.Breaker.record(u.Host, err)
	}
	if err != nil {
		return Content{}, err
	}
	return content, nil
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) (Content, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Content{}, &Error{URL: rawURL, Kind: KindUnexpected, Err: err}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Content{}, &Error{URL: rawURL, Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Content{}, &Error{
			URL:        rawURL,
			Kind:       KindClient,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrStatus, resp.Status),
		}
	}

	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		kind := classify(err)
		if kind == KindClient {
			kind = KindUnexpected
		}
		return Content{}, &Error{URL: rawURL, Kind: kind, StatusCode: resp.StatusCode, Err: err}
	}

	return Content{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logger() observe.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return observe.NopLogger()
}

// field builds a log field.
func field(key string, value any) observe.Field {
	return observe.Field{Key: key, Value: value}
}

var _ Fetcher = (*Client)(nil)
