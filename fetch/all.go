package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the fan-out limit used when All is given limit <= 0.
const DefaultConcurrency = 5

// Result is the outcome for one URL of All. Exactly one of Content and Err
// is meaningful.
type Result struct {
	URL     string
	Content Content
	Err     error
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// All fetches every URL with at most limit requests in flight and returns
// one Result per URL in input order. A failing URL never cancels the
// others; only ctx does.
func All(ctx context.Context, f Fetcher, urls []string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]Result, len(urls))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, u := range urls {
		g.Go(func() error {
			content, err := f.Fetch(ctx, u)
			results[i] = Result{URL: u, Content: content, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
