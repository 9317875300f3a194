// Package fetch retrieves web pages concurrently and classifies failures.
//
// Client performs HTTP GETs with a per-request deadline, optional retries
// for transient failures and an optional per-host circuit breaker. All fans
// a URL list out with bounded concurrency and returns per-URL results in
// input order. Cached puts a cache.TTLLRU in front of any Fetcher.
//
// Every failure is an *Error whose Kind is KindClient (transport failure or
// non-2xx response), KindTimeout (deadline exceeded) or KindUnexpected.
//
//	client := &fetch.Client{Timeout: 5 * time.Second}
//	for _, r := range fetch.All(ctx, client, urls, 3) {
//		if errors.Is(r.Err, fetch.ErrTimeout) {
//			log.Printf("%s timed out", r.URL)
//		}
//	}
package fetch
