// Package observe instruments memoizing caches.
//
// It provides an OpenTelemetry-backed Observer, a JSON structured Logger,
// a Recorder that turns cache hits, misses, evictions and computes into
// metrics and log lines, and WrapCompute, which traces each computation.
// Nothing here executes or stores values; consumers pass the Recorder into
// cache.Config and wrap their compute functions.
package observe
