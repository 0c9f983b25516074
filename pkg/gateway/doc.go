// Package gateway orchestrates the request path: cache lookup, model
// routing, backend invocation, pricing, cache write-back, and usage
// recording. It also carries the HTTP handlers and middleware for the
// public API surface.
package gateway
