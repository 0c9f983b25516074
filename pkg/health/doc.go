// Package health tracks per-model latency and availability over a sliding
// window of recent invocations. The router consults it for latency-based
// routing; the API exposes it for operators.
package health
