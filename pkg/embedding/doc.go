// Package embedding defines the embedding gateway: the external service that
// turns text into fixed-length vectors for semantic cache lookups.
//
// The gateway is an external collaborator with its own per-call cost; the
// cost engine charges that cost against cache savings. Failures here are a
// recoverable degradation: callers fall back to exact-only caching.
package embedding
