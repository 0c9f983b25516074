// Package cache implements the two-tier response cache: an exact tier keyed
// by a prompt fingerprint and a semantic tier that matches prompts by
// embedding similarity over a bounded per-model index.
//
// Lookups try the exact tier first, then the semantic tier. Every failure
// mode along the way degrades to a miss: a store outage, an unavailable
// embedding service, or an index entry whose response expired first all
// produce a miss, never a request failure.
package cache
