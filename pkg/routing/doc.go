// Package routing selects which backend model serves a cache miss. The
// router holds no state of its own: every decision is a pure function over
// the model catalog, the cost engine, and a health tracker snapshot.
//
// A request that names an explicit model never reaches the router; the
// gateway bypasses it entirely.
package routing
