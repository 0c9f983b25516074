// Package usage persists a per-request accounting log: which model served
// each request, what it cost, and what the cache saved. Records are written
// asynchronously so accounting never sits on the request path, and a cron
// scheduler prunes old rows.
package usage
