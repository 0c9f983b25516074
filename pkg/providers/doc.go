// Package providers contains the backend adapters that perform actual
// inference calls. A Provider wraps one upstream inference API endpoint with
// connection pooling, retries, and passive health tracking.
//
// Errors are typed so the gateway can map them onto distinct HTTP statuses:
// an AuthError is the operator's misconfiguration, a RateLimitError carries
// a retry hint, and a BackendError wraps everything the upstream said.
package providers
