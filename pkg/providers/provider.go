package providers

import "context"

// Provider is one upstream inference backend. Implementations must respect
// context cancellation on every method that performs I/O.
type Provider interface {
	// Invoke sends an inference request and returns the normalized
	// response. Transient upstream failures are retried with exponential
	// backoff before an error is returned.
	Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error)

	// Name returns the backend's configured name.
	Name() string

	// Healthy reports whether the backend is currently considered usable.
	Healthy() bool

	// Health returns the detailed health view.
	Health() BackendHealth

	// HealthCheck probes the backend and returns nil when it is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources. The provider must not be used
	// afterwards.
	Close() error
}
