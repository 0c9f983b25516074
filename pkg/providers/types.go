package providers

import "time"

// InvokeRequest is the provider-agnostic inference request.
type InvokeRequest struct {
	// Model is the model identifier to invoke.
	Model string `json:"model"`

	// Prompt is the input text.
	Prompt string `json:"prompt"`

	// MaxTokens caps the completion length. Zero lets the backend decide.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls sampling randomness.
	Temperature float64 `json:"temperature,omitempty"`

	// RequestID correlates the call with gateway logs.
	RequestID string `json:"-"`
}

// InvokeResponse is the provider-agnostic inference response.
type InvokeResponse struct {
	// Model is the model that produced the completion.
	Model string `json:"model"`

	// Completion is the generated text.
	Completion string `json:"completion"`

	// InputTokens and OutputTokens are the backend's token counts. When the
	// backend omits usage the caller estimates them from text length.
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// Latency is how long the backend call took.
	Latency time.Duration `json:"-"`
}

// BackendConfig configures an HTTP backend provider.
type BackendConfig struct {
	// Name identifies the backend in logs and errors.
	Name string

	// BaseURL is the backend's endpoint, without a trailing slash.
	BaseURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Timeout is the per-request timeout.
	// Default: 60s
	Timeout time.Duration

	// MaxRetries is the number of retries for transient failures (5xx,
	// network errors). 4xx responses are never retried.
	// Default: 2
	MaxRetries int

	// MaxIdleConns and MaxIdleConnsPerHost control connection pooling.
	// Defaults: 100 and 10.
	MaxIdleConns        int
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long idle connections are kept.
	// Default: 90s
	IdleConnTimeout time.Duration

	// HealthPath is the path probed by HealthCheck.
	// Default: /health
	HealthPath string
}

func (c BackendConfig) withDefaults() BackendConfig {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 100
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = 10
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
	if c.HealthPath == "" {
		c.HealthPath = "/health"
	}
	return c
}

// BackendHealth is the provider's passive health view, updated on every
// request and health check.
type BackendHealth struct {
	// Healthy is false after ConsecutiveFailures reaches the breaker
	// threshold, true again after the next success.
	Healthy bool `json:"healthy"`

	// LastCheck is when health was last updated.
	LastCheck time.Time `json:"last_check"`

	// ConsecutiveFailures counts failures since the last success.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// LastSuccess is the time of the last successful request.
	LastSuccess time.Time `json:"last_success"`

	// TotalRequests and FailedRequests are lifetime counters.
	TotalRequests  int64 `json:"total_requests"`
	FailedRequests int64 `json:"failed_requests"`

	// LastError describes the most recent failure, empty when healthy.
	LastError string `json:"last_error,omitempty"`
}
