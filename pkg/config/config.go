package config

import "time"

// Config is the root configuration for the Vesta gateway.
type Config struct {
	// Server contains the HTTP server configuration: listen address,
	// timeouts, and CORS.
	Server ServerConfig `yaml:"server"`

	// Cache contains the two-tier response cache configuration.
	Cache CacheConfig `yaml:"cache"`

	// Embedding contains the remote embedding service configuration used
	// by the semantic cache tier.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Backend contains the inference backend configuration.
	Backend BackendConfig `yaml:"backend"`

	// Routing contains model-selection configuration.
	Routing RoutingConfig `yaml:"routing"`

	// Catalog contains the model catalog / pricing data file configuration.
	Catalog CatalogConfig `yaml:"catalog"`

	// Usage contains per-request usage logging and retention configuration.
	Usage UsageConfig `yaml:"usage"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Must comfortably exceed the backend timeout or slow
	// inference calls are cut off mid-response.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request when
	// keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight requests are dropped.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout bounds a single request's total processing time,
	// enforced by middleware.
	// Default: 90s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS configuration for the dashboard UI.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// AllowedOrigins is the list of allowed origins.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is the list of allowed HTTP methods.
	// Default: ["GET", "POST", "DELETE", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is the list of allowed request headers.
	// Default: ["Authorization", "Content-Type", "X-Request-ID",
	// "X-Routing-Strategy", "X-Enable-Cache", "X-Max-Cost"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// CacheConfig contains configuration for the two-tier response cache.
type CacheConfig struct {
	// Enabled controls whether caching is active at all. When false every
	// request goes straight to the backend.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// SemanticEnabled controls the semantic (embedding similarity) tier.
	// The exact tier is always active when Enabled is true.
	// Default: true
	SemanticEnabled *bool `yaml:"semantic_enabled"`

	// Backend selects the cache store: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path when Backend is "sqlite".
	// Default: "data/cache.db"
	SQLitePath string `yaml:"sqlite_path"`

	// SimilarityThreshold is the minimum cosine similarity for a semantic
	// hit. A score exactly at the threshold is a hit.
	// Default: 0.95
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// IndexWindow bounds the semantic similarity scan to the most recent
	// N entries per model.
	// Default: 256
	IndexWindow int `yaml:"index_window"`

	// ResponseTTL is the lifetime of cached responses.
	// Default: 1h
	ResponseTTL time.Duration `yaml:"response_ttl"`

	// EmbeddingTTL is the lifetime of embedding records. Longer than
	// ResponseTTL so embeddings survive response churn.
	// Default: 24h
	EmbeddingTTL time.Duration `yaml:"embedding_ttl"`
}

// EmbeddingConfig contains configuration for the embedding service.
type EmbeddingConfig struct {
	// BaseURL is the embedding service endpoint.
	// Required when cache.semantic_enabled is true.
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token for the embedding service.
	APIKey string `yaml:"api_key"`

	// Model is the embedding model identifier.
	// Default: "amazon.titan-embed-text-v2:0"
	Model string `yaml:"model"`

	// Dimension is the expected vector length.
	// Default: 1024
	Dimension int `yaml:"dimension"`

	// Timeout is the per-call timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries on transient failures.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`
}

// BackendConfig contains configuration for the inference backend.
type BackendConfig struct {
	// Name identifies the backend in logs and health output.
	// Default: "default"
	Name string `yaml:"name"`

	// BaseURL is the backend API endpoint. Required.
	BaseURL string `yaml:"base_url"`

	// APIKey is the backend bearer token.
	// This should typically be supplied via VESTA_BACKEND_API_KEY.
	APIKey string `yaml:"api_key"`

	// Timeout is the per-invocation timeout.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries on 5xx and network failures.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`

	// HealthPath is the path probed by the periodic health check.
	// Default: "/health"
	HealthPath string `yaml:"health_path"`

	// HealthInterval is the period between health probes. Zero disables
	// background probing.
	// Default: 30s
	HealthInterval time.Duration `yaml:"health_interval"`
}

// RoutingConfig contains configuration for model selection.
type RoutingConfig struct {
	// DefaultStrategy applies when a request names neither a concrete
	// model nor an X-Routing-Strategy header.
	// Options: "cost-optimized", "low-latency", "capability", "auto".
	// Default: "auto"
	DefaultStrategy string `yaml:"default_strategy"`

	// DefaultModel is the fallback model for the latency strategy when no
	// health samples exist. Empty selects the balanced catalog default.
	DefaultModel string `yaml:"default_model"`

	// Region is the deployment region used for pricing multipliers and
	// model availability filtering.
	// Default: "us-east-1"
	Region string `yaml:"region"`

	// HealthWindowSize is the per-model sliding window of latency samples.
	// Default: 100
	HealthWindowSize int `yaml:"health_window_size"`

	// HealthWindowAge is how long a health sample stays visible. Samples
	// older than this are ignored even when the count window is not full.
	// Default: 5m
	HealthWindowAge time.Duration `yaml:"health_window_age"`
}

// CatalogConfig contains configuration for the model catalog file.
type CatalogConfig struct {
	// Path is an optional YAML file overriding or extending the built-in
	// catalog. Empty means built-ins only.
	Path string `yaml:"path"`

	// Watch enables hot reloading of the catalog file on change.
	// Default: false
	Watch bool `yaml:"watch"`
}

// UsageConfig contains configuration for the per-request usage log.
type UsageConfig struct {
	// Enabled controls whether usage records are written.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the SQLite database file for usage records.
	// Default: "data/usage.db"
	Path string `yaml:"path"`

	// Buffer is the async recorder queue depth. Records are dropped, with
	// a warning, when the queue is full.
	// Default: 1000
	Buffer int `yaml:"buffer"`

	// RetentionDays is how long usage rows are kept.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// RetentionSchedule is the cron expression for the pruning job.
	// Empty disables scheduled pruning.
	// Default: "0 3 * * *"
	RetentionSchedule string `yaml:"retention_schedule"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: json or text.
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in every record.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the scrape endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// boolOrDefault dereferences an optional bool with a default for nil.
func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// CacheEnabled reports the effective cache.enabled setting.
func (c *Config) CacheEnabled() bool { return boolOrDefault(c.Cache.Enabled, true) }

// SemanticEnabled reports the effective cache.semantic_enabled setting.
func (c *Config) SemanticEnabled() bool { return boolOrDefault(c.Cache.SemanticEnabled, true) }

// UsageEnabled reports the effective usage.enabled setting.
func (c *Config) UsageEnabled() bool { return boolOrDefault(c.Usage.Enabled, true) }

// MetricsEnabled reports the effective telemetry.metrics.enabled setting.
func (c *Config) MetricsEnabled() bool { return boolOrDefault(c.Telemetry.Metrics.Enabled, true) }

// CORSEnabled reports the effective server.cors.enabled setting.
func (c *Config) CORSEnabled() bool { return boolOrDefault(c.Server.CORS.Enabled, true) }
