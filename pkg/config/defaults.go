package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 90 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultCORSMaxAge      = 3600

	// Cache defaults
	DefaultCacheBackend        = "memory"
	DefaultCacheSQLitePath     = "data/cache.db"
	DefaultSimilarityThreshold = 0.95
	DefaultIndexWindow         = 256
	DefaultResponseTTL         = 1 * time.Hour
	DefaultEmbeddingTTL        = 24 * time.Hour

	// Embedding defaults
	DefaultEmbeddingModel      = "amazon.titan-embed-text-v2:0"
	DefaultEmbeddingDimension  = 1024
	DefaultEmbeddingTimeout    = 10 * time.Second
	DefaultEmbeddingMaxRetries = 2

	// Backend defaults
	DefaultBackendName           = "default"
	DefaultBackendTimeout        = 60 * time.Second
	DefaultBackendMaxRetries     = 2
	DefaultBackendHealthPath     = "/health"
	DefaultBackendHealthInterval = 30 * time.Second

	// Routing defaults
	DefaultRoutingStrategy  = "auto"
	DefaultRegion           = "us-east-1"
	DefaultHealthWindowSize = 100
	DefaultHealthWindowAge  = 5 * time.Minute

	// Usage defaults
	DefaultUsagePath         = "data/usage.db"
	DefaultUsageBuffer       = 1000
	DefaultRetentionDays     = 30
	DefaultRetentionSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"
	DefaultMetricsPath   = "/metrics"
)

// ApplyDefaults fills zero-valued fields with defaults. Idempotent.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.Server.CORS.AllowedMethods) == 0 {
		cfg.Server.CORS.AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(cfg.Server.CORS.AllowedHeaders) == 0 {
		cfg.Server.CORS.AllowedHeaders = []string{
			"Authorization", "Content-Type", "X-Request-ID",
			"X-Routing-Strategy", "X-Enable-Cache", "X-Max-Cost",
		}
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Cache
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.SQLitePath == "" {
		cfg.Cache.SQLitePath = DefaultCacheSQLitePath
	}
	if cfg.Cache.SimilarityThreshold == 0 {
		cfg.Cache.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.Cache.IndexWindow == 0 {
		cfg.Cache.IndexWindow = DefaultIndexWindow
	}
	if cfg.Cache.ResponseTTL == 0 {
		cfg.Cache.ResponseTTL = DefaultResponseTTL
	}
	if cfg.Cache.EmbeddingTTL == 0 {
		cfg.Cache.EmbeddingTTL = DefaultEmbeddingTTL
	}

	// Embedding
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = DefaultEmbeddingModel
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = DefaultEmbeddingDimension
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = DefaultEmbeddingTimeout
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = DefaultEmbeddingMaxRetries
	}

	// Backend
	if cfg.Backend.Name == "" {
		cfg.Backend.Name = DefaultBackendName
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = DefaultBackendTimeout
	}
	if cfg.Backend.MaxRetries == 0 {
		cfg.Backend.MaxRetries = DefaultBackendMaxRetries
	}
	if cfg.Backend.HealthPath == "" {
		cfg.Backend.HealthPath = DefaultBackendHealthPath
	}
	if cfg.Backend.HealthInterval == 0 {
		cfg.Backend.HealthInterval = DefaultBackendHealthInterval
	}

	// Routing
	if cfg.Routing.DefaultStrategy == "" {
		cfg.Routing.DefaultStrategy = DefaultRoutingStrategy
	}
	if cfg.Routing.Region == "" {
		cfg.Routing.Region = DefaultRegion
	}
	if cfg.Routing.HealthWindowSize == 0 {
		cfg.Routing.HealthWindowSize = DefaultHealthWindowSize
	}
	if cfg.Routing.HealthWindowAge == 0 {
		cfg.Routing.HealthWindowAge = DefaultHealthWindowAge
	}

	// Usage
	if cfg.Usage.Path == "" {
		cfg.Usage.Path = DefaultUsagePath
	}
	if cfg.Usage.Buffer == 0 {
		cfg.Usage.Buffer = DefaultUsageBuffer
	}
	if cfg.Usage.RetentionDays == 0 {
		cfg.Usage.RetentionDays = DefaultRetentionDays
	}
	if cfg.Usage.RetentionSchedule == "" {
		cfg.Usage.RetentionSchedule = DefaultRetentionSchedule
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// NewDefault returns a configuration with every default applied, suitable
// for running without a config file.
func NewDefault() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
