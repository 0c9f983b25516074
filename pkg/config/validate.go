package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError is a validation error for one configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable description of the problem.
	Message string
}

// Error returns the formatted field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates every validation failure in a configuration.
type ValidationError struct {
	// Errors contains all field errors found.
	Errors []FieldError
}

// Error returns a formatted string listing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the whole configuration and returns a ValidationError
// listing every problem found, or nil when the configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateEmbedding(cfg)...)
	errs = append(errs, validateBackend(&cfg.Backend)...)
	errs = append(errs, validateRouting(&cfg.Routing)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be non-negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be non-negative",
		})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}

	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "cache.backend",
			Message: fmt.Sprintf("unknown backend %q (valid: memory, sqlite)", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "cache.sqlite_path",
			Message: "sqlite path is required when backend is sqlite",
		})
	}
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		errs = append(errs, FieldError{
			Field:   "cache.similarity_threshold",
			Message: fmt.Sprintf("similarity threshold must be in (0, 1], got %v", cfg.SimilarityThreshold),
		})
	}
	if cfg.IndexWindow <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.index_window",
			Message: "index window must be positive",
		})
	}
	if cfg.ResponseTTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.response_ttl",
			Message: "response TTL must be positive",
		})
	}
	if cfg.EmbeddingTTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.embedding_ttl",
			Message: "embedding TTL must be positive",
		})
	}

	return errs
}

func validateEmbedding(cfg *Config) []FieldError {
	var errs []FieldError

	// The embedding service is only contacted when the semantic tier is on.
	if cfg.CacheEnabled() && cfg.SemanticEnabled() {
		if cfg.Embedding.BaseURL == "" {
			errs = append(errs, FieldError{
				Field:   "embedding.base_url",
				Message: "base URL is required when cache.semantic_enabled is true",
			})
		} else if err := validateURL(cfg.Embedding.BaseURL); err != nil {
			errs = append(errs, FieldError{
				Field:   "embedding.base_url",
				Message: err.Error(),
			})
		}
	}
	if cfg.Embedding.Dimension < 0 {
		errs = append(errs, FieldError{
			Field:   "embedding.dimension",
			Message: "dimension must be non-negative",
		})
	}

	return errs
}

func validateBackend(cfg *BackendConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "backend.base_url",
			Message: "base URL is required",
		})
	} else if err := validateURL(cfg.BaseURL); err != nil {
		errs = append(errs, FieldError{
			Field:   "backend.base_url",
			Message: err.Error(),
		})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "backend.timeout",
			Message: "timeout must be positive",
		})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "backend.max_retries",
			Message: "max retries must be non-negative",
		})
	}

	return errs
}

func validateRouting(cfg *RoutingConfig) []FieldError {
	var errs []FieldError

	switch cfg.DefaultStrategy {
	case "cost-optimized", "low-latency", "capability", "auto":
	default:
		errs = append(errs, FieldError{
			Field: "routing.default_strategy",
			Message: fmt.Sprintf("unknown strategy %q (valid: cost-optimized, low-latency, capability, auto)",
				cfg.DefaultStrategy),
		})
	}
	if cfg.HealthWindowSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "routing.health_window_size",
			Message: "health window size must be positive",
		})
	}
	if cfg.HealthWindowAge <= 0 {
		errs = append(errs, FieldError{
			Field:   "routing.health_window_age",
			Message: "health window age must be positive",
		})
	}

	return errs
}

func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "usage.path",
			Message: "database path is required",
		})
	}
	if cfg.Buffer <= 0 {
		errs = append(errs, FieldError{
			Field:   "usage.buffer",
			Message: "buffer must be positive",
		})
	}
	if cfg.RetentionDays <= 0 {
		errs = append(errs, FieldError{
			Field:   "usage.retention_days",
			Message: "retention days must be positive",
		})
	}
	if cfg.RetentionSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RetentionSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "usage.retention_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (valid: debug, info, warn, error)", cfg.Logging.Level),
		})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (valid: json, text)", cfg.Logging.Format),
		})
	}
	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	return errs
}

// validateURL checks that a string parses as an absolute http(s) URL.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL host is required")
	}
	return nil
}
