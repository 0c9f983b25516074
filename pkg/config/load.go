package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults and
// environment overrides, and validates the result.
//
// Environment variables follow the convention VESTA_SECTION_FIELD
// (e.g., VESTA_SERVER_LISTEN_ADDRESS, VESTA_BACKEND_API_KEY) and always
// take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides applies VESTA_SECTION_FIELD environment overrides.
// Values that fail to parse are ignored so a stray variable cannot take
// the gateway down; validation catches anything structurally wrong after.
func applyEnvOverrides(cfg *Config) {
	// Server
	envString("VESTA_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("VESTA_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("VESTA_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("VESTA_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envDuration("VESTA_SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)

	// Cache
	envBoolPtr("VESTA_CACHE_ENABLED", &cfg.Cache.Enabled)
	envBoolPtr("VESTA_CACHE_SEMANTIC_ENABLED", &cfg.Cache.SemanticEnabled)
	envString("VESTA_CACHE_BACKEND", &cfg.Cache.Backend)
	envString("VESTA_CACHE_SQLITE_PATH", &cfg.Cache.SQLitePath)
	envFloat("VESTA_CACHE_SIMILARITY_THRESHOLD", &cfg.Cache.SimilarityThreshold)
	envInt("VESTA_CACHE_INDEX_WINDOW", &cfg.Cache.IndexWindow)
	envDuration("VESTA_CACHE_RESPONSE_TTL", &cfg.Cache.ResponseTTL)
	envDuration("VESTA_CACHE_EMBEDDING_TTL", &cfg.Cache.EmbeddingTTL)

	// Embedding
	envString("VESTA_EMBEDDING_BASE_URL", &cfg.Embedding.BaseURL)
	envString("VESTA_EMBEDDING_API_KEY", &cfg.Embedding.APIKey)
	envString("VESTA_EMBEDDING_MODEL", &cfg.Embedding.Model)
	envInt("VESTA_EMBEDDING_DIMENSION", &cfg.Embedding.Dimension)
	envDuration("VESTA_EMBEDDING_TIMEOUT", &cfg.Embedding.Timeout)

	// Backend
	envString("VESTA_BACKEND_BASE_URL", &cfg.Backend.BaseURL)
	envString("VESTA_BACKEND_API_KEY", &cfg.Backend.APIKey)
	envDuration("VESTA_BACKEND_TIMEOUT", &cfg.Backend.Timeout)
	envInt("VESTA_BACKEND_MAX_RETRIES", &cfg.Backend.MaxRetries)
	envDuration("VESTA_BACKEND_HEALTH_INTERVAL", &cfg.Backend.HealthInterval)

	// Routing
	envString("VESTA_ROUTING_DEFAULT_STRATEGY", &cfg.Routing.DefaultStrategy)
	envString("VESTA_ROUTING_DEFAULT_MODEL", &cfg.Routing.DefaultModel)
	envString("VESTA_ROUTING_REGION", &cfg.Routing.Region)
	envDuration("VESTA_ROUTING_HEALTH_WINDOW_AGE", &cfg.Routing.HealthWindowAge)

	// Catalog
	envString("VESTA_CATALOG_PATH", &cfg.Catalog.Path)
	envBool("VESTA_CATALOG_WATCH", &cfg.Catalog.Watch)

	// Usage
	envBoolPtr("VESTA_USAGE_ENABLED", &cfg.Usage.Enabled)
	envString("VESTA_USAGE_PATH", &cfg.Usage.Path)
	envInt("VESTA_USAGE_RETENTION_DAYS", &cfg.Usage.RetentionDays)
	envString("VESTA_USAGE_RETENTION_SCHEDULE", &cfg.Usage.RetentionSchedule)

	// Telemetry
	envString("VESTA_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("VESTA_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBoolPtr("VESTA_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("VESTA_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envBoolPtr(key string, dst **bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = &b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
