package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("listen address = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.Cache.SimilarityThreshold != DefaultSimilarityThreshold {
		t.Errorf("similarity threshold = %v, want %v", cfg.Cache.SimilarityThreshold, DefaultSimilarityThreshold)
	}
	if cfg.Cache.IndexWindow != DefaultIndexWindow {
		t.Errorf("index window = %d, want %d", cfg.Cache.IndexWindow, DefaultIndexWindow)
	}
	if cfg.Cache.ResponseTTL != time.Hour {
		t.Errorf("response ttl = %v, want 1h", cfg.Cache.ResponseTTL)
	}
	if cfg.Embedding.Model != DefaultEmbeddingModel {
		t.Errorf("embedding model = %q, want %q", cfg.Embedding.Model, DefaultEmbeddingModel)
	}
	if cfg.Routing.DefaultStrategy != "auto" {
		t.Errorf("default strategy = %q, want auto", cfg.Routing.DefaultStrategy)
	}
	if cfg.Usage.RetentionSchedule != DefaultRetentionSchedule {
		t.Errorf("retention schedule = %q, want %q", cfg.Usage.RetentionSchedule, DefaultRetentionSchedule)
	}
	if !cfg.CacheEnabled() || !cfg.SemanticEnabled() || !cfg.UsageEnabled() {
		t.Error("optional features should default to enabled")
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	before := *cfg
	ApplyDefaults(cfg)
	if cfg.Server.ListenAddress != before.Server.ListenAddress ||
		cfg.Cache.SimilarityThreshold != before.Cache.SimilarityThreshold {
		t.Error("second ApplyDefaults changed values")
	}
}

func TestApplyDefaults_PreservesExplicit(t *testing.T) {
	disabled := false
	cfg := &Config{}
	cfg.Server.ListenAddress = "0.0.0.0:9999"
	cfg.Cache.SemanticEnabled = &disabled
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Errorf("explicit listen address overwritten: %q", cfg.Server.ListenAddress)
	}
	if cfg.SemanticEnabled() {
		t.Error("explicit semantic_enabled=false overwritten")
	}
}

func validConfig() *Config {
	cfg := NewDefault()
	cfg.Backend.BaseURL = "https://inference.example.com"
	cfg.Embedding.BaseURL = "https://embed.example.com"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing backend url", func(c *Config) { c.Backend.BaseURL = "" }, "backend.base_url"},
		{"bad backend scheme", func(c *Config) { c.Backend.BaseURL = "ftp://x" }, "backend.base_url"},
		{"missing embedding url", func(c *Config) { c.Embedding.BaseURL = "" }, "embedding.base_url"},
		{
			"embedding url optional when semantic off",
			func(c *Config) {
				off := false
				c.Cache.SemanticEnabled = &off
				c.Embedding.BaseURL = ""
			},
			"",
		},
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "redis" }, "cache.backend"},
		{"threshold above one", func(c *Config) { c.Cache.SimilarityThreshold = 1.5 }, "cache.similarity_threshold"},
		{"negative index window", func(c *Config) { c.Cache.IndexWindow = -1 }, "cache.index_window"},
		{"bad strategy", func(c *Config) { c.Routing.DefaultStrategy = "fastest" }, "routing.default_strategy"},
		{"bad cron", func(c *Config) { c.Usage.RetentionSchedule = "not cron" }, "usage.retention_schedule"},
		{"empty cron allowed", func(c *Config) { c.Usage.RetentionSchedule = "" }, ""},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "verbose" }, "telemetry.logging.level"},
		{"metrics path without slash", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q does not mention field %s", err.Error(), tt.wantField)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.BaseURL = ""
	cfg.Cache.Backend = "redis"
	cfg.Routing.DefaultStrategy = "fastest"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("error type = %T, want ValidationError", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("collected %d errors, want 3: %v", len(verr.Errors), verr)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vesta.yaml")
	content := `
server:
  listen_address: "0.0.0.0:8081"
cache:
  backend: sqlite
  sqlite_path: /tmp/cache.db
  similarity_threshold: 0.9
  response_ttl: 30m
embedding:
  base_url: https://embed.example.com
backend:
  base_url: https://inference.example.com
  timeout: 45s
routing:
  default_strategy: cost-optimized
  region: eu-west-1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8081" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Cache.Backend != "sqlite" || cfg.Cache.ResponseTTL != 30*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Backend.Timeout != 45*time.Second {
		t.Errorf("backend timeout = %v", cfg.Backend.Timeout)
	}
	if cfg.Routing.Region != "eu-west-1" {
		t.Errorf("region = %q", cfg.Routing.Region)
	}
	// Unspecified fields still pick up defaults.
	if cfg.Cache.IndexWindow != DefaultIndexWindow {
		t.Errorf("index window = %d, want default", cfg.Cache.IndexWindow)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a mapping"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vesta.yaml")
	content := `
backend:
  base_url: https://inference.example.com
embedding:
  base_url: https://embed.example.com
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("VESTA_SERVER_LISTEN_ADDRESS", "127.0.0.1:9000")
	t.Setenv("VESTA_BACKEND_API_KEY", "sk-test")
	t.Setenv("VESTA_CACHE_SEMANTIC_ENABLED", "false")
	t.Setenv("VESTA_CACHE_SIMILARITY_THRESHOLD", "0.9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9000" {
		t.Errorf("listen address = %q, env override not applied", cfg.Server.ListenAddress)
	}
	if cfg.Backend.APIKey != "sk-test" {
		t.Error("backend api key env override not applied")
	}
	if cfg.SemanticEnabled() {
		t.Error("semantic_enabled env override not applied")
	}
	if cfg.Cache.SimilarityThreshold != 0.9 {
		t.Errorf("similarity threshold = %v, want 0.9", cfg.Cache.SimilarityThreshold)
	}
}
