package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"lumen-hq/vesta/pkg/cache"
	"lumen-hq/vesta/pkg/catalog"
	"lumen-hq/vesta/pkg/cli"
	"lumen-hq/vesta/pkg/costs"
	"lumen-hq/vesta/pkg/embedding"
	"lumen-hq/vesta/pkg/gateway"
	"lumen-hq/vesta/pkg/health"
	"lumen-hq/vesta/pkg/providers"
	"lumen-hq/vesta/pkg/routing"
	"lumen-hq/vesta/pkg/server"
	"lumen-hq/vesta/pkg/telemetry/logging"
	"lumen-hq/vesta/pkg/telemetry/metrics"
	"lumen-hq/vesta/pkg/usage"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Vesta gateway",
	Long: `Start the Vesta gateway with the specified configuration.

The gateway listens on the configured address and forwards inference
requests through the cache, router, and cost engine to the backend.

Examples:
  # Start with defaults
  vesta run

  # Start with a custom config
  vesta run --config /etc/vesta/vesta.yaml

  # Override the listen address
  vesta run --listen 0.0.0.0:8080

  # Validate config without starting
  vesta run --dry-run`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Vesta v%s\n", Version)
	if cfgFile != "" {
		fmt.Printf("Configuration: %s\n", cfgFile)
	} else {
		fmt.Println("Configuration: built-in defaults")
	}

	// Model catalog, optionally hot-reloaded from disk.
	cat := catalog.New()
	if cfg.Catalog.Path != "" {
		if err := cat.LoadFile(cfg.Catalog.Path); err != nil {
			return cli.NewCommandError("run", fmt.Errorf("loading catalog: %w", err))
		}
		if cfg.Catalog.Watch {
			watcher, err := catalog.NewWatcher(cat, cfg.Catalog.Path, 0)
			if err != nil {
				logger.Warn("catalog watcher unavailable", "error", err)
			} else if err := watcher.Start(); err != nil {
				logger.Warn("catalog watcher failed to start", "error", err)
			} else {
				defer watcher.Stop()
			}
		}
	}
	fmt.Printf("✓ Catalog loaded (%d models)\n", len(cat.Models()))

	costEngine := costs.NewEngine(cat)
	tracker := health.NewTracker(cfg.Routing.HealthWindowSize, cfg.Routing.HealthWindowAge)
	router := routing.NewRouter(cat, costEngine, tracker, cfg.Routing.DefaultModel)

	// Inference backend with periodic health probes.
	provider := providers.NewHTTPProvider(providers.BackendConfig{
		Name:       cfg.Backend.Name,
		BaseURL:    cfg.Backend.BaseURL,
		APIKey:     cfg.Backend.APIKey,
		Timeout:    cfg.Backend.Timeout,
		MaxRetries: cfg.Backend.MaxRetries,
		HealthPath: cfg.Backend.HealthPath,
	})
	defer provider.Close()

	checker := providers.NewChecker(provider, cfg.Backend.HealthInterval)
	checker.Start()
	defer checker.Stop()

	// Cache engine. The semantic tier needs the embedding gateway; with
	// semantic caching off the exact tier runs alone.
	var cacheEngine *cache.Engine
	if cfg.CacheEnabled() {
		var store cache.Store
		switch cfg.Cache.Backend {
		case "sqlite":
			sqliteStore, err := cache.NewSQLiteStore(cfg.Cache.SQLitePath)
			if err != nil {
				return cli.NewCommandError("run", fmt.Errorf("opening cache store: %w", err))
			}
			store = sqliteStore
		default:
			store = cache.NewMemoryStore()
		}
		defer store.Close()

		var embedder embedding.Gateway
		if cfg.SemanticEnabled() {
			embedder = embedding.NewHTTPGateway(embedding.HTTPConfig{
				BaseURL:    cfg.Embedding.BaseURL,
				APIKey:     cfg.Embedding.APIKey,
				Model:      cfg.Embedding.Model,
				Dimension:  cfg.Embedding.Dimension,
				Timeout:    cfg.Embedding.Timeout,
				MaxRetries: cfg.Embedding.MaxRetries,
			})
		}

		cacheEngine = cache.NewEngine(cache.Config{
			SimilarityThreshold: cfg.Cache.SimilarityThreshold,
			IndexWindow:         cfg.Cache.IndexWindow,
			ResponseTTL:         cfg.Cache.ResponseTTL,
			EmbeddingTTL:        cfg.Cache.EmbeddingTTL,
			Region:              cfg.Routing.Region,
			DisableSemantic:     !cfg.SemanticEnabled(),
		}, store, embedder, costEngine)

		fmt.Printf("✓ Cache initialized (%s, semantic=%v)\n", cfg.Cache.Backend, cfg.SemanticEnabled())
	}

	// Usage accounting with scheduled retention pruning.
	var usageStore usage.Store
	var recorder *usage.Recorder
	if cfg.UsageEnabled() {
		sqliteStore, err := usage.NewSQLiteStore(cfg.Usage.Path)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("opening usage store: %w", err))
		}
		defer sqliteStore.Close()
		usageStore = sqliteStore

		recorder = usage.NewRecorder(usageStore, usage.RecorderConfig{Buffer: cfg.Usage.Buffer})
		defer recorder.Close()

		if cfg.Usage.RetentionSchedule != "" {
			scheduler := usage.NewRetentionScheduler(usageStore, usage.RetentionConfig{
				RetentionDays: cfg.Usage.RetentionDays,
				Schedule:      cfg.Usage.RetentionSchedule,
			})
			if err := scheduler.Start(); err != nil {
				logger.Warn("retention scheduler failed to start", "error", err)
			} else {
				defer scheduler.Stop()
			}
		}

		fmt.Println("✓ Usage store initialized")
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled() {
		collector = metrics.NewCollector(nil)
	}

	defaultStrategy, err := gateway.ParseStrategyName(cfg.Routing.DefaultStrategy)
	if err != nil {
		return cli.NewConfigError("routing.default_strategy", err.Error())
	}

	svc := gateway.NewService(
		gateway.Config{
			Region:          cfg.Routing.Region,
			DefaultStrategy: defaultStrategy,
			CacheEnabled:    cfg.CacheEnabled(),
		},
		gateway.Deps{
			Cache:    cacheEngine,
			Router:   router,
			Provider: provider,
			Costs:    costEngine,
			Catalog:  cat,
			Health:   tracker,
			Recorder: recorder,
			Usage:    usageStore,
			Metrics:  collector,
		},
	)

	srv := server.New(cfg, gateway.NewHandlers(svc), collector)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	fmt.Println()
	fmt.Printf("✓ Gateway listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.MetricsEnabled() {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Gateway stopped")
	return nil
}
