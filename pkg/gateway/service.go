package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lumen-hq/vesta/pkg/cache"
	"lumen-hq/vesta/pkg/catalog"
	"lumen-hq/vesta/pkg/costs"
	"lumen-hq/vesta/pkg/health"
	"lumen-hq/vesta/pkg/providers"
	"lumen-hq/vesta/pkg/routing"
	"lumen-hq/vesta/pkg/telemetry/metrics"
	"lumen-hq/vesta/pkg/usage"
)

// ErrEmptyMessages is returned when an invoke request carries no messages.
var ErrEmptyMessages = errors.New("messages list cannot be empty")

// Config carries the request-path settings for the service.
type Config struct {
	// Region is the pricing and availability region.
	Region string

	// DefaultStrategy applies when neither the body nor headers select one.
	DefaultStrategy routing.Strategy

	// CacheEnabled is the global cache switch. Per-request X-Enable-Cache
	// can only disable further, never re-enable.
	CacheEnabled bool
}

// Deps are the collaborators the service orchestrates. Cache, Recorder,
// Usage, and Metrics may be nil when the corresponding feature is disabled.
type Deps struct {
	Cache    *cache.Engine
	Router   *routing.Router
	Provider providers.Provider
	Costs    *costs.Engine
	Catalog  *catalog.Catalog
	Health   *health.Tracker
	Recorder *usage.Recorder
	Usage    usage.Store
	Metrics  *metrics.Collector
}

// Service is the request orchestrator. One instance serves all requests.
type Service struct {
	config Config
	deps   Deps
	logger *slog.Logger
}

// NewService creates the orchestrator.
func NewService(cfg Config, deps Deps) *Service {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = routing.StrategyAuto
	}
	if deps.Cache != nil && deps.Metrics != nil {
		deps.Cache.SetEmbedObserver(deps.Metrics)
	}
	return &Service{
		config: cfg,
		deps:   deps,
		logger: slog.Default().With("component", "gateway"),
	}
}

// Invoke runs the full request path: resolve the model, consult the cache,
// invoke the backend on a miss, price the result, write back, and record
// usage. Model resolution happens before the cache lookup so that "auto"
// requests cache under the concrete model they resolve to.
func (s *Service) Invoke(ctx context.Context, req *InvokeRequest, opts Options) (*InvokeResponse, error) {
	start := time.Now()

	if len(req.Messages) == 0 {
		return nil, ErrEmptyMessages
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	// The last user turn is what gets cached and completed.
	prompt := req.Messages[len(req.Messages)-1].Content

	strategy := opts.Strategy
	if strategy == "" {
		strategy = s.config.DefaultStrategy
	}

	model, decision, err := s.resolveModel(req.Model, prompt, maxTokens, strategy, opts)
	if err != nil {
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordRoutingFailure(string(strategy))
		}
		s.recordUsage(&usage.Record{
			RequestID:    opts.RequestID,
			Model:        req.Model,
			Strategy:     strategyName(strategy),
			Region:       s.config.Region,
			CacheOutcome: string(cache.OutcomeMiss),
			LatencyMs:    float64(time.Since(start).Milliseconds()),
			Success:      false,
			ErrorType:    "routing",
		})
		return nil, err
	}

	reportedStrategy := "explicit"
	if decision != nil {
		reportedStrategy = strategyName(decision.Strategy)
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordRoutingDecision(string(decision.Strategy), model)
		}
	}

	useCache := s.config.CacheEnabled && !opts.DisableCache && s.deps.Cache != nil

	if useCache {
		result := s.deps.Cache.Lookup(ctx, model, prompt)
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordCacheLookup(string(result.Outcome))
		}
		if result.Outcome != cache.OutcomeMiss {
			return s.respondFromCache(ctx, model, reportedStrategy, opts, result, start), nil
		}
		resp, err := s.invokeBackend(ctx, model, prompt, maxTokens, temperature, reportedStrategy, opts, start)
		if err != nil {
			return nil, err
		}
		// result.Vector carries the lookup's embedding into the write-back
		// so the store does not embed the prompt a second time.
		if storeErr := s.deps.Cache.Store(ctx, model, prompt, resp.Content, resp.Usage.InputTokens, resp.Usage.OutputTokens, result.Vector); storeErr != nil {
			s.logger.Warn("cache write-back failed",
				"model", model,
				"request_id", opts.RequestID,
				"error", storeErr,
			)
			if s.deps.Metrics != nil {
				s.deps.Metrics.RecordStoreError("set")
			}
		}
		return resp, nil
	}

	return s.invokeBackend(ctx, model, prompt, maxTokens, temperature, reportedStrategy, opts, start)
}

// resolveModel picks the model for a request. A concrete model identifier
// bypasses the router entirely; "auto" or empty delegates to the configured
// strategy.
func (s *Service) resolveModel(requested, prompt string, maxTokens int, strategy routing.Strategy, opts Options) (string, *routing.Decision, error) {
	if requested != "" && requested != "auto" {
		return requested, nil, nil
	}

	decision, err := s.deps.Router.Route(&routing.Request{
		Strategy:             strategy,
		Region:               s.config.Region,
		InputTokens:          costs.EstimateTokens(prompt),
		ExpectedOutputTokens: maxTokens,
		MaxCost:              opts.MaxCost,
		RequestID:            opts.RequestID,
	})
	if err != nil {
		return "", nil, fmt.Errorf("model selection failed: %w", err)
	}
	return decision.Model, decision, nil
}

// respondFromCache builds the response for a cache hit and records the
// usage row. The cost block reports what the request would have cost; the
// cache block reports what was actually saved net of embedding spend.
func (s *Service) respondFromCache(ctx context.Context, model, strategy string, opts Options, result cache.Result, start time.Time) *InvokeResponse {
	entry := result.Entry
	breakdown := s.deps.Costs.Price(model, s.config.Region, entry.InputTokens, entry.OutputTokens)
	latency := time.Since(start)

	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordSavings(result.Savings.GrossSavings, result.Savings.NetSavings)
		s.deps.Metrics.RecordRequest(model, string(result.Outcome), "ok", latency)
	}

	s.recordUsage(&usage.Record{
		RequestID:       opts.RequestID,
		Model:           model,
		Strategy:        strategy,
		Region:          s.config.Region,
		CacheOutcome:    string(result.Outcome),
		Similarity:      result.Similarity,
		InputTokens:     entry.InputTokens,
		OutputTokens:    entry.OutputTokens,
		EmbeddingTokens: result.EmbeddingTokens,
		GrossSavingsUSD: result.Savings.GrossSavings,
		NetSavingsUSD:   result.Savings.NetSavings,
		LatencyMs:       float64(latency.Milliseconds()),
		Success:         true,
	})

	s.logger.InfoContext(ctx, "served from cache",
		"request_id", opts.RequestID,
		"model", model,
		"outcome", string(result.Outcome),
		"similarity", result.Similarity,
		"net_savings_usd", result.Savings.NetSavings,
	)

	return &InvokeResponse{
		ID:      "req_" + uuid.NewString(),
		Model:   model,
		Content: entry.Response,
		Usage: Usage{
			InputTokens:  entry.InputTokens,
			OutputTokens: entry.OutputTokens,
			TotalTokens:  entry.InputTokens + entry.OutputTokens,
		},
		Cost: breakdown,
		Cache: CacheInfo{
			Hit:        true,
			Type:       string(result.Outcome),
			Similarity: result.Similarity,
			Saved:      result.Savings.NetSavings,
		},
		Metadata: Metadata{
			LatencyMs:       latency.Milliseconds(),
			Region:          s.config.Region,
			RoutingStrategy: strategy,
			RequestID:       opts.RequestID,
		},
	}
}

// invokeBackend calls the inference backend, prices the response, and
// feeds the health tracker. Failed invocations become failed health samples
// and surface to the caller without cross-model retries.
func (s *Service) invokeBackend(ctx context.Context, model, prompt string, maxTokens int, temperature float64, strategy string, opts Options, start time.Time) (*InvokeResponse, error) {
	resp, err := s.deps.Provider.Invoke(ctx, &providers.InvokeRequest{
		Model:       model,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		RequestID:   opts.RequestID,
	})

	latency := time.Since(start)

	if err != nil {
		s.deps.Health.Record(model, latency, false)
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordBackendRequest(model, "error", latency)
			s.deps.Metrics.RecordRequest(model, string(cache.OutcomeMiss), "error", latency)
		}
		s.recordUsage(&usage.Record{
			RequestID:    opts.RequestID,
			Model:        model,
			Strategy:     strategy,
			Region:       s.config.Region,
			CacheOutcome: string(cache.OutcomeMiss),
			LatencyMs:    float64(latency.Milliseconds()),
			Success:      false,
			ErrorType:    classifyError(err),
		})
		return nil, fmt.Errorf("backend invocation failed: %w", err)
	}

	s.deps.Health.Record(model, resp.Latency, true)

	breakdown := s.deps.Costs.Price(model, s.config.Region, resp.InputTokens, resp.OutputTokens)

	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordBackendRequest(model, "ok", resp.Latency)
		s.deps.Metrics.RecordRequest(model, string(cache.OutcomeMiss), "ok", latency)
		s.deps.Metrics.RecordTokens(model, resp.InputTokens, resp.OutputTokens)
		s.deps.Metrics.RecordCost(model, breakdown.TotalCost)
	}

	s.recordUsage(&usage.Record{
		RequestID:    opts.RequestID,
		Model:        model,
		Strategy:     strategy,
		Region:       s.config.Region,
		CacheOutcome: string(cache.OutcomeMiss),
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      breakdown.TotalCost,
		LatencyMs:    float64(latency.Milliseconds()),
		Success:      true,
	})

	s.logger.InfoContext(ctx, "backend invocation completed",
		"request_id", opts.RequestID,
		"model", model,
		"strategy", strategy,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"cost_usd", breakdown.TotalCost,
		"latency_ms", latency.Milliseconds(),
	)

	return &InvokeResponse{
		ID:      "req_" + uuid.NewString(),
		Model:   model,
		Content: resp.Completion,
		Usage: Usage{
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
			TotalTokens:  resp.InputTokens + resp.OutputTokens,
		},
		Cost:  breakdown,
		Cache: CacheInfo{Hit: false},
		Metadata: Metadata{
			LatencyMs:       latency.Milliseconds(),
			Region:          s.config.Region,
			RoutingStrategy: strategy,
			RequestID:       opts.RequestID,
		},
	}, nil
}

// recordUsage hands a record to the async recorder when usage logging is on.
func (s *Service) recordUsage(rec *usage.Record) {
	if s.deps.Recorder != nil {
		s.deps.Recorder.Record(rec)
	}
}

// CacheStats returns the cache statistics surface, or nil when caching is
// disabled.
func (s *Service) CacheStats(ctx context.Context) *cache.Stats {
	if s.deps.Cache == nil {
		return nil
	}
	stats := s.deps.Cache.Stats(ctx)
	if s.deps.Metrics != nil {
		s.deps.Metrics.SetCacheEntries(stats.Entries)
	}
	return &stats
}

// ClearCache drops every cached entry.
func (s *Service) ClearCache(ctx context.Context) error {
	if s.deps.Cache == nil {
		return nil
	}
	return s.deps.Cache.Clear(ctx)
}

// Cache exposes the cache engine for the stats handler. Nil when disabled.
func (s *Service) Cache() *cache.Engine { return s.deps.Cache }

// Catalog exposes the model catalog for the listing handler.
func (s *Service) Catalog() *catalog.Catalog { return s.deps.Catalog }

// ModelHealth returns per-model health snapshots.
func (s *Service) ModelHealth() []health.ModelHealth {
	return s.deps.Health.SnapshotAll()
}

// BackendHealth reports the provider's current health.
func (s *Service) BackendHealth() providers.BackendHealth {
	return s.deps.Provider.Health()
}

// UsageSummary aggregates usage records since the given time. Returns an
// error when usage logging is disabled.
func (s *Service) UsageSummary(ctx context.Context, since time.Time) (*usage.Summary, error) {
	if s.deps.Usage == nil {
		return nil, errors.New("usage logging is disabled")
	}
	return s.deps.Usage.Summarize(ctx, since)
}

// classifyError maps provider and routing failures onto usage error types.
func classifyError(err error) string {
	var authErr *providers.AuthError
	var rateErr *providers.RateLimitError
	var timeoutErr *providers.TimeoutError
	var backendErr *providers.BackendError

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &rateErr):
		return "rate_limit"
	case errors.Is(err, routing.ErrNoEligibleModel):
		return "routing"
	case errors.As(err, &backendErr):
		return "backend"
	default:
		return "internal"
	}
}
