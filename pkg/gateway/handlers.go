package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"lumen-hq/vesta/pkg/providers"
	"lumen-hq/vesta/pkg/routing"
)

// Handlers carries the HTTP handlers for the public API.
type Handlers struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandlers creates the handler set over the service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{
		svc:    svc,
		logger: slog.Default().With("component", "handlers"),
	}
}

// Invoke handles POST /v1/invoke.
func (h *Handlers) Invoke(w http.ResponseWriter, r *http.Request) {
	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body is not valid JSON: "+err.Error())
		return
	}

	opts, err := parseOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := h.svc.Invoke(r.Context(), &req, opts)
	if err != nil {
		h.writeInvokeError(w, r.Context(), err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseOptions extracts the per-request controls from headers and context.
func parseOptions(r *http.Request) (Options, error) {
	opts := Options{RequestID: RequestID(r.Context())}

	strategy, err := ParseStrategyName(r.Header.Get(HeaderRoutingStrategy))
	if err != nil {
		return opts, err
	}
	opts.Strategy = strategy

	if v := r.Header.Get(HeaderEnableCache); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("invalid " + HeaderEnableCache + " header: expected true or false")
		}
		opts.DisableCache = !enabled
	}

	if v := r.Header.Get(HeaderMaxCost); v != "" {
		maxCost, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(maxCost) || maxCost < 0 {
			return opts, errors.New("invalid " + HeaderMaxCost + " header: expected a non-negative dollar amount")
		}
		opts.MaxCost = maxCost
	}

	return opts, nil
}

// writeInvokeError maps service errors onto HTTP statuses.
func (h *Handlers) writeInvokeError(w http.ResponseWriter, ctx context.Context, err error) {
	var noModel *routing.NoEligibleModelError
	var unknownStrategy *routing.UnknownStrategyError
	var authErr *providers.AuthError
	var rateErr *providers.RateLimitError
	var timeoutErr *providers.TimeoutError
	var backendErr *providers.BackendError

	switch {
	case errors.Is(err, ErrEmptyMessages):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.As(err, &unknownStrategy):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.As(err, &noModel):
		writeError(w, http.StatusUnprocessableEntity, "no_eligible_model", err.Error())

	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &timeoutErr):
		writeError(w, http.StatusGatewayTimeout, "timeout", "request timed out")

	case errors.As(err, &rateErr):
		if rateErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())))
		}
		writeError(w, http.StatusTooManyRequests, "rate_limited", "backend rate limit exceeded")

	case errors.As(err, &authErr):
		// The gateway's backend credentials are misconfigured; from the
		// client's perspective that is an upstream failure.
		writeError(w, http.StatusBadGateway, "backend_error", "backend authentication failed")

	case errors.As(err, &backendErr):
		writeError(w, http.StatusBadGateway, "backend_error", err.Error())

	default:
		h.logger.ErrorContext(ctx, "invoke failed", "request_id", RequestID(ctx), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred.")
	}
}

// cacheStatsResponse is the GET /v1/cache/stats body.
type cacheStatsResponse struct {
	HitRate             float64       `json:"hit_rate"`
	TotalRequests       uint64        `json:"total_requests"`
	ExactHits           uint64        `json:"exact_hits"`
	SemanticHits        uint64        `json:"semantic_hits"`
	TotalHits           uint64        `json:"total_hits"`
	Misses              uint64        `json:"misses"`
	Entries             int           `json:"entries"`
	Stores              uint64        `json:"stores"`
	Savings             savingsBlock  `json:"savings"`
	SemanticEnabled     bool          `json:"semantic_enabled"`
	SimilarityThreshold float64       `json:"similarity_threshold"`
}

type savingsBlock struct {
	Gross         float64 `json:"gross"`
	EmbeddingCost float64 `json:"embedding_cost"`
	Net           float64 `json:"net"`
}

// CacheStats handles GET /v1/cache/stats.
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	engine := h.svc.Cache()
	if engine == nil {
		writeError(w, http.StatusNotFound, "cache_disabled", "caching is disabled")
		return
	}

	stats := h.svc.CacheStats(r.Context())
	totalHits := stats.ExactHits + stats.SemanticHits

	writeJSON(w, http.StatusOK, cacheStatsResponse{
		HitRate:       stats.HitRate,
		TotalRequests: totalHits + stats.Misses,
		ExactHits:     stats.ExactHits,
		SemanticHits:  stats.SemanticHits,
		TotalHits:     totalHits,
		Misses:        stats.Misses,
		Entries:       stats.Entries,
		Stores:        stats.Stores,
		Savings: savingsBlock{
			Gross:         stats.TotalGrossSavings,
			EmbeddingCost: round6(stats.TotalGrossSavings - stats.TotalNetSavings),
			Net:           stats.TotalNetSavings,
		},
		SemanticEnabled:     engine.SemanticEnabled(),
		SimilarityThreshold: engine.SimilarityThreshold(),
	})
}

// CacheClear handles DELETE /v1/cache.
func (h *Handlers) CacheClear(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearCache(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "cache clear failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to clear cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// modelView is the JSON listing shape for one catalog entry.
type modelView struct {
	ID                      string   `json:"id"`
	Provider                string   `json:"provider"`
	DisplayName             string   `json:"display_name"`
	InputPricePer1K         float64  `json:"input_price_per_1k"`
	OutputPricePer1K        float64  `json:"output_price_per_1k"`
	MaxContextLength        int      `json:"max_context_length"`
	SupportsVision          bool     `json:"vision"`
	SupportsFunctionCalling bool     `json:"function_calling"`
	Regions                 []string `json:"regions,omitempty"`
	QualityTier             string   `json:"quality_tier"`
}

// Models handles GET /v1/models.
func (h *Handlers) Models(w http.ResponseWriter, r *http.Request) {
	descriptors := h.svc.Catalog().Models()
	out := make([]modelView, 0, len(descriptors))
	for _, m := range descriptors {
		out = append(out, modelView{
			ID:                      m.ID,
			Provider:                m.Provider,
			DisplayName:             m.DisplayName,
			InputPricePer1K:         m.InputPricePer1K,
			OutputPricePer1K:        m.OutputPricePer1K,
			MaxContextLength:        m.MaxContextLength,
			SupportsVision:          m.SupportsVision,
			SupportsFunctionCalling: m.SupportsFunctionCalling,
			Regions:                 m.Regions,
			QualityTier:             m.QualityTier,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": out})
}

// modelHealthView is the JSON shape for one model's health.
type modelHealthView struct {
	Model        string  `json:"model"`
	Status       string  `json:"status"`
	Availability float64 `json:"availability"`
	P95LatencyMs float64 `json:"p95_latency_ms"`
	SampleCount  int     `json:"sample_count"`
}

// ModelsHealth handles GET /v1/models/health.
func (h *Handlers) ModelsHealth(w http.ResponseWriter, r *http.Request) {
	snapshots := h.svc.ModelHealth()
	out := make([]modelHealthView, 0, len(snapshots))
	for _, s := range snapshots {
		status := "healthy"
		if s.Availability < 0.5 {
			status = "unhealthy"
		} else if s.Availability < 0.95 {
			status = "degraded"
		}
		out = append(out, modelHealthView{
			Model:        s.Model,
			Status:       status,
			Availability: s.Availability,
			P95LatencyMs: s.P95LatencyMs,
			SampleCount:  s.Samples,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": out})
}

// UsageSummary handles GET /v1/usage/summary. The optional "window" query
// parameter is a Go duration (default 24h).
func (h *Handlers) UsageSummary(w http.ResponseWriter, r *http.Request) {
	window := 24 * time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid window parameter: expected a positive duration like 24h")
			return
		}
		window = d
	}

	summary, err := h.svc.UsageSummary(r.Context(), time.Now().Add(-window))
	if err != nil {
		writeError(w, http.StatusNotFound, "usage_disabled", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// healthResponse is the GET /health body.
type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Health handles GET /health. The gateway itself answering is the liveness
// signal; component states are informational.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{}

	backend := h.svc.BackendHealth()
	if backend.Healthy {
		components["backend"] = "healthy"
	} else {
		components["backend"] = "unhealthy"
	}

	if engine := h.svc.Cache(); engine != nil {
		components["cache"] = "enabled"
		if engine.SemanticEnabled() {
			components["semantic_cache"] = "enabled"
		} else {
			components["semantic_cache"] = "disabled"
		}
	} else {
		components["cache"] = "disabled"
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Components: components})
}

// round6 rounds to 6 decimals, matching the cost engine's precision.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
