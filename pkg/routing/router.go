package routing

import (
	"fmt"
	"log/slog"
	"math"

	"lumen-hq/vesta/pkg/catalog"
	"lumen-hq/vesta/pkg/costs"
	"lumen-hq/vesta/pkg/health"
)

// Router selects a backend model per request. Safe for concurrent use; the
// only mutable state it touches is the health tracker's snapshot.
type Router struct {
	catalog      *catalog.Catalog
	costs        *costs.Engine
	health       *health.Tracker
	defaultModel string
	logger       *slog.Logger
}

// NewRouter creates a router. defaultModel is the latency strategy's
// fallback when no candidate has latency samples; when empty, the catalog's
// balanced default is used.
func NewRouter(cat *catalog.Catalog, costEngine *costs.Engine, tracker *health.Tracker, defaultModel string) *Router {
	if defaultModel == "" {
		defaultModel, _ = cat.DefaultModel(catalog.PurposeBalanced)
	}
	return &Router{
		catalog:      cat,
		costs:        costEngine,
		health:       tracker,
		defaultModel: defaultModel,
		logger:       slog.Default().With("component", "router"),
	}
}

// Route picks a model for the request.
func (r *Router) Route(req *Request) (*Decision, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = StrategyAuto
	}

	var (
		decision *Decision
		err      error
	)
	switch strategy {
	case StrategyCost:
		decision, err = r.routeCost(req)
	case StrategyLatency:
		decision, err = r.routeLatency(req)
	case StrategyCapability:
		decision, err = r.routeCapability(req)
	case StrategyAuto:
		decision, err = r.routeAuto(req)
	default:
		return nil, &UnknownStrategyError{Name: string(strategy)}
	}
	if err != nil {
		return nil, err
	}

	r.logger.Debug("routing decision",
		"model", decision.Model,
		"strategy", decision.Strategy,
		"reason", decision.Reason,
		"request_id", req.RequestID,
	)
	return decision, nil
}

// candidates filters the catalog down to models satisfying the request's
// capability and regional availability constraints. Embedding models never
// serve completions.
func (r *Router) candidates(req *Request) ([]string, []string) {
	var constraints []string
	if req.RequireVision {
		constraints = append(constraints, "vision")
	}
	if req.RequireFunctionCalling {
		constraints = append(constraints, "function-calling")
	}
	if req.MinContextLength > 0 {
		constraints = append(constraints, fmt.Sprintf("context>=%d", req.MinContextLength))
	}
	if req.Region != "" {
		constraints = append(constraints, "region="+req.Region)
	}

	var out []string
	for _, m := range r.catalog.Models() {
		if m.QualityTier == "embedding" {
			continue
		}
		if req.RequireVision && !m.SupportsVision {
			continue
		}
		if req.RequireFunctionCalling && !m.SupportsFunctionCalling {
			continue
		}
		if req.MinContextLength > 0 && m.MaxContextLength < req.MinContextLength {
			continue
		}
		if req.Region != "" && !m.AvailableIn(req.Region) {
			continue
		}
		out = append(out, m.ID)
	}
	return out, constraints
}

// routeCost picks the cheapest capable model under the optional price
// ceiling.
func (r *Router) routeCost(req *Request) (*Decision, error) {
	cands, constraints := r.candidates(req)

	if req.MaxCost > 0 {
		constraints = append(constraints, fmt.Sprintf("max_cost<=%.6f", req.MaxCost))
		filtered := cands[:0]
		for _, id := range cands {
			cost := r.costs.Price(id, req.Region, req.InputTokens, req.ExpectedOutputTokens).TotalCost
			if cost <= req.MaxCost {
				filtered = append(filtered, id)
			}
		}
		cands = filtered
	}

	model, err := r.costs.CheapestModel(cands, req.InputTokens, req.ExpectedOutputTokens, req.Region)
	if err != nil {
		return nil, &NoEligibleModelError{Strategy: StrategyCost, Constraints: constraints}
	}

	return &Decision{
		Model:         model,
		Strategy:      StrategyCost,
		Reason:        "cheapest eligible model",
		EstimatedCost: r.costs.Price(model, req.Region, req.InputTokens, req.ExpectedOutputTokens).TotalCost,
	}, nil
}

// routeLatency ranks candidates by observed p95 latency. Candidates without
// samples are not comparable; when none have samples the configured default
// model is used instead of failing.
func (r *Router) routeLatency(req *Request) (*Decision, error) {
	cands, constraints := r.candidates(req)
	if len(cands) == 0 {
		return nil, &NoEligibleModelError{Strategy: StrategyLatency, Constraints: constraints}
	}

	best := ""
	bestP95 := math.Inf(1)
	for _, id := range cands {
		p95, ok := r.health.PercentileLatency(id, 95)
		if !ok {
			continue
		}
		if p95 < bestP95 {
			best = id
			bestP95 = p95
		}
	}

	if best == "" {
		if r.defaultModel == "" {
			return nil, &NoEligibleModelError{
				Strategy:    StrategyLatency,
				Constraints: append(constraints, "no latency samples, no default model"),
			}
		}
		return &Decision{
			Model:    r.defaultModel,
			Strategy: StrategyLatency,
			Reason:   "no latency samples for any candidate, using default model",
		}, nil
	}

	return &Decision{
		Model:        best,
		Strategy:     StrategyLatency,
		Reason:       "lowest observed p95 latency",
		P95LatencyMs: bestP95,
	}, nil
}

// routeCapability maps declared capabilities onto the catalog's purpose
// defaults: vision and function-calling each have a designated model, and
// everything else gets the balanced default.
func (r *Router) routeCapability(req *Request) (*Decision, error) {
	purpose := catalog.PurposeBalanced
	reason := "balanced default"
	switch {
	case req.RequireVision:
		purpose = catalog.PurposeVision
		reason = "vision-capable model"
	case req.RequireFunctionCalling:
		purpose = catalog.PurposeHighQuality
		reason = "function-calling-capable model"
	}

	model, ok := r.catalog.DefaultModel(purpose)
	if !ok {
		return nil, &NoEligibleModelError{
			Strategy:    StrategyCapability,
			Constraints: []string{"no default model for purpose " + purpose},
		}
	}
	return &Decision{
		Model:    model,
		Strategy: StrategyCapability,
		Reason:   reason,
	}, nil
}

// routeAuto is an ordered fallthrough: declared capabilities decide first,
// then observed latency, then cost. Unlike the standalone latency strategy,
// the latency stage here falls through to cost instead of using the default
// model, so an unexercised fleet still gets the cheapest choice.
func (r *Router) routeAuto(req *Request) (*Decision, error) {
	if req.RequireVision || req.RequireFunctionCalling {
		return r.routeCapability(req)
	}

	cands, _ := r.candidates(req)
	for _, id := range cands {
		if _, ok := r.health.PercentileLatency(id, 95); ok {
			return r.routeLatency(req)
		}
	}

	return r.routeCost(req)
}
