package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"lumen-hq/vesta/pkg/costs"
	"lumen-hq/vesta/pkg/routing"
)

// Request headers understood by the invoke endpoint.
const (
	HeaderRoutingStrategy = "X-Routing-Strategy"
	HeaderEnableCache     = "X-Enable-Cache"
	HeaderMaxCost         = "X-Max-Cost"
)

// Default request parameters.
const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

// Message is one turn of an inbound conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InvokeRequest is the POST /v1/invoke body. Model may be a concrete model
// identifier, "auto", or empty; the latter two delegate selection to the
// router.
type InvokeRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Options carries the header-derived per-request controls.
type Options struct {
	// Strategy overrides the configured default routing strategy.
	// Zero value means "use the default".
	Strategy routing.Strategy

	// DisableCache skips both cache lookup and write-back for this request.
	DisableCache bool

	// MaxCost is an optional USD ceiling for routed selection. Zero means
	// no ceiling.
	MaxCost float64

	// RequestID correlates the request across logs, metrics, and usage
	// records.
	RequestID string
}

// Usage reports token counts for a completed request.
type Usage struct {
	InputTokens  int `json:"input"`
	OutputTokens int `json:"output"`
	TotalTokens  int `json:"total"`
}

// CacheInfo reports how the cache participated in a request.
type CacheInfo struct {
	Hit        bool    `json:"hit"`
	Type       string  `json:"type,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
	Saved      float64 `json:"saved,omitempty"`
}

// Metadata carries request-level bookkeeping back to the client.
type Metadata struct {
	LatencyMs       int64  `json:"latency_ms"`
	Region          string `json:"region"`
	RoutingStrategy string `json:"routing_strategy"`
	RequestID       string `json:"request_id"`
}

// InvokeResponse is the POST /v1/invoke response body.
type InvokeResponse struct {
	ID       string              `json:"id"`
	Model    string              `json:"model"`
	Content  string              `json:"content"`
	Usage    Usage               `json:"usage"`
	Cost     costs.CostBreakdown `json:"cost"`
	Cache    CacheInfo           `json:"cache"`
	Metadata Metadata            `json:"metadata"`
}

// ErrorResponse is the JSON error envelope for all endpoints.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the JSON error envelope.
func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Type: errType, Message: message}})
}

// ParseStrategyName maps the public strategy names used in configuration
// and the X-Routing-Strategy header onto routing strategies. Empty input
// returns the zero Strategy, meaning "use the configured default".
func ParseStrategyName(name string) (routing.Strategy, error) {
	switch name {
	case "":
		return "", nil
	case "cost-optimized":
		return routing.StrategyCost, nil
	case "low-latency":
		return routing.StrategyLatency, nil
	case "capability":
		return routing.StrategyCapability, nil
	case "auto":
		return routing.StrategyAuto, nil
	default:
		return "", fmt.Errorf("unknown routing strategy %q (valid: cost-optimized, low-latency, capability, auto)", name)
	}
}

// strategyName is the inverse of ParseStrategyName, for response metadata.
func strategyName(s routing.Strategy) string {
	switch s {
	case routing.StrategyCost:
		return "cost-optimized"
	case routing.StrategyLatency:
		return "low-latency"
	case routing.StrategyCapability:
		return "capability"
	case routing.StrategyAuto:
		return "auto"
	default:
		return string(s)
	}
}
