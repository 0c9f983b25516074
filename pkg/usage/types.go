package usage

import "time"

// Record is one request's accounting entry.
type Record struct {
	// ID is a UUID assigned when the record is created.
	ID string `json:"id"`

	// RequestID is the gateway's request correlation ID.
	RequestID string `json:"request_id"`

	// Timestamp is when the request completed.
	Timestamp time.Time `json:"timestamp"`

	// Model is the model that served (or would have served) the request.
	Model string `json:"model"`

	// Strategy is the routing strategy that picked the model, empty when
	// the caller named the model explicitly or the cache answered.
	Strategy string `json:"strategy,omitempty"`

	// Region is the pricing region.
	Region string `json:"region"`

	// CacheOutcome is exact, semantic, or miss.
	CacheOutcome string `json:"cache_outcome"`

	// Similarity is the semantic hit's cosine score, 0 otherwise.
	Similarity float64 `json:"similarity,omitempty"`

	// InputTokens, OutputTokens, and EmbeddingTokens size the request.
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	EmbeddingTokens int `json:"embedding_tokens,omitempty"`

	// CostUSD is what the request actually cost (zero on cache hits apart
	// from the embedding call, which is folded into savings).
	CostUSD float64 `json:"cost_usd"`

	// GrossSavingsUSD and NetSavingsUSD are the cache's contribution.
	GrossSavingsUSD float64 `json:"gross_savings_usd"`
	NetSavingsUSD   float64 `json:"net_savings_usd"`

	// LatencyMs is the end-to-end request latency.
	LatencyMs float64 `json:"latency_ms"`

	// Success is false when the backend call failed.
	Success bool `json:"success"`

	// ErrorType classifies a failure, empty on success.
	ErrorType string `json:"error_type,omitempty"`
}

// ModelSummary aggregates usage for one model.
type ModelSummary struct {
	Model         string  `json:"model"`
	Requests      int64   `json:"requests"`
	CacheHits     int64   `json:"cache_hits"`
	CostUSD       float64 `json:"cost_usd"`
	NetSavingsUSD float64 `json:"net_savings_usd"`
}

// Summary aggregates usage over a time range.
type Summary struct {
	// Since is the inclusive start of the summarized range.
	Since time.Time `json:"since"`

	// Requests is the total request count.
	Requests int64 `json:"requests"`

	// ExactHits, SemanticHits, and Misses break down cache outcomes.
	ExactHits    int64 `json:"exact_hits"`
	SemanticHits int64 `json:"semantic_hits"`
	Misses       int64 `json:"misses"`

	// HitRate is (exact + semantic) / requests, 0 with no requests.
	HitRate float64 `json:"hit_rate"`

	// TotalCostUSD and TotalNetSavingsUSD aggregate spend and savings.
	TotalCostUSD       float64 `json:"total_cost_usd"`
	TotalNetSavingsUSD float64 `json:"total_net_savings_usd"`

	// Models breaks the totals down per model, ordered by request count
	// descending.
	Models []ModelSummary `json:"models"`
}
