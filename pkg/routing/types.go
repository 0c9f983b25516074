package routing

// Strategy names a model selection policy.
type Strategy string

const (
	// StrategyCost picks the cheapest capable model.
	StrategyCost Strategy = "cost"

	// StrategyLatency picks the model with the lowest observed p95 latency.
	StrategyLatency Strategy = "latency"

	// StrategyCapability maps declared capabilities onto a fixed model.
	StrategyCapability Strategy = "capability"

	// StrategyAuto falls through capability, then latency, then cost.
	StrategyAuto Strategy = "auto"
)

// ParseStrategy validates a strategy name. An empty name means auto.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case "":
		return StrategyAuto, nil
	case StrategyCost, StrategyLatency, StrategyCapability, StrategyAuto:
		return Strategy(name), nil
	default:
		return "", &UnknownStrategyError{Name: name}
	}
}

// Request carries everything a routing decision depends on.
type Request struct {
	// Strategy selects the policy. Empty means auto.
	Strategy Strategy

	// Region is the pricing and availability region.
	Region string

	// InputTokens is the (estimated) prompt size.
	InputTokens int

	// ExpectedOutputTokens sizes the completion for cost comparison.
	ExpectedOutputTokens int

	// RequireVision and RequireFunctionCalling restrict candidates to
	// models with those capabilities.
	RequireVision          bool
	RequireFunctionCalling bool

	// MinContextLength excludes models with a smaller context window.
	// Zero means no constraint.
	MinContextLength int

	// MaxCost is an optional total-cost ceiling in USD for the estimated
	// token counts. Zero means no ceiling.
	MaxCost float64

	// RequestID correlates the decision with request logs.
	RequestID string
}

// Decision is the router's output.
type Decision struct {
	// Model is the selected model identifier.
	Model string `json:"model"`

	// Strategy is the policy that actually made the choice. Under auto
	// this names the stage that resolved (capability, latency, or cost).
	Strategy Strategy `json:"strategy"`

	// Reason is a short human-readable explanation for logs.
	Reason string `json:"reason"`

	// EstimatedCost is the projected total cost in USD for the estimated
	// token counts. Zero when the strategy did not price candidates.
	EstimatedCost float64 `json:"estimated_cost,omitempty"`

	// P95LatencyMs is the winning model's p95 when latency decided.
	P95LatencyMs float64 `json:"p95_latency_ms,omitempty"`
}
