package catalog

// ModelDescriptor describes a single backend model: identity, pricing,
// capabilities, and where it is available. Descriptors are static data;
// they are loaded once (or hot-reloaded as a whole) and never mutated
// by request paths.
type ModelDescriptor struct {
	// ID is the backend model identifier (e.g., "anthropic.claude-3-5-haiku-20241022-v1:0").
	ID string `yaml:"id"`

	// Provider is the upstream provider family (e.g., "anthropic", "meta", "amazon").
	Provider string `yaml:"provider"`

	// DisplayName is a human-readable model name for listings.
	DisplayName string `yaml:"display_name"`

	// InputPricePer1K is the price in USD per 1000 input tokens.
	InputPricePer1K float64 `yaml:"input_price_per_1k"`

	// OutputPricePer1K is the price in USD per 1000 output tokens.
	OutputPricePer1K float64 `yaml:"output_price_per_1k"`

	// MaxContextLength is the maximum context window in tokens.
	MaxContextLength int `yaml:"max_context_length"`

	// SupportsVision indicates the model accepts image input.
	SupportsVision bool `yaml:"vision"`

	// SupportsFunctionCalling indicates the model supports tool use.
	SupportsFunctionCalling bool `yaml:"function_calling"`

	// SupportsStreaming indicates the model supports streamed responses.
	SupportsStreaming bool `yaml:"streaming"`

	// Regions lists the regions where the model is available.
	Regions []string `yaml:"regions"`

	// TypicalLatencyMs is the vendor-published typical end-to-end latency.
	// Used only as a static hint; live latency comes from the health tracker.
	TypicalLatencyMs int `yaml:"typical_latency_ms"`

	// QualityTier is a coarse quality label ("lowest", "low", "medium",
	// "high", "highest", "embedding").
	QualityTier string `yaml:"quality_tier"`
}

// AvailableIn reports whether the model is offered in the given region.
// A descriptor with no regions listed is treated as available everywhere.
func (m *ModelDescriptor) AvailableIn(region string) bool {
	if len(m.Regions) == 0 {
		return true
	}
	for _, r := range m.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// Purpose names for default model selection.
const (
	PurposeCostOptimized = "cost-optimized"
	PurposeBalanced      = "balanced"
	PurposeHighQuality   = "high-quality"
	PurposeLowLatency    = "low-latency"
	PurposeVision        = "vision"
)
