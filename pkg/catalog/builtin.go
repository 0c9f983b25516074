package catalog

// builtinModels is the built-in model catalog. Order matters: it defines the
// stable catalog order used to break ties in cost-based selection.
var builtinModels = []ModelDescriptor{
	{
		ID:                      "anthropic.claude-3-5-sonnet-20241022-v2:0",
		Provider:                "anthropic",
		DisplayName:             "Claude 3.5 Sonnet v2",
		InputPricePer1K:         0.003,
		OutputPricePer1K:        0.015,
		MaxContextLength:        200000,
		SupportsVision:          true,
		SupportsFunctionCalling: true,
		SupportsStreaming:       true,
		Regions:                 []string{"us-east-1", "us-west-2", "eu-west-1", "eu-central-1", "ap-northeast-1"},
		TypicalLatencyMs:        2500,
		QualityTier:             "high",
	},
	{
		ID:                      "anthropic.claude-3-5-haiku-20241022-v1:0",
		Provider:                "anthropic",
		DisplayName:             "Claude 3.5 Haiku",
		InputPricePer1K:         0.001,
		OutputPricePer1K:        0.005,
		MaxContextLength:        200000,
		SupportsFunctionCalling: true,
		SupportsStreaming:       true,
		Regions:                 []string{"us-east-1", "us-west-2", "eu-west-1", "ap-northeast-1"},
		TypicalLatencyMs:        1200,
		QualityTier:             "medium",
	},
	{
		ID:                      "anthropic.claude-3-opus-20240229-v1:0",
		Provider:                "anthropic",
		DisplayName:             "Claude 3 Opus",
		InputPricePer1K:         0.015,
		OutputPricePer1K:        0.075,
		MaxContextLength:        200000,
		SupportsVision:          true,
		SupportsFunctionCalling: true,
		SupportsStreaming:       true,
		Regions:                 []string{"us-east-1", "us-west-2"},
		TypicalLatencyMs:        4000,
		QualityTier:             "highest",
	},
	{
		ID:                "meta.llama3-70b-instruct-v1:0",
		Provider:          "meta",
		DisplayName:       "Llama 3 70B Instruct",
		InputPricePer1K:   0.00265,
		OutputPricePer1K:  0.0035,
		MaxContextLength:  8192,
		SupportsStreaming: true,
		Regions:           []string{"us-east-1", "us-west-2", "eu-west-1"},
		TypicalLatencyMs:  1800,
		QualityTier:       "high",
	},
	{
		ID:                "meta.llama3-8b-instruct-v1:0",
		Provider:          "meta",
		DisplayName:       "Llama 3 8B Instruct",
		InputPricePer1K:   0.0003,
		OutputPricePer1K:  0.0006,
		MaxContextLength:  8192,
		SupportsStreaming: true,
		Regions:           []string{"us-east-1", "us-west-2", "eu-west-1", "ap-southeast-1"},
		TypicalLatencyMs:  800,
		QualityTier:       "low",
	},
	{
		ID:                "amazon.titan-text-express-v1",
		Provider:          "amazon",
		DisplayName:       "Titan Text Express",
		InputPricePer1K:   0.0002,
		OutputPricePer1K:  0.0006,
		MaxContextLength:  8192,
		SupportsStreaming: true,
		Regions:           []string{"us-east-1", "us-west-2", "eu-west-1", "ap-northeast-1", "ap-southeast-1"},
		TypicalLatencyMs:  900,
		QualityTier:       "low",
	},
	{
		ID:               "amazon.titan-text-lite-v1",
		Provider:         "amazon",
		DisplayName:      "Titan Text Lite",
		InputPricePer1K:  0.00015,
		OutputPricePer1K: 0.0002,
		MaxContextLength: 4096,
		Regions:          []string{"us-east-1", "us-west-2", "eu-west-1"},
		TypicalLatencyMs: 600,
		QualityTier:      "lowest",
	},
	{
		ID:                "mistral.mistral-7b-instruct-v0:2",
		Provider:          "mistral",
		DisplayName:       "Mistral 7B Instruct",
		InputPricePer1K:   0.00015,
		OutputPricePer1K:  0.0002,
		MaxContextLength:  32768,
		SupportsStreaming: true,
		Regions:           []string{"us-east-1", "us-west-2", "eu-west-1"},
		TypicalLatencyMs:  700,
		QualityTier:       "low",
	},
	{
		ID:                "mistral.mixtral-8x7b-instruct-v0:1",
		Provider:          "mistral",
		DisplayName:       "Mixtral 8x7B Instruct",
		InputPricePer1K:   0.00045,
		OutputPricePer1K:  0.0007,
		MaxContextLength:  32768,
		SupportsStreaming: true,
		Regions:           []string{"us-east-1", "us-west-2", "eu-west-1"},
		TypicalLatencyMs:  1100,
		QualityTier:       "medium",
	},
	{
		ID:               "amazon.titan-embed-text-v2:0",
		Provider:         "amazon",
		DisplayName:      "Titan Text Embeddings v2",
		InputPricePer1K:  0.0001,
		OutputPricePer1K: 0.0,
		MaxContextLength: 8192,
		Regions:          []string{"us-east-1", "us-west-2", "eu-west-1", "ap-northeast-1"},
		TypicalLatencyMs: 300,
		QualityTier:      "embedding",
	},
}

// builtinMultipliers maps region to pricing multiplier. Unknown regions use 1.0.
var builtinMultipliers = map[string]float64{
	"us-east-1":      1.0,
	"us-west-2":      1.0,
	"eu-west-1":      1.1,
	"eu-central-1":   1.1,
	"ap-northeast-1": 1.15,
	"ap-southeast-1": 1.15,
}

// builtinDefaults maps a selection purpose to the model that serves it.
var builtinDefaults = map[string]string{
	PurposeCostOptimized: "amazon.titan-text-lite-v1",
	PurposeBalanced:      "anthropic.claude-3-5-haiku-20241022-v1:0",
	PurposeHighQuality:   "anthropic.claude-3-5-sonnet-20241022-v2:0",
	PurposeLowLatency:    "meta.llama3-8b-instruct-v1:0",
	PurposeVision:        "anthropic.claude-3-5-sonnet-20241022-v2:0",
}

// DefaultPricingModelID identifies the pricing profile applied to unknown
// models. Pricing for an unrecognized model falls back to this profile so a
// missing catalog entry degrades cost accounting instead of failing requests.
const DefaultPricingModelID = "anthropic.claude-3-5-sonnet-20241022-v2:0"
