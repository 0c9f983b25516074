package costs

import (
	"errors"
	"log/slog"
	"math"

	"lumen-hq/vesta/pkg/catalog"
)

// ErrNoCandidates is returned by CheapestModel when the candidate set is empty.
var ErrNoCandidates = errors.New("no candidate models")

// EmbeddingModelID is the catalog entry whose input price is charged for
// embedding calls made on behalf of semantic cache lookups.
const EmbeddingModelID = "amazon.titan-embed-text-v2:0"

// CostBreakdown is the priced result of a token-count pair. It is a computed
// value, never persisted on its own.
type CostBreakdown struct {
	// InputCost is the USD cost of the input tokens.
	InputCost float64 `json:"input"`

	// OutputCost is the USD cost of the output tokens.
	OutputCost float64 `json:"output"`

	// TotalCost is InputCost + OutputCost.
	TotalCost float64 `json:"total"`
}

// CostSavings quantifies what a cache hit avoided paying.
type CostSavings struct {
	// GrossSavings is the full inference cost that the hit avoided.
	GrossSavings float64 `json:"gross"`

	// EmbeddingCost is the cost of the embedding call that enabled the
	// semantic lookup. Zero for exact hits.
	EmbeddingCost float64 `json:"embedding_cost"`

	// NetSavings is GrossSavings minus EmbeddingCost.
	NetSavings float64 `json:"net"`
}

// Engine prices requests against the model catalog. It is stateless apart
// from the catalog reference and safe for concurrent use.
type Engine struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewEngine creates a cost engine backed by the given catalog.
func NewEngine(c *catalog.Catalog) *Engine {
	return &Engine{
		catalog: c,
		logger:  slog.Default().With("component", "costs"),
	}
}

// Price computes the cost of a token-count pair for a model in a region:
// cost = (tokens/1000) * pricePer1K * regionalMultiplier, input and output
// priced independently.
//
// Unknown models fall back to the default pricing profile rather than
// failing; the fallback is logged as a degraded condition.
func (e *Engine) Price(modelID, region string, inputTokens, outputTokens int) CostBreakdown {
	model, ok := e.catalog.Get(modelID)
	if !ok {
		model = e.catalog.DefaultPricing()
		e.logger.Warn("no pricing for model, using default profile",
			"model", modelID,
			"pricing_model", model.ID,
			"region", region,
		)
	}

	mult := e.catalog.RegionMultiplier(region)

	inputCost := tokenCost(inputTokens, model.InputPricePer1K) * mult
	outputCost := tokenCost(outputTokens, model.OutputPricePer1K) * mult

	return CostBreakdown{
		InputCost:  round6(inputCost),
		OutputCost: round6(outputCost),
		TotalCost:  round6(inputCost + outputCost),
	}
}

// CacheSavings computes the savings from a cache hit that avoided an
// inference call of the given size. embeddingTokens is the size of the
// embedding request made for the semantic lookup; pass 0 for exact hits.
//
// NetSavings is never greater than GrossSavings.
func (e *Engine) CacheSavings(modelID, region string, inputTokens, outputTokens, embeddingTokens int) CostSavings {
	avoided := e.Price(modelID, region, inputTokens, outputTokens)

	embeddingCost := 0.0
	if embeddingTokens > 0 {
		embeddingCost = e.Price(EmbeddingModelID, region, embeddingTokens, 0).TotalCost
	}

	return CostSavings{
		GrossSavings:  avoided.TotalCost,
		EmbeddingCost: round6(embeddingCost),
		NetSavings:    round6(avoided.TotalCost - embeddingCost),
	}
}

// CheapestModel returns the candidate with the lowest total cost for the
// given token counts and region. Ties are broken by catalog order, so the
// result is deterministic and independent of the candidates' ordering.
func (e *Engine) CheapestModel(candidates []string, inputTokens, outputTokens int, region string) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}

	best := ""
	bestCost := math.Inf(1)
	bestOrder := math.MaxInt

	for _, id := range candidates {
		cost := e.Price(id, region, inputTokens, outputTokens).TotalCost
		order := e.catalog.CatalogOrder(id)

		if cost < bestCost || (cost == bestCost && order < bestOrder) {
			best = id
			bestCost = cost
			bestOrder = order
		}
	}

	return best, nil
}

// tokenCost computes the unscaled cost for a token count.
func tokenCost(tokens int, pricePer1K float64) float64 {
	if tokens <= 0 {
		return 0.0
	}
	return (float64(tokens) / 1000.0) * pricePer1K
}

// round6 rounds to 6 decimal places.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
