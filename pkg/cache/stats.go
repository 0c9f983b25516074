package cache

import (
	"sync"

	"lumen-hq/vesta/pkg/costs"
)

// Stats is a point-in-time snapshot of the engine's lifetime counters.
type Stats struct {
	// ExactHits and SemanticHits count hits per tier.
	ExactHits    uint64 `json:"exact_hits"`
	SemanticHits uint64 `json:"semantic_hits"`

	// Misses counts lookups that found no usable entry, including lookups
	// degraded by infrastructure failures.
	Misses uint64 `json:"misses"`

	// Stores counts entries written.
	Stores uint64 `json:"stores"`

	// HitRate is (exact + semantic) / total lookups, 0 with no lookups.
	HitRate float64 `json:"hit_rate"`

	// Entries is the current number of live cached responses.
	Entries int `json:"entries"`

	// TotalGrossSavings and TotalNetSavings accumulate the savings of every
	// hit, in USD.
	TotalGrossSavings float64 `json:"total_gross_savings"`
	TotalNetSavings   float64 `json:"total_net_savings"`
}

// counters accumulates lookup outcomes. Savings are floats, so a mutex is
// simpler than juggling atomic bit patterns.
type counters struct {
	mu           sync.Mutex
	exactHits    uint64
	semanticHits uint64
	misses       uint64
	stores       uint64
	grossSavings float64
	netSavings   float64
}

func (c *counters) recordHit(outcome Outcome, savings costs.CostSavings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if outcome == OutcomeExact {
		c.exactHits++
	} else {
		c.semanticHits++
	}
	c.grossSavings += savings.GrossSavings
	c.netSavings += savings.NetSavings
}

func (c *counters) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

func (c *counters) recordStore() {
	c.mu.Lock()
	c.stores++
	c.mu.Unlock()
}

func (c *counters) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		ExactHits:         c.exactHits,
		SemanticHits:      c.semanticHits,
		Misses:            c.misses,
		Stores:            c.stores,
		TotalGrossSavings: c.grossSavings,
		TotalNetSavings:   c.netSavings,
	}
	total := s.ExactHits + s.SemanticHits + s.Misses
	if total > 0 {
		s.HitRate = float64(s.ExactHits+s.SemanticHits) / float64(total)
	}
	return s
}
