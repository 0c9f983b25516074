package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lumen-hq/vesta/pkg/costs"
	"lumen-hq/vesta/pkg/embedding"
)

// Outcome classifies a cache lookup.
type Outcome string

const (
	// OutcomeExact means the prompt fingerprint matched a stored entry.
	OutcomeExact Outcome = "exact"

	// OutcomeSemantic means a similar prompt's entry was served.
	OutcomeSemantic Outcome = "semantic"

	// OutcomeMiss means no usable entry was found.
	OutcomeMiss Outcome = "miss"
)

// Entry is a cached response together with the token counts needed to price
// what serving it avoided.
type Entry struct {
	// ID is the entry's fingerprint-derived identifier.
	ID string `json:"id"`

	// Model is the model that produced the response.
	Model string `json:"model"`

	// Prompt is the original (trimmed) prompt text.
	Prompt string `json:"prompt"`

	// Response is the stored completion text.
	Response string `json:"response"`

	// InputTokens and OutputTokens are the original request's token counts.
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time `json:"created_at"`
}

// Result is the outcome of a lookup.
type Result struct {
	// Outcome is exact, semantic, or miss.
	Outcome Outcome

	// Entry is the matched entry. Nil on a miss.
	Entry *Entry

	// Similarity is the cosine score of a semantic hit; 1.0 for exact hits,
	// 0 for misses.
	Similarity float64

	// Savings prices what the hit avoided, net of embedding cost. Zero value
	// on a miss.
	Savings costs.CostSavings

	// EmbeddingTokens is the estimated size of the embedding call made for
	// the semantic lookup. Zero when the lookup resolved in the exact tier
	// or the embedding service was unavailable.
	EmbeddingTokens int

	// Vector is the prompt's embedding, carried so a later Store after a
	// miss does not repeat the embedding call. Nil when unavailable.
	Vector []float64

	// Degraded reports that the semantic tier was skipped because the
	// embedding service was unavailable.
	Degraded bool
}

// Config configures the cache engine.
type Config struct {
	// SimilarityThreshold is the minimum cosine score for a semantic hit.
	// A candidate at exactly the threshold matches.
	// Default: 0.95
	SimilarityThreshold float64

	// IndexWindow is how many recent entries per model the semantic search
	// scans.
	// Default: 256
	IndexWindow int

	// ResponseTTL bounds how long cached responses are served.
	// Default: 1h
	ResponseTTL time.Duration

	// EmbeddingTTL bounds how long vectors stay in the semantic index.
	// Default: 24h
	EmbeddingTTL time.Duration

	// Region is the pricing region used when computing savings.
	// Default: us-east-1
	Region string

	// DisableSemantic turns off the embedding tier. Lookups stop at the
	// exact tier and stores skip indexing.
	DisableSemantic bool
}

func (c Config) withDefaults() Config {
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 0.95
	}
	if c.IndexWindow <= 0 {
		c.IndexWindow = DefaultIndexWindow
	}
	if c.ResponseTTL <= 0 {
		c.ResponseTTL = DefaultResponseTTL
	}
	if c.EmbeddingTTL <= 0 {
		c.EmbeddingTTL = DefaultEmbeddingTTL
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	return c
}

// EmbedObserver receives the outcome of every embedding call the engine
// makes. *metrics.Collector satisfies it.
type EmbedObserver interface {
	RecordEmbeddingRequest(ok bool)
}

// Engine is the two-tier cache: exact fingerprint matches first, then a
// bounded semantic search. All engine methods are safe for concurrent use.
type Engine struct {
	config   Config
	store    Store
	gateway  embedding.Gateway
	costs    *costs.Engine
	index    *index
	counters *counters
	observer EmbedObserver
	logger   *slog.Logger
}

// NewEngine creates a cache engine over the given store and embedding
// gateway.
func NewEngine(cfg Config, store Store, gateway embedding.Gateway, costEngine *costs.Engine) *Engine {
	cfg = cfg.withDefaults()
	logger := slog.Default().With("component", "cache")

	return &Engine{
		config:   cfg,
		store:    store,
		gateway:  gateway,
		costs:    costEngine,
		index:    newIndex(store, cfg.SimilarityThreshold, cfg.IndexWindow, logger),
		counters: &counters{},
		logger:   logger,
	}
}

// Lookup checks both tiers for a usable entry. Infrastructure failures never
// surface as errors: a store outage or an unavailable embedding service
// degrades the lookup to a miss.
func (e *Engine) Lookup(ctx context.Context, modelID, prompt string) Result {
	id := Fingerprint(modelID, prompt)

	// Exact tier.
	entry, err := e.getEntry(ctx, exactKey(id))
	if err == nil {
		savings := e.costs.CacheSavings(modelID, e.config.Region, entry.InputTokens, entry.OutputTokens, 0)
		e.counters.recordHit(OutcomeExact, savings)
		return Result{
			Outcome:    OutcomeExact,
			Entry:      entry,
			Similarity: 1.0,
			Savings:    savings,
		}
	}
	if !errors.Is(err, ErrNotFound) {
		e.logger.Warn("cache store unavailable, treating as miss", "error", err)
		e.counters.recordMiss()
		return Result{Outcome: OutcomeMiss, Degraded: true}
	}

	// Semantic tier.
	if e.config.DisableSemantic {
		e.counters.recordMiss()
		return Result{Outcome: OutcomeMiss}
	}
	vec, err := e.gateway.Embed(ctx, prompt)
	e.observeEmbed(err == nil)
	if err != nil {
		e.logger.Warn("embedding unavailable, exact-only lookup", "model", modelID, "error", err)
		e.counters.recordMiss()
		return Result{Outcome: OutcomeMiss, Degraded: true}
	}
	embTokens := costs.EstimateTokens(prompt)

	matchID, score, found, err := e.index.search(ctx, modelID, vec)
	if err != nil {
		e.logger.Warn("semantic search failed, treating as miss", "model", modelID, "error", err)
		e.counters.recordMiss()
		return Result{Outcome: OutcomeMiss, EmbeddingTokens: embTokens, Vector: vec, Degraded: true}
	}
	if !found {
		e.counters.recordMiss()
		return Result{Outcome: OutcomeMiss, EmbeddingTokens: embTokens, Vector: vec}
	}

	// The vector can outlive its response; a matched ID whose entry expired
	// is a miss, not an error.
	entry, err = e.getEntry(ctx, exactKey(matchID))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			e.logger.Warn("failed to load matched entry, treating as miss", "entry_id", matchID, "error", err)
		}
		e.counters.recordMiss()
		return Result{Outcome: OutcomeMiss, EmbeddingTokens: embTokens, Vector: vec}
	}

	savings := e.costs.CacheSavings(modelID, e.config.Region, entry.InputTokens, entry.OutputTokens, embTokens)
	e.counters.recordHit(OutcomeSemantic, savings)
	return Result{
		Outcome:         OutcomeSemantic,
		Entry:           entry,
		Similarity:      score,
		Savings:         savings,
		EmbeddingTokens: embTokens,
	}
}

// Store caches a response under the model/prompt fingerprint and, when a
// vector is available, indexes it for semantic matching. The write runs on a
// context detached from the request's cancellation so an impatient client
// does not leave the cache half-written.
//
// vec may come from a prior Lookup miss; pass nil to embed here, or skip
// the semantic tier entirely if embedding fails.
func (e *Engine) Store(ctx context.Context, modelID, prompt, response string, inputTokens, outputTokens int, vec []float64) error {
	ctx = context.WithoutCancel(ctx)

	id := Fingerprint(modelID, prompt)
	entry := Entry{
		ID:           id,
		Model:        modelID,
		Prompt:       prompt,
		Response:     response,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := e.store.Set(ctx, exactKey(id), data, e.config.ResponseTTL); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	e.counters.recordStore()

	if e.config.DisableSemantic {
		return nil
	}

	if vec == nil {
		vec, err = e.gateway.Embed(ctx, prompt)
		e.observeEmbed(err == nil)
		if err != nil {
			e.logger.Warn("embedding unavailable, entry stored exact-only", "model", modelID, "error", err)
			return nil
		}
	}

	if err := e.index.insert(ctx, modelID, id, vec, e.config.EmbeddingTTL); err != nil {
		e.logger.Warn("failed to index entry for semantic lookup", "entry_id", id, "error", err)
	}
	return nil
}

// Clear removes every cached entry and index. Lifetime counters survive a
// clear; only the stored data is dropped.
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	e.logger.Info("cache cleared")
	return nil
}

// Stats returns a point-in-time snapshot of hit counters and savings.
func (e *Engine) Stats(ctx context.Context) Stats {
	stats := e.counters.snapshot()

	n, err := e.store.Len(ctx, exactPrefix)
	if err != nil {
		e.logger.Warn("failed to count cache entries", "error", err)
	} else {
		stats.Entries = n
	}
	return stats
}

// SetEmbedObserver registers obs to be notified of embedding call outcomes.
// Call before the engine starts serving lookups.
func (e *Engine) SetEmbedObserver(obs EmbedObserver) {
	e.observer = obs
}

func (e *Engine) observeEmbed(ok bool) {
	if e.observer != nil {
		e.observer.RecordEmbeddingRequest(ok)
	}
}

// SemanticEnabled reports whether the embedding tier is active.
func (e *Engine) SemanticEnabled() bool {
	return !e.config.DisableSemantic
}

// SimilarityThreshold returns the configured semantic hit threshold.
func (e *Engine) SimilarityThreshold() float64 {
	return e.config.SimilarityThreshold
}

func (e *Engine) getEntry(ctx context.Context, key string) (*Entry, error) {
	data, err := e.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return &entry, nil
}
