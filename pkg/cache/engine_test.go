package cache

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"lumen-hq/vesta/pkg/catalog"
	"lumen-hq/vesta/pkg/costs"
	"lumen-hq/vesta/pkg/embedding"
)

const testModel = "anthropic.claude-3-5-haiku-20241022-v1:0"

// fakeGateway returns canned vectors per trimmed text. Unknown texts get a
// distinct basis-aligned vector so they never match anything by accident.
type fakeGateway struct {
	vectors map[string][]float64
	dim     int
	fail    bool
	calls   int
}

func (g *fakeGateway) Embed(_ context.Context, text string) ([]float64, error) {
	g.calls++
	if g.fail {
		return nil, fmt.Errorf("%w: connection refused", embedding.ErrUnavailable)
	}
	if v, ok := g.vectors[strings.TrimSpace(text)]; ok {
		return v, nil
	}
	v := make([]float64, g.dim)
	v[len(strings.TrimSpace(text))%g.dim] = 1
	return v, nil
}

func (g *fakeGateway) Dimension() int { return g.dim }

// failingStore simulates a backend outage.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("store down")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return fmt.Errorf("store down")
}
func (failingStore) ListAppend(context.Context, string, []byte) error {
	return fmt.Errorf("store down")
}
func (failingStore) ListRange(context.Context, string, int, int) ([][]byte, error) {
	return nil, fmt.Errorf("store down")
}
func (failingStore) ListTrim(context.Context, string, int, int) error {
	return fmt.Errorf("store down")
}
func (failingStore) Len(context.Context, string) (int, error) { return 0, fmt.Errorf("store down") }
func (failingStore) Clear(context.Context) error              { return fmt.Errorf("store down") }
func (failingStore) Close() error                             { return nil }

func newTestEngine(t *testing.T, cfg Config, gw embedding.Gateway) (*Engine, Store) {
	t.Helper()
	store := NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	return NewEngine(cfg, store, gw, costs.NewEngine(catalog.New())), store
}

func TestEngine_ExactHit(t *testing.T) {
	gw := &fakeGateway{dim: 4}
	e, _ := newTestEngine(t, Config{}, gw)
	ctx := context.Background()

	if err := e.Store(ctx, testModel, "what is 2+2?", "4", 10, 5, []float64{1, 0, 0, 0}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	res := e.Lookup(ctx, testModel, "what is 2+2?")
	if res.Outcome != OutcomeExact {
		t.Fatalf("outcome = %v, want exact", res.Outcome)
	}
	if res.Entry == nil || res.Entry.Response != "4" {
		t.Errorf("unexpected entry: %+v", res.Entry)
	}
	if res.Similarity != 1.0 {
		t.Errorf("similarity = %v, want 1.0", res.Similarity)
	}
	// Exact hits never pay for an embedding.
	if res.EmbeddingTokens != 0 || res.Savings.EmbeddingCost != 0 {
		t.Errorf("exact hit charged embedding: tokens=%d cost=%v",
			res.EmbeddingTokens, res.Savings.EmbeddingCost)
	}
	if res.Savings.GrossSavings <= 0 {
		t.Errorf("gross savings = %v, want > 0", res.Savings.GrossSavings)
	}
}

func TestEngine_ExactHit_WhitespaceInsensitive(t *testing.T) {
	gw := &fakeGateway{dim: 4}
	e, _ := newTestEngine(t, Config{}, gw)
	ctx := context.Background()

	_ = e.Store(ctx, testModel, "hello", "hi", 5, 2, []float64{1, 0, 0, 0})

	res := e.Lookup(ctx, testModel, "  hello \n")
	if res.Outcome != OutcomeExact {
		t.Errorf("outcome = %v, want exact", res.Outcome)
	}
}

func TestEngine_SemanticHit(t *testing.T) {
	gw := &fakeGateway{
		dim: 2,
		vectors: map[string][]float64{
			"capital of France?":        {1, 0},
			"what's the French capital": {3, 1}, // cos = 0.9487
		},
	}
	e, _ := newTestEngine(t, Config{SimilarityThreshold: 0.9}, gw)
	ctx := context.Background()

	_ = e.Store(ctx, testModel, "capital of France?", "Paris", 10, 3, []float64{1, 0})

	res := e.Lookup(ctx, testModel, "what's the French capital")
	if res.Outcome != OutcomeSemantic {
		t.Fatalf("outcome = %v, want semantic", res.Outcome)
	}
	if res.Entry.Response != "Paris" {
		t.Errorf("response = %q, want Paris", res.Entry.Response)
	}
	if res.Similarity < 0.9 || res.Similarity >= 1.0 {
		t.Errorf("similarity = %v, want in [0.9, 1.0)", res.Similarity)
	}
	// Semantic hits pay for the embedding call that found them.
	if res.EmbeddingTokens == 0 {
		t.Error("semantic hit has zero embedding tokens")
	}
	if res.Savings.NetSavings > res.Savings.GrossSavings {
		t.Errorf("net %v exceeds gross %v", res.Savings.NetSavings, res.Savings.GrossSavings)
	}
}

func TestEngine_SemanticBelowThresholdMisses(t *testing.T) {
	gw := &fakeGateway{
		dim: 2,
		vectors: map[string][]float64{
			"stored": {1, 0},
			"query":  {1, 1}, // cos = 0.7071
		},
	}
	e, _ := newTestEngine(t, Config{SimilarityThreshold: 0.9}, gw)
	ctx := context.Background()

	_ = e.Store(ctx, testModel, "stored", "resp", 5, 5, []float64{1, 0})

	res := e.Lookup(ctx, testModel, "query")
	if res.Outcome != OutcomeMiss {
		t.Errorf("outcome = %v, want miss", res.Outcome)
	}
	if res.Vector == nil {
		t.Error("miss should carry the query vector for reuse")
	}
}

func TestEngine_ThresholdIsInclusive(t *testing.T) {
	// Identical basis vectors compare at exactly 1.0; with the threshold
	// also at 1.0 the candidate must still match.
	gw := &fakeGateway{
		dim: 2,
		vectors: map[string][]float64{
			"stored": {0, 1},
			"query":  {0, 1},
		},
	}
	e, _ := newTestEngine(t, Config{SimilarityThreshold: 1.0}, gw)
	ctx := context.Background()

	_ = e.Store(ctx, testModel, "stored", "resp", 5, 5, []float64{0, 1})

	res := e.Lookup(ctx, testModel, "query")
	if res.Outcome != OutcomeSemantic {
		t.Errorf("outcome = %v, want semantic at exact threshold", res.Outcome)
	}
}

func TestEngine_JustBelowThresholdMisses(t *testing.T) {
	// A score one representable float below the threshold must miss. The
	// boundary is inclusive on one side only.
	query := []float64{3, 1}
	stored := []float64{1, 0}
	score := CosineSimilarity(query, stored)

	gw := &fakeGateway{
		dim: 2,
		vectors: map[string][]float64{
			"stored": stored,
			"query":  query,
		},
	}
	e, _ := newTestEngine(t, Config{SimilarityThreshold: math.Nextafter(score, 1)}, gw)
	ctx := context.Background()

	_ = e.Store(ctx, testModel, "stored", "resp", 5, 5, stored)

	res := e.Lookup(ctx, testModel, "query")
	if res.Outcome != OutcomeMiss {
		t.Errorf("outcome = %v, want miss just below the threshold", res.Outcome)
	}
}

func TestEngine_SemanticPicksHighestScore(t *testing.T) {
	// Candidates in insertion order score 0.71, 0.95, 1.0, 0.89 against the
	// query. The winner must be the maximum, not the first above threshold.
	gw := &fakeGateway{
		dim: 2,
		vectors: map[string][]float64{
			"query": {1, 0},
		},
	}
	e, _ := newTestEngine(t, Config{SimilarityThreshold: 0.7}, gw)
	ctx := context.Background()

	stored := []struct {
		prompt string
		vec    []float64
	}{
		{"p1", []float64{1, 1}},  // 0.7071
		{"p2", []float64{3, 1}},  // 0.9487
		{"p3", []float64{1, 0}},  // 1.0
		{"p4", []float64{2, 1}},  // 0.8944
	}
	for _, s := range stored {
		_ = e.Store(ctx, testModel, s.prompt, "resp:"+s.prompt, 5, 5, s.vec)
	}

	res := e.Lookup(ctx, testModel, "query")
	if res.Outcome != OutcomeSemantic {
		t.Fatalf("outcome = %v, want semantic", res.Outcome)
	}
	if res.Entry.Prompt != "p3" {
		t.Errorf("matched %q, want p3 (highest score)", res.Entry.Prompt)
	}
}

func TestEngine_SemanticTieGoesToNewest(t *testing.T) {
	gw := &fakeGateway{
		dim: 2,
		vectors: map[string][]float64{
			"query": {1, 0},
		},
	}
	e, _ := newTestEngine(t, Config{SimilarityThreshold: 0.9}, gw)
	ctx := context.Background()

	_ = e.Store(ctx, testModel, "older", "old response", 5, 5, []float64{1, 0})
	_ = e.Store(ctx, testModel, "newer", "new response", 5, 5, []float64{1, 0})

	res := e.Lookup(ctx, testModel, "query")
	if res.Outcome != OutcomeSemantic {
		t.Fatalf("outcome = %v, want semantic", res.Outcome)
	}
	if res.Entry.Prompt != "newer" {
		t.Errorf("tie matched %q, want the most recently stored entry", res.Entry.Prompt)
	}
}

func TestEngine_SemanticIsolatedPerModel(t *testing.T) {
	gw := &fakeGateway{
		dim: 2,
		vectors: map[string][]float64{
			"query": {1, 0},
		},
	}
	e, _ := newTestEngine(t, Config{SimilarityThreshold: 0.9}, gw)
	ctx := context.Background()

	_ = e.Store(ctx, "meta.llama3-8b-instruct-v1:0", "query", "resp", 5, 5, []float64{1, 0})

	// Same vector, different model: the index is per-model.
	res := e.Lookup(ctx, testModel, "other phrasing of query")
	if res.Outcome != OutcomeMiss {
		t.Errorf("outcome = %v, want miss across models", res.Outcome)
	}
}

func TestEngine_EmbeddingDownDegradesToExactOnly(t *testing.T) {
	gw := &fakeGateway{dim: 2}
	e, _ := newTestEngine(t, Config{}, gw)
	ctx := context.Background()

	_ = e.Store(ctx, testModel, "known prompt", "resp", 5, 5, []float64{1, 0})

	gw.fail = true

	// Exact tier still works.
	res := e.Lookup(ctx, testModel, "known prompt")
	if res.Outcome != OutcomeExact {
		t.Errorf("exact outcome = %v, want exact with embedding down", res.Outcome)
	}

	// Semantic tier degrades to a miss, not an error.
	res = e.Lookup(ctx, testModel, "unseen prompt")
	if res.Outcome != OutcomeMiss {
		t.Errorf("outcome = %v, want miss", res.Outcome)
	}
	if !res.Degraded {
		t.Error("expected degraded miss when embedding is unavailable")
	}
}

func TestEngine_StoreWithEmbeddingDownKeepsExactTier(t *testing.T) {
	gw := &fakeGateway{dim: 2, fail: true}
	e, _ := newTestEngine(t, Config{}, gw)
	ctx := context.Background()

	if err := e.Store(ctx, testModel, "prompt", "resp", 5, 5, nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	gw.fail = false
	res := e.Lookup(ctx, testModel, "prompt")
	if res.Outcome != OutcomeExact {
		t.Errorf("outcome = %v, want exact", res.Outcome)
	}
}

func TestEngine_ExpiredEntryWithLiveVectorMisses(t *testing.T) {
	gw := &fakeGateway{
		dim: 2,
		vectors: map[string][]float64{
			"query": {1, 0},
		},
	}
	e, _ := newTestEngine(t, Config{
		SimilarityThreshold: 0.9,
		ResponseTTL:         20 * time.Millisecond,
		EmbeddingTTL:        1 * time.Hour,
	}, gw)
	ctx := context.Background()

	_ = e.Store(ctx, testModel, "stored", "resp", 5, 5, []float64{1, 0})
	time.Sleep(50 * time.Millisecond)

	res := e.Lookup(ctx, testModel, "query")
	if res.Outcome != OutcomeMiss {
		t.Errorf("outcome = %v, want miss when the matched response expired", res.Outcome)
	}
}

func TestEngine_StoreDownIsAlwaysMiss(t *testing.T) {
	gw := &fakeGateway{dim: 2}
	e := NewEngine(Config{}, failingStore{}, gw, costs.NewEngine(catalog.New()))

	res := e.Lookup(context.Background(), testModel, "anything")
	if res.Outcome != OutcomeMiss {
		t.Errorf("outcome = %v, want miss with store down", res.Outcome)
	}
	if !res.Degraded {
		t.Error("expected degraded miss with store down")
	}
}

// recordingObserver counts embedding call outcomes.
type recordingObserver struct {
	ok     int
	failed int
}

func (o *recordingObserver) RecordEmbeddingRequest(ok bool) {
	if ok {
		o.ok++
	} else {
		o.failed++
	}
}

func TestEngine_ObserverSeesEmbeddingOutcomes(t *testing.T) {
	gw := &fakeGateway{dim: 2}
	e, _ := newTestEngine(t, Config{}, gw)
	obs := &recordingObserver{}
	e.SetEmbedObserver(obs)
	ctx := context.Background()

	// A miss embeds once in the lookup; storing with a nil vector embeds
	// again.
	res := e.Lookup(ctx, testModel, "unseen prompt")
	if res.Outcome != OutcomeMiss {
		t.Fatalf("outcome = %v, want miss", res.Outcome)
	}
	_ = e.Store(ctx, testModel, "another prompt", "resp", 5, 5, nil)

	if obs.ok != 2 {
		t.Errorf("ok outcomes = %d, want 2", obs.ok)
	}
	if obs.failed != 0 {
		t.Errorf("failed outcomes = %d, want 0", obs.failed)
	}

	gw.fail = true
	e.Lookup(ctx, testModel, "another unseen prompt")
	if obs.failed != 1 {
		t.Errorf("failed outcomes = %d, want 1", obs.failed)
	}
}

func TestEngine_NoObserverIsFine(t *testing.T) {
	gw := &fakeGateway{dim: 2}
	e, _ := newTestEngine(t, Config{}, gw)

	res := e.Lookup(context.Background(), testModel, "unseen prompt")
	if res.Outcome != OutcomeMiss {
		t.Errorf("outcome = %v, want miss", res.Outcome)
	}
}

func TestEngine_Clear(t *testing.T) {
	gw := &fakeGateway{dim: 2}
	e, _ := newTestEngine(t, Config{}, gw)
	ctx := context.Background()

	_ = e.Store(ctx, testModel, "prompt", "resp", 5, 5, []float64{1, 0})
	if err := e.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	res := e.Lookup(ctx, testModel, "prompt")
	if res.Outcome != OutcomeMiss {
		t.Errorf("outcome = %v, want miss after clear", res.Outcome)
	}
}

func TestEngine_Stats(t *testing.T) {
	gw := &fakeGateway{dim: 2}
	e, _ := newTestEngine(t, Config{}, gw)
	ctx := context.Background()

	_ = e.Store(ctx, testModel, "prompt", "resp", 100, 100, []float64{1, 0})

	e.Lookup(ctx, testModel, "prompt")          // exact hit
	e.Lookup(ctx, testModel, "something else")  // miss
	e.Lookup(ctx, testModel, "another unknown") // miss

	stats := e.Stats(ctx)
	if stats.ExactHits != 1 {
		t.Errorf("exact hits = %d, want 1", stats.ExactHits)
	}
	if stats.Misses != 2 {
		t.Errorf("misses = %d, want 2", stats.Misses)
	}
	if got, want := stats.HitRate, 1.0/3.0; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("hit rate = %v, want %v", got, want)
	}
	if stats.Entries != 1 {
		t.Errorf("entries = %d, want 1", stats.Entries)
	}
	if stats.TotalNetSavings <= 0 {
		t.Errorf("total net savings = %v, want > 0", stats.TotalNetSavings)
	}
}

func TestEngine_IndexWindowBounds(t *testing.T) {
	gw := &fakeGateway{
		dim: 2,
		vectors: map[string][]float64{
			"query": {1, 0},
		},
	}
	e, _ := newTestEngine(t, Config{SimilarityThreshold: 0.9, IndexWindow: 3}, gw)
	ctx := context.Background()

	// The matching entry is pushed out of the window by later stores.
	_ = e.Store(ctx, testModel, "match", "wanted", 5, 5, []float64{1, 0})
	for i := 0; i < 3; i++ {
		_ = e.Store(ctx, testModel, fmt.Sprintf("filler %d", i), "noise", 5, 5, []float64{0, 1})
	}

	res := e.Lookup(ctx, testModel, "query")
	if res.Outcome != OutcomeMiss {
		t.Errorf("outcome = %v, want miss once the entry left the scan window", res.Outcome)
	}
}
