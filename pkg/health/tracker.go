package health

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultWindowSize is how many recent samples per model the tracker keeps.
const DefaultWindowSize = 100

// DefaultMaxAge is how long a sample stays visible to reads. Samples older
// than this age out continuously even when no new traffic arrives.
const DefaultMaxAge = 5 * time.Minute

// sample is one observed invocation.
type sample struct {
	latencyMs float64
	success   bool
	at        time.Time
}

// ModelHealth is a snapshot of one model's recent behavior.
type ModelHealth struct {
	// Model is the model identifier.
	Model string `json:"model"`

	// Samples is how many observations the snapshot covers.
	Samples int `json:"samples"`

	// Availability is the success fraction over the window, 1.0 with no
	// samples: a model nobody has called yet is presumed healthy.
	Availability float64 `json:"availability"`

	// P50LatencyMs and P95LatencyMs are latency percentiles over the
	// window. Zero when there are no samples.
	P50LatencyMs float64 `json:"p50_latency_ms"`
	P95LatencyMs float64 `json:"p95_latency_ms"`

	// LastSeen is the time of the newest sample; zero with no samples.
	LastSeen time.Time `json:"last_seen,omitempty"`
}

// Tracker keeps a bounded ring of samples per model. The count bound caps
// memory; reads additionally discard samples older than maxAge, so a burst
// of failures stops influencing routing once it falls out of the trailing
// time window. Safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	window  int
	maxAge  time.Duration
	samples map[string][]sample
	now     func() time.Time
}

// NewTracker creates a tracker keeping up to window samples per model, each
// visible for maxAge. Non-positive values use DefaultWindowSize and
// DefaultMaxAge.
func NewTracker(window int, maxAge time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindowSize
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Tracker{
		window:  window,
		maxAge:  maxAge,
		samples: make(map[string][]sample),
		now:     time.Now,
	}
}

// Record adds an observation for model. Samples beyond the count window or
// older than maxAge are discarded.
func (t *Tracker) Record(model string, latency time.Duration, success bool) {
	now := t.now()
	s := sample{
		latencyMs: float64(latency) / float64(time.Millisecond),
		success:   success,
		at:        now,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	list := recent(t.samples[model], now.Add(-t.maxAge))
	list = append(list, s)
	if len(list) > t.window {
		list = list[len(list)-t.window:]
	}
	t.samples[model] = list
}

// recent returns the suffix of list whose samples are newer than cutoff.
// Samples are appended in time order, so the suffix is a single scan.
func recent(list []sample, cutoff time.Time) []sample {
	for i, s := range list {
		if s.at.After(cutoff) {
			return list[i:]
		}
	}
	return nil
}

// PercentileLatency returns the p-th percentile latency in milliseconds for
// model over the trailing time window. The second return is false when there
// are no live samples, which is a distinct condition from a genuine zero
// latency.
func (t *Tracker) PercentileLatency(model string, p float64) (float64, bool) {
	cutoff := t.now().Add(-t.maxAge)

	t.mu.RLock()
	list := recent(t.samples[model], cutoff)
	latencies := make([]float64, len(list))
	for i, s := range list {
		latencies[i] = s.latencyMs
	}
	t.mu.RUnlock()

	if len(latencies) == 0 {
		return 0, false
	}
	return percentile(latencies, p), true
}

// Availability returns the success fraction over the trailing time window.
// With no live samples it returns 1.0: failures age out the same way a model
// nobody has called yet is presumed healthy.
func (t *Tracker) Availability(model string) float64 {
	cutoff := t.now().Add(-t.maxAge)

	t.mu.RLock()
	defer t.mu.RUnlock()

	list := recent(t.samples[model], cutoff)
	if len(list) == 0 {
		return 1.0
	}

	ok := 0
	for _, s := range list {
		if s.success {
			ok++
		}
	}
	return float64(ok) / float64(len(list))
}

// Snapshot returns the health of one model.
func (t *Tracker) Snapshot(model string) ModelHealth {
	cutoff := t.now().Add(-t.maxAge)

	t.mu.RLock()
	list := append([]sample(nil), recent(t.samples[model], cutoff)...)
	t.mu.RUnlock()

	return buildSnapshot(model, list)
}

// SnapshotAll returns the health of every model seen so far, sorted by
// model ID.
func (t *Tracker) SnapshotAll() []ModelHealth {
	cutoff := t.now().Add(-t.maxAge)

	t.mu.RLock()
	models := make([]string, 0, len(t.samples))
	for m := range t.samples {
		models = append(models, m)
	}
	copies := make(map[string][]sample, len(models))
	for _, m := range models {
		copies[m] = append([]sample(nil), recent(t.samples[m], cutoff)...)
	}
	t.mu.RUnlock()

	sort.Strings(models)
	out := make([]ModelHealth, 0, len(models))
	for _, m := range models {
		out = append(out, buildSnapshot(m, copies[m]))
	}
	return out
}

func buildSnapshot(model string, list []sample) ModelHealth {
	h := ModelHealth{Model: model, Samples: len(list), Availability: 1.0}
	if len(list) == 0 {
		return h
	}

	ok := 0
	latencies := make([]float64, len(list))
	for i, s := range list {
		latencies[i] = s.latencyMs
		if s.success {
			ok++
		}
	}

	h.Availability = float64(ok) / float64(len(list))
	h.P50LatencyMs = percentile(latencies, 50)
	h.P95LatencyMs = percentile(latencies, 95)
	h.LastSeen = list[len(list)-1].at
	return h
}

// percentile computes the p-th percentile by nearest-rank on a sorted copy.
// Callers guarantee a non-empty slice.
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
