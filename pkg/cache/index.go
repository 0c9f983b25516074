package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultIndexWindow is how many recent entries per model the semantic
// search scans. The scan is a linear pass, so the window is the knob that
// keeps lookup latency flat as traffic grows.
const DefaultIndexWindow = 256

// embeddingRecord is the stored form of an indexed vector.
type embeddingRecord struct {
	ID     string    `json:"id"`
	Vector []float64 `json:"vector"`
}

// index is the per-model semantic tier: an append-ordered list of entry IDs
// whose vectors are compared against the query by cosine similarity.
type index struct {
	store     Store
	threshold float64
	window    int
	logger    *slog.Logger
}

func newIndex(store Store, threshold float64, window int, logger *slog.Logger) *index {
	return &index{
		store:     store,
		threshold: threshold,
		window:    window,
		logger:    logger,
	}
}

// search scans the most recent window entries for modelID and returns the
// entry ID with the highest similarity at or above the threshold. Scanning
// runs oldest to newest with a >= comparison, so among equally similar
// entries the most recently stored one wins. Entries whose vector record is
// missing or unreadable are skipped.
func (ix *index) search(ctx context.Context, modelID string, query []float64) (string, float64, bool, error) {
	ids, err := ix.store.ListRange(ctx, indexKey(modelID), -ix.window, -1)
	if err != nil {
		return "", 0, false, fmt.Errorf("failed to read semantic index: %w", err)
	}

	bestID := ""
	bestScore := 0.0
	found := false

	for _, raw := range ids {
		id := string(raw)

		data, err := ix.store.Get(ctx, embeddingKey(id))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", 0, false, fmt.Errorf("failed to read embedding record: %w", err)
		}

		var rec embeddingRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			ix.logger.Warn("skipping corrupt embedding record", "entry_id", id, "error", err)
			continue
		}

		score := CosineSimilarity(query, rec.Vector)
		if score >= ix.threshold && score >= bestScore {
			bestID = id
			bestScore = score
			found = true
		}
	}

	return bestID, bestScore, found, nil
}

// insert records the entry's vector and appends its ID to the model's index,
// then trims the index to the scan window so stale IDs do not accumulate.
func (ix *index) insert(ctx context.Context, modelID, entryID string, vec []float64, ttl time.Duration) error {
	data, err := json.Marshal(embeddingRecord{ID: entryID, Vector: vec})
	if err != nil {
		return fmt.Errorf("failed to encode embedding record: %w", err)
	}

	if err := ix.store.Set(ctx, embeddingKey(entryID), data, ttl); err != nil {
		return err
	}

	key := indexKey(modelID)
	if err := ix.store.ListAppend(ctx, key, []byte(entryID)); err != nil {
		return err
	}
	return ix.store.ListTrim(ctx, key, -ix.window, -1)
}
