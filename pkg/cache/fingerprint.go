package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key prefixes shared by both store implementations. Keeping them distinct
// lets Len count one tier without scanning the other.
const (
	exactPrefix     = "cache:exact:"
	embeddingPrefix = "cache:emb:"
	indexPrefix     = "cache:index:"
)

// Fingerprint derives the exact-tier identifier for a model/prompt pair:
// sha256 of "model:prompt" with the prompt whitespace-trimmed, truncated to
// 16 hex characters. Two requests collide only when model and trimmed prompt
// are byte-identical.
func Fingerprint(modelID, prompt string) string {
	sum := sha256.Sum256([]byte(modelID + ":" + strings.TrimSpace(prompt)))
	return hex.EncodeToString(sum[:])[:16]
}

func exactKey(id string) string { return exactPrefix + id }

func embeddingKey(id string) string { return embeddingPrefix + id }

func indexKey(modelID string) string { return indexPrefix + modelID }
