package cache

import "math"

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. Mismatched lengths, empty vectors, and zero-norm vectors all
// yield 0, so a zero embedding (produced for empty text) never matches
// anything.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
