package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the embedding service could not be reached or
// returned an unusable response. Callers treat this as a signal to skip
// semantic caching for the request, not as a request failure.
var ErrUnavailable = errors.New("embedding service unavailable")

// Gateway produces a fixed-length vector for a text. Implementations are
// expected to block on network I/O and must honor context cancellation.
type Gateway interface {
	// Embed returns the embedding vector for text. Empty or all-whitespace
	// text yields a zero vector without a remote call.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimension returns the length of vectors produced by this gateway.
	Dimension() int
}
