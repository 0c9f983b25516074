package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// HTTPConfig configures the HTTP embedding gateway.
type HTTPConfig struct {
	// BaseURL is the embedding service endpoint (e.g., "https://embed.internal/v1").
	BaseURL string

	// APIKey is the bearer token for the embedding service.
	APIKey string

	// Model is the embedding model identifier sent with each request.
	Model string

	// Dimension is the expected vector length. Responses with a different
	// length are rejected.
	// Default: 1024
	Dimension int

	// Timeout is the per-request timeout.
	// Default: 10s
	Timeout time.Duration

	// MaxRetries is the number of retries on transient failures.
	// Default: 2
	MaxRetries int

	// MaxIdleConns controls connection pooling.
	// Default: 10
	MaxIdleConns int
}

// HTTPGateway is the production Gateway implementation backed by a remote
// embedding service. Concurrent Embed calls for identical text are
// deduplicated with singleflight so a burst of similar requests pays for a
// single upstream call.
type HTTPGateway struct {
	config HTTPConfig
	client *http.Client
	group  singleflight.Group
	logger *slog.Logger
}

// embedRequest is the wire format of an embedding request.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse is the wire format of an embedding response.
type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewHTTPGateway creates an HTTP embedding gateway.
func NewHTTPGateway(cfg HTTPConfig) *HTTPGateway {
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 10
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPGateway{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: slog.Default().With("component", "embedding"),
	}
}

// Dimension returns the configured vector length.
func (g *HTTPGateway) Dimension() int {
	return g.config.Dimension
}

// Embed returns the embedding vector for text. Empty or all-whitespace text
// yields a zero vector without contacting the service.
func (g *HTTPGateway) Embed(ctx context.Context, text string) ([]float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float64, g.config.Dimension), nil
	}

	// Identical texts share one in-flight upstream call. The shared call
	// runs detached from the leader's context: a caller that gives up must
	// not fail the waiters piggybacking on its flight. Each caller still
	// honors its own cancellation while waiting.
	ch := g.group.DoChan(trimmed, func() (interface{}, error) {
		return g.embed(context.WithoutCancel(ctx), trimmed)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]float64), nil
	}
}

// embed performs the upstream call with retries on transient failures.
func (g *HTTPGateway) embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{
		Model: g.config.Model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	url := strings.TrimSuffix(g.config.BaseURL, "/") + "/embeddings"

	var lastErr error
	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
		}

		vec, retryable, err := g.doRequest(ctx, url, body)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		if !retryable {
			break
		}

		g.logger.Warn("embedding request failed, will retry",
			"attempt", attempt+1,
			"max_retries", g.config.MaxRetries,
			"error", err,
		)
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// doRequest performs a single upstream call. The second return reports
// whether the failure is worth retrying.
func (g *HTTPGateway) doRequest(ctx context.Context, url string, body []byte) ([]float64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("embedding service returned status %d: %s", resp.StatusCode, respBody)
		return nil, resp.StatusCode >= 500, err
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, false, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	if len(parsed.Embedding) != g.config.Dimension {
		return nil, false, fmt.Errorf("embedding dimension mismatch: got %d, want %d",
			len(parsed.Embedding), g.config.Dimension)
	}

	return parsed.Embedding, false, nil
}
