package providers

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
	"sync"
	"time"
)

// unhealthyThreshold is how many consecutive failures flip a backend to
// unhealthy. The next success flips it back.
const unhealthyThreshold = 3

// HTTPProvider is the standard Provider implementation: a JSON completion
// API reached over HTTP with connection pooling, retry logic, and passive
// health tracking.
type HTTPProvider struct {
	config BackendConfig
	client *http.Client
	logger *slog.Logger

	healthMu sync.RWMutex
	health   BackendHealth
}

// completionRequest is the wire format sent to the backend.
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// completionResponse is the wire format returned by the backend. Usage is
// optional; token counts are estimated when absent.
type completionResponse struct {
	Model      string `json:"model"`
	Completion string `json:"completion"`
	Usage      *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

// NewHTTPProvider creates an HTTP backend provider.
func NewHTTPProvider(cfg BackendConfig) *HTTPProvider {
	cfg = cfg.withDefaults()

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: slog.Default().With("component", "provider", "backend", cfg.Name),
		health: BackendHealth{
			// Start optimistic.
			Healthy:     true,
			LastCheck:   time.Now(),
			LastSuccess: time.Now(),
		},
	}
}

// Name returns the backend's configured name.
func (p *HTTPProvider) Name() string {
	return p.config.Name
}

// Healthy reports whether the backend is currently considered usable.
func (p *HTTPProvider) Healthy() bool {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health.Healthy
}

// Health returns the detailed health view.
func (p *HTTPProvider) Health() BackendHealth {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health
}

// Invoke sends an inference request, retrying transient failures with
// exponential backoff.
func (p *HTTPProvider) Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error) {
	body, err := json.Marshal(completionRequest{
		Model:       req.Model,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoke request: %w", err)
	}

	url := strings.TrimSuffix(p.config.BaseURL, "/") + "/v1/complete"
	start := time.Now()

	respBytes, err := p.doRequest(ctx, url, body, req.RequestID)
	if err != nil {
		return nil, err
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		p.updateHealth(false, err)
		return nil, &ParseError{
			Backend:     p.config.Name,
			RawResponse: string(respBytes),
			Cause:       err,
		}
	}

	out := &InvokeResponse{
		Model:      parsed.Model,
		Completion: parsed.Completion,
		Latency:    time.Since(start),
	}
	if out.Model == "" {
		out.Model = req.Model
	}
	if parsed.Usage != nil {
		out.InputTokens = parsed.Usage.InputTokens
		out.OutputTokens = parsed.Usage.OutputTokens
	}
	return out, nil
}

// doRequest performs the HTTP exchange with retries. 5xx and network errors
// are retried; auth, rate limit, and other 4xx failures are returned
// immediately.
func (p *HTTPProvider) doRequest(ctx context.Context, url string, body []byte, requestID string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			p.logger.Debug("retrying backend request",
				"attempt", attempt,
				"max_retries", p.config.MaxRetries,
				"backoff", backoff,
				"request_id", requestID,
			)
			select {
			case <-ctx.Done():
				return nil, &TimeoutError{Backend: p.config.Name, Timeout: p.config.Timeout}
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create backend request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
		}
		if requestID != "" {
			req.Header.Set("X-Request-ID", requestID)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			p.recordRequest(false)
			if ctx.Err() != nil {
				return nil, &TimeoutError{Backend: p.config.Name, Timeout: p.config.Timeout}
			}
			lastErr = err
			p.logger.Warn("backend request failed, will retry",
				"attempt", attempt+1,
				"error", err,
				"request_id", requestID,
			)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				p.recordRequest(false)
				p.updateHealth(false, readErr)
				return nil, &ParseError{
					Backend: p.config.Name,
					Cause:   fmt.Errorf("failed to read response: %w", readErr),
				}
			}
			p.recordRequest(true)
			p.updateHealth(true, nil)
			return respBody, nil
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			p.recordRequest(false)
			p.updateHealth(false, fmt.Errorf("authentication failed"))
			return nil, &AuthError{Backend: p.config.Name, Message: string(respBody)}

		case http.StatusTooManyRequests:
			p.recordRequest(false)
			return nil, &RateLimitError{
				Backend:    p.config.Name,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Message:    string(respBody),
			}

		default:
			if resp.StatusCode < 500 {
				p.recordRequest(false)
				return nil, &BackendError{
					Backend:    p.config.Name,
					StatusCode: resp.StatusCode,
					Message:    string(respBody),
				}
			}
			lastErr = &BackendError{
				Backend:    p.config.Name,
				StatusCode: resp.StatusCode,
				Message:    string(respBody),
			}
			p.recordRequest(false)
			p.logger.Warn("backend returned error status, will retry",
				"status", resp.StatusCode,
				"attempt", attempt+1,
				"request_id", requestID,
			)
		}
	}

	p.updateHealth(false, lastErr)
	if lastErr == nil {
		lastErr = &BackendError{Backend: p.config.Name, Message: "request failed"}
	}
	if _, ok := lastErr.(*BackendError); !ok {
		lastErr = &BackendError{Backend: p.config.Name, Message: lastErr.Error(), Cause: lastErr}
	}
	return nil, lastErr
}

// HealthCheck probes the backend's health endpoint.
func (p *HTTPProvider) HealthCheck(ctx context.Context) error {
	url := strings.TrimSuffix(p.config.BaseURL, "/") + p.config.HealthPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.updateHealth(false, err)
		return &BackendError{Backend: p.config.Name, Message: "health check failed", Cause: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.updateHealth(true, nil)
		return nil
	}

	err = &BackendError{
		Backend:    p.config.Name,
		StatusCode: resp.StatusCode,
		Message:    "health check returned error status",
	}
	p.updateHealth(false, err)
	return err
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	p.logger.Info("backend provider closed")
	return nil
}

func (p *HTTPProvider) updateHealth(success bool, err error) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.LastCheck = time.Now()

	if success {
		p.health.Healthy = true
		p.health.ConsecutiveFailures = 0
		p.health.LastError = ""
		p.health.LastSuccess = time.Now()
		return
	}

	p.health.ConsecutiveFailures++
	if err != nil {
		p.health.LastError = err.Error()
	}
	if p.health.ConsecutiveFailures >= unhealthyThreshold && p.health.Healthy {
		p.health.Healthy = false
		p.logger.Warn("backend marked unhealthy",
			"consecutive_failures", p.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

func (p *HTTPProvider) recordRequest(success bool) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.TotalRequests++
	if !success {
		p.health.FailedRequests++
	}
}

// parseRetryAfter parses a Retry-After header in either delay-seconds or
// HTTP-date form.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}
