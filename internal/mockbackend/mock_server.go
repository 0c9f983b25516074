// Package mockbackend provides an in-process fake of the inference and
// embedding services for integration tests.
package mockbackend

import (
	"encoding/json"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// Server is a fake backend speaking the gateway's completion and embedding
// wire formats. It answers /v1/complete, /embeddings, and /health.
type Server struct {
	server *httptest.Server

	mu          sync.Mutex
	completions map[string]string
	failStatus  int
	failCount   int
	delay       time.Duration
	invokeCount int
	embedCount  int
	dimension   int
}

// New starts a mock backend. dimension is the embedding vector length it
// reports; integration configs must match it.
func New(dimension int) *Server {
	s := &Server{
		completions: make(map[string]string),
		dimension:   dimension,
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handler))
	return s
}

// URL returns the backend's base URL.
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the backend down.
func (s *Server) Close() {
	s.server.Close()
}

// SetCompletion fixes the completion returned for a prompt. Prompts without
// a fixed completion echo themselves.
func (s *Server) SetCompletion(prompt, completion string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions[prompt] = completion
}

// FailNext makes the next n completion requests return the given status.
func (s *Server) FailNext(status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
	s.failCount = n
}

// SetDelay adds a fixed delay to every completion response.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// InvokeCount returns how many completion requests arrived.
func (s *Server) InvokeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invokeCount
}

// EmbedCount returns how many embedding requests arrived.
func (s *Server) EmbedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.embedCount
}

func (s *Server) handler(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/health":
		w.WriteHeader(http.StatusOK)

	case r.URL.Path == "/v1/complete" && r.Method == http.MethodPost:
		s.handleComplete(w, r)

	case strings.HasSuffix(r.URL.Path, "/embeddings") && r.Method == http.MethodPost:
		s.handleEmbed(w, r)

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.invokeCount++
	delay := s.delay
	failStatus := 0
	if s.failCount > 0 {
		s.failCount--
		failStatus = s.failStatus
	}
	completion, fixed := s.completions[req.Prompt]
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if failStatus != 0 {
		if failStatus == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "1")
		}
		http.Error(w, http.StatusText(failStatus), failStatus)
		return
	}
	if !fixed {
		completion = "echo: " + req.Prompt
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"model":      req.Model,
		"completion": completion,
		"usage": map[string]int{
			"input_tokens":  len(req.Prompt) / 4,
			"output_tokens": len(completion) / 4,
		},
	})
}

// handleEmbed returns a deterministic unit vector derived from the input
// text, so identical texts embed identically and distinct texts rarely
// clear a high similarity threshold.
func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.embedCount++
	dim := s.dimension
	s.mu.Unlock()

	vec := make([]float64, dim)
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.TrimSpace(req.Input)))
	vec[int(h.Sum32())%dim] = 1

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"embedding": vec})
}
