package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newEmbedServer(t *testing.T, dimension int, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		vec := make([]float64, dimension)
		for i := range vec {
			vec[i] = float64(len(req.Input))
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: vec})
	}))
}

func TestHTTPGateway_Embed(t *testing.T) {
	var calls atomic.Int64
	srv := newEmbedServer(t, 8, &calls)
	defer srv.Close()

	g := NewHTTPGateway(HTTPConfig{
		BaseURL:   srv.URL,
		Model:     "test-embed",
		Dimension: 8,
	})

	vec, err := g.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 8 {
		t.Errorf("vector length = %d, want 8", len(vec))
	}
	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1", calls.Load())
	}
}

func TestHTTPGateway_Embed_EmptyText(t *testing.T) {
	var calls atomic.Int64
	srv := newEmbedServer(t, 4, &calls)
	defer srv.Close()

	g := NewHTTPGateway(HTTPConfig{BaseURL: srv.URL, Dimension: 4})

	for _, text := range []string{"", "   ", "\n\t"} {
		vec, err := g.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("Embed(%q) failed: %v", text, err)
		}
		for i, v := range vec {
			if v != 0 {
				t.Errorf("Embed(%q)[%d] = %v, want 0", text, i, v)
			}
		}
	}

	// Zero vectors are produced locally.
	if calls.Load() != 0 {
		t.Errorf("upstream calls = %d, want 0", calls.Load())
	}
}

func TestHTTPGateway_Embed_DimensionMismatch(t *testing.T) {
	var calls atomic.Int64
	srv := newEmbedServer(t, 4, &calls)
	defer srv.Close()

	g := NewHTTPGateway(HTTPConfig{BaseURL: srv.URL, Dimension: 16, MaxRetries: 0})

	if _, err := g.Embed(context.Background(), "hello"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestHTTPGateway_Embed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewHTTPGateway(HTTPConfig{BaseURL: srv.URL, Dimension: 4, MaxRetries: 0})

	if _, err := g.Embed(context.Background(), "hello"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestHTTPGateway_Embed_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	g := NewHTTPGateway(HTTPConfig{BaseURL: srv.URL, Dimension: 4, MaxRetries: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := g.Embed(ctx, "hello"); err == nil {
		t.Error("expected error on cancelled context")
	}
}

func TestHTTPGateway_Embed_CancelledLeaderDoesNotFailWaiters(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release

		vec := make([]float64, 4)
		vec[0] = 1
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: vec})
	}))
	defer srv.Close()

	g := NewHTTPGateway(HTTPConfig{BaseURL: srv.URL, Dimension: 4, MaxRetries: 0})

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := g.Embed(leaderCtx, "shared text")
		leaderErr <- err
	}()
	<-started

	// Second caller joins the in-flight call with its own healthy context.
	waiterVec := make(chan []float64, 1)
	waiterErr := make(chan error, 1)
	go func() {
		v, err := g.Embed(context.Background(), "shared text")
		waiterVec <- v
		waiterErr <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	select {
	case err := <-leaderErr:
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("leader err = %v, want ErrUnavailable", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return promptly")
	}

	close(release)
	select {
	case err := <-waiterErr:
		if err != nil {
			t.Fatalf("waiter err = %v, want success despite leader cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never completed")
	}
	if v := <-waiterVec; len(v) != 4 || v[0] != 1 {
		t.Errorf("waiter vector = %v, want the upstream result", v)
	}
	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1 shared flight", calls.Load())
	}
}

func TestHTTPGateway_Dimension(t *testing.T) {
	g := NewHTTPGateway(HTTPConfig{Dimension: 256})
	if g.Dimension() != 256 {
		t.Errorf("Dimension() = %d, want 256", g.Dimension())
	}

	// Default applies when unset.
	g = NewHTTPGateway(HTTPConfig{})
	if g.Dimension() != 1024 {
		t.Errorf("default Dimension() = %d, want 1024", g.Dimension())
	}
}
