// Package server runs the gateway's HTTP server: route registration, the
// middleware chain, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"lumen-hq/vesta/pkg/config"
	"lumen-hq/vesta/pkg/gateway"
	"lumen-hq/vesta/pkg/telemetry/metrics"
)

// Server is the gateway HTTP server.
type Server struct {
	config     *config.Config
	handlers   *gateway.Handlers
	collector  *metrics.Collector
	httpServer *http.Server
	logger     *slog.Logger

	mu        sync.RWMutex
	isRunning bool
}

// New creates the server. collector may be nil when metrics are disabled.
func New(cfg *config.Config, handlers *gateway.Handlers, collector *metrics.Collector) *Server {
	return &Server{
		config:    cfg,
		handlers:  handlers,
		collector: collector,
		logger:    slog.Default().With("component", "server"),
	}
}

// Start begins serving and blocks until the listener fails or ctx is
// cancelled. Cancellation triggers a graceful shutdown bounded by the
// configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "address", s.config.Server.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown drains in-flight requests, bounded by the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// IsRunning reports whether the listener is active.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler builds the route table wrapped in the middleware chain:
// Recovery -> RequestID -> Logging -> Connections -> CORS -> Timeout.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/invoke", s.handlers.Invoke)
	mux.HandleFunc("GET /v1/cache/stats", s.handlers.CacheStats)
	mux.HandleFunc("DELETE /v1/cache", s.handlers.CacheClear)
	mux.HandleFunc("GET /v1/models", s.handlers.Models)
	mux.HandleFunc("GET /v1/models/health", s.handlers.ModelsHealth)
	mux.HandleFunc("GET /v1/usage/summary", s.handlers.UsageSummary)
	mux.HandleFunc("GET /health", s.handlers.Health)

	if s.collector != nil && s.config.MetricsEnabled() {
		mux.Handle("GET "+s.config.Telemetry.Metrics.Path, s.collector.Handler())
	}

	chain := []func(http.Handler) http.Handler{
		gateway.RecoveryMiddleware,
		gateway.RequestIDMiddleware,
		gateway.LoggingMiddleware,
		gateway.ConnectionsMiddleware(s.collector),
	}
	if s.config.CORSEnabled() {
		chain = append(chain, gateway.CORSMiddleware(gateway.CORSOptions{
			AllowedOrigins: s.config.Server.CORS.AllowedOrigins,
			AllowedMethods: s.config.Server.CORS.AllowedMethods,
			AllowedHeaders: s.config.Server.CORS.AllowedHeaders,
			MaxAge:         s.config.Server.CORS.MaxAge,
		}))
	}
	chain = append(chain, gateway.TimeoutMiddleware(s.config.Server.RequestTimeout))

	return gateway.Chain(mux, chain...)
}
