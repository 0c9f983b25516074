package providers

import (
	"context"
	"time"
)

// Checker periodically probes a provider's health endpoint so a backend
// that went down between requests is noticed before the next invocation.
// When the backend is unhealthy the probe interval backs off exponentially
// to avoid hammering a struggling upstream.
type Checker struct {
	provider Provider
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewChecker creates a health checker for provider. A non-positive interval
// defaults to 30s.
func NewChecker(provider Provider, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Checker{
		provider: provider,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the probe loop.
func (c *Checker) Start() {
	go c.run()
}

// Stop halts the probe loop and waits for it to exit.
func (c *Checker) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

func (c *Checker) run() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.probe()
			if c.provider.Healthy() {
				ticker.Reset(c.interval)
			} else {
				ticker.Reset(probeBackoff(c.provider.Health().ConsecutiveFailures, c.interval))
			}
		}
	}
}

func (c *Checker) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.provider.HealthCheck(ctx)
}

// probeBackoff scales the probe interval by 2^failures, capped at 10x the
// base and 5 minutes absolute.
func probeBackoff(consecutiveFailures int, base time.Duration) time.Duration {
	if consecutiveFailures <= 0 {
		return base
	}

	multiplier := 1 << uint(consecutiveFailures)
	if multiplier > 10 {
		multiplier = 10
	}

	backoff := base * time.Duration(multiplier)
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	return backoff
}
