package usage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig configures scheduled pruning of the usage log.
type RetentionConfig struct {
	// RetentionDays is how many days of records to keep.
	// Default: 30
	RetentionDays int

	// Schedule is a standard cron expression for prune runs
	// (e.g., "0 3 * * *" for daily at 03:00). Empty disables pruning.
	Schedule string
}

// RetentionScheduler prunes old usage records on a cron schedule.
type RetentionScheduler struct {
	store   Store
	config  RetentionConfig
	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	logger  *slog.Logger
}

// NewRetentionScheduler creates a scheduler. RetentionDays defaults to 30.
func NewRetentionScheduler(store Store, cfg RetentionConfig) *RetentionScheduler {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	return &RetentionScheduler{
		store:  store,
		config: cfg,
		cron:   cron.New(),
		logger: slog.Default().With("component", "usage.retention"),
	}
}

// Start begins scheduled pruning. A missing schedule is not an error; the
// scheduler simply stays idle.
func (s *RetentionScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Schedule == "" {
		s.logger.Info("usage retention schedule not configured, skipping")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.config.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.prune); err != nil {
		return fmt.Errorf("failed to schedule usage pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("usage retention scheduler started",
		"schedule", s.config.Schedule,
		"retention_days", s.config.RetentionDays,
	)
	return nil
}

// Stop halts the scheduler and waits for a running prune to finish.
func (s *RetentionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info("usage retention scheduler stopped")
}

// Prune deletes records older than the retention window. Exposed for
// on-demand runs; the scheduler calls it on the cron cadence.
func (s *RetentionScheduler) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	return s.store.DeleteBefore(ctx, cutoff)
}

func (s *RetentionScheduler) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	deleted, err := s.Prune(ctx)
	if err != nil {
		s.logger.Error("scheduled usage pruning failed", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("usage records pruned", "deleted", deleted)
	}
}
