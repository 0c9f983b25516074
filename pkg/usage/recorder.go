package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RecorderConfig configures the async usage recorder.
type RecorderConfig struct {
	// Buffer is the size of the async write channel.
	// Default: 1000
	Buffer int

	// WriteTimeout bounds each storage write.
	// Default: 5s
	WriteTimeout time.Duration
}

func (c RecorderConfig) withDefaults() RecorderConfig {
	if c.Buffer <= 0 {
		c.Buffer = 1000
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	return c
}

// Recorder writes usage records asynchronously: Record enqueues and returns
// immediately, a background worker drains the queue into the store. When
// the queue is full the record is dropped with a log line rather than
// blocking the request path.
type Recorder struct {
	store   Store
	config  RecorderConfig
	records chan *Record
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewRecorder creates a recorder and starts its worker.
func NewRecorder(store Store, cfg RecorderConfig) *Recorder {
	cfg = cfg.withDefaults()

	r := &Recorder{
		store:   store,
		config:  cfg,
		records: make(chan *Record, cfg.Buffer),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "usage"),
	}

	r.wg.Add(1)
	go r.worker()
	return r
}

// Record assigns the record an ID and timestamp if unset and enqueues it.
// Never blocks.
func (r *Recorder) Record(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	select {
	case r.records <- rec:
	default:
		r.logger.Warn("usage queue full, dropping record",
			"request_id", rec.RequestID,
			"queue_capacity", r.config.Buffer,
		)
	}
}

// Close drains the queue and stops the worker.
func (r *Recorder) Close() error {
	close(r.done)
	r.wg.Wait()
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.records:
			r.write(rec)
		case <-r.done:
			for {
				select {
				case rec := <-r.records:
					r.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.store.Insert(ctx, rec); err != nil {
		r.logger.Error("failed to store usage record",
			"record_id", rec.ID,
			"request_id", rec.RequestID,
			"error", err,
		)
	}
}
