package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/brokerit/storage"
	"github.com/robfig/cron/v3"
)

const (
	// DefaultStaleAfter is how long an entry may sit in processing before the
	// reconciler considers it abandoned.
	DefaultStaleAfter = 5 * time.Minute

	// DefaultReconcileSchedule runs the sweep once a minute.
	DefaultReconcileSchedule = "0 * * * * *"
)

// Reconciler periodically returns abandoned processing entries to pending.
// An entry is abandoned when its claimer crashed or was shut down before
// completing or failing it.
type Reconciler struct {
	queue      storage.QueueRepository
	cron       *cron.Cron
	schedule   string
	staleAfter time.Duration
	logger     *slog.Logger
	running    bool
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler) error

// WithStaleAfter sets how long an entry may stay in processing before it is
// swept back to pending.
func WithStaleAfter(staleAfter time.Duration) ReconcilerOption {
	return func(r *Reconciler) error {
		if staleAfter > 0 {
			r.staleAfter = staleAfter
		}
		return nil
	}
}

// WithSchedule sets the cron schedule (with seconds) for the sweep.
func WithSchedule(schedule string) ReconcilerOption {
	return func(r *Reconciler) error {
		if schedule != "" {
			r.schedule = schedule
		}
		return nil
	}
}

// WithReconcilerLogger sets a custom logger.
func WithReconcilerLogger(logger *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewReconciler creates a reconciler over the given queue repository.
func NewReconciler(queue storage.QueueRepository, opts ...ReconcilerOption) (*Reconciler, error) {
	if queue == nil {
		return nil, ErrQueueRepositoryRequired
	}

	r := &Reconciler{
		queue:      queue,
		cron:       cron.New(cron.WithSeconds()),
		schedule:   DefaultReconcileSchedule,
		staleAfter: DefaultStaleAfter,
		logger:     slog.Default().With("component", "queue-reconciler"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Start schedules the periodic sweep.
func (r *Reconciler) Start() error {
	if r.running {
		return ErrAlreadyRunning
	}

	if _, err := r.cron.AddFunc(r.schedule, r.Sweep); err != nil {
		return err
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("queue reconciler started", "schedule", r.schedule, "stale_after", r.staleAfter)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (r *Reconciler) Stop() {
	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
}

// Sweep runs one reconciliation pass immediately.
func (r *Reconciler) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deadline := time.Now().UTC().Add(-r.staleAfter)
	requeued, err := r.queue.RequeueStale(ctx, deadline)
	if err != nil {
		r.logger.Error("error requeueing stale entries", "err", err)
		return
	}
	if requeued > 0 {
		r.logger.Warn("requeued stale queue entries", "count", requeued)
	}
}
