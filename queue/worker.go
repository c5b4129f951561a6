// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queue

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/brokerit/agent"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
)

const (
	// DefaultPollInterval is how long the worker sleeps when the queue is
	// empty before checking again.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultMaxRetries is the number of attempts an entry gets before it
	// stays failed.
	DefaultMaxRetries = 3
)

// Processor handles a single claimed queue entry. The response pipeline
// orchestrator satisfies this.
type Processor interface {
	ProcessMessage(ctx context.Context, messageID core.ID) error
}

// Worker claims pending queue entries and processes them concurrently.
type Worker struct {
	queue        storage.QueueRepository
	processor    Processor
	pool         *ants.Pool
	pollInterval time.Duration
	maxRetries   int
	logger       *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// Option configures a Worker.
type Option func(*Worker) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(w *Worker) error {
		if size < 1 {
			size = 1
		}
		if w.pool != nil {
			w.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		w.pool = pool
		return nil
	}
}

// WithPollInterval sets how often the worker checks an empty queue.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) error {
		if interval > 0 {
			w.pollInterval = interval
		}
		return nil
	}
}

// WithMaxRetries sets how many attempts an entry gets before it stays
// failed.
func WithMaxRetries(maxRetries int) Option {
	return func(w *Worker) error {
		if maxRetries > 0 {
			w.maxRetries = maxRetries
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWorker creates a queue worker over the given repository and processor.
func NewWorker(queue storage.QueueRepository, processor Processor, opts ...Option) (*Worker, error) {
	if queue == nil {
		return nil, ErrQueueRepositoryRequired
	}
	if processor == nil {
		return nil, ErrProcessorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		queue:        queue,
		processor:    processor,
		pool:         pool,
		pollInterval: DefaultPollInterval,
		maxRetries:   DefaultMaxRetries,
		logger:       slog.Default().With("component", "queue-worker"),
	}

	for _, opt := range opts {
		if optErr := opt(w); optErr != nil {
			w.pool.Release()
			return nil, optErr
		}
	}
	return w, nil
}

// Start begins draining the queue in the background. It returns immediately;
// processing stops when Stop is called or the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.run(runCtx)
	return nil
}

// Stop halts the poll loop and waits for in-flight entries to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done
	w.pool.Release()
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	var inFlight sync.WaitGroup
	defer inFlight.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		entry, err := w.queue.ClaimNextPending(ctx)
		if err != nil {
			w.logger.Error("error claiming queue entry", "err", err)
			w.sleep(ctx)
			continue
		}
		if entry == nil {
			w.sleep(ctx)
			continue
		}

		inFlight.Add(1)
		claimed := entry
		submitErr := w.pool.Submit(func() {
			defer inFlight.Done()
			w.processEntry(ctx, claimed)
		})
		if submitErr != nil {
			inFlight.Done()
			w.logger.Error("error submitting queue entry", "entry_id", entry.Id, "err", submitErr)
			w.handleFailure(entry, submitErr)
		}
	}
}

func (w *Worker) processEntry(ctx context.Context, entry *core.QueueEntry) {
	if err := w.processor.ProcessMessage(ctx, entry.MessageId); err != nil {
		w.logger.Warn("queue entry failed",
			"entry_id", entry.Id,
			"message_id", entry.MessageId,
			"retry_count", entry.RetryCount,
			"err", err)
		w.handleFailure(entry, err)
		return
	}

	// Completion happens on a fresh context so a shutdown mid-run cannot
	// leave a finished entry stuck in processing.
	if err := w.queue.CompleteEntry(context.Background(), entry.Id); err != nil {
		w.logger.Error("error completing queue entry", "entry_id", entry.Id, "err", err)
	}
}

func (w *Worker) handleFailure(entry *core.QueueEntry, cause error) {
	ctx := context.Background()

	failed, err := w.queue.FailEntry(ctx, entry.Id, cause.Error())
	if err != nil {
		w.logger.Error("error failing queue entry", "entry_id", entry.Id, "err", err)
		return
	}

	// Input defects cannot succeed on a re-drive; only transient dependency
	// failures are worth another attempt.
	if isPermanent(cause) {
		w.logger.Warn("queue entry failed on bad input, not retrying",
			"entry_id", entry.Id,
			"message_id", entry.MessageId,
			"err", cause)
		return
	}

	if failed.RetryCount >= w.maxRetries {
		w.logger.Error("queue entry exhausted retries",
			"entry_id", entry.Id,
			"message_id", entry.MessageId,
			"retry_count", failed.RetryCount)
		return
	}

	if err := w.queue.RequeueEntry(ctx, entry.Id); err != nil {
		w.logger.Error("error requeueing queue entry", "entry_id", entry.Id, "err", err)
	}
}

// isPermanent reports whether the failure stems from the message itself
// rather than a dependency.
func isPermanent(cause error) bool {
	return errors.Is(cause, agent.ErrNoContent) ||
		errors.Is(cause, agent.ErrMissingMediaURL) ||
		errors.Is(cause, core.ErrInvalidMessageType)
}

func (w *Worker) sleep(ctx context.Context) {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
