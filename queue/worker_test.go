package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/brokerit/agent"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage/badger"
)

// testProcessor records processed message IDs and fails on demand.
type testProcessor struct {
	mu        sync.Mutex
	processed []core.ID
	failWith  error
	failTimes int
}

func (p *testProcessor) ProcessMessage(ctx context.Context, messageID core.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil && (p.failTimes < 0 || p.failTimes > 0) {
		if p.failTimes > 0 {
			p.failTimes--
		}
		return p.failWith
	}
	p.processed = append(p.processed, messageID)
	return nil
}

func (p *testProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.processed)
}

// countingProcessor always returns its configured error and counts attempts.
type countingProcessor struct {
	mu       sync.Mutex
	attempts int
	err      error
}

func (p *countingProcessor) ProcessMessage(ctx context.Context, messageID core.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	return p.err
}

func (p *countingProcessor) runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

func newQueueFixture(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	t.Cleanup(func() { repos.Close() })
	return repos
}

func enqueue(t *testing.T, repos *badger.Repositories, messageID core.ID) *core.QueueEntry {
	t.Helper()
	entry, err := repos.Queue.EnqueueEntry(context.Background(), &core.QueueEntry{
		MessageId:      messageID,
		ConversationId: 1,
	})
	if err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	return entry
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not met before deadline")
}

func TestWorkerProcessesEntries(t *testing.T) {
	repos := newQueueFixture(t)
	ctx := context.Background()

	entries := make([]*core.QueueEntry, 3)
	for i := range entries {
		entries[i] = enqueue(t, repos, core.ID(100+i))
	}

	processor := &testProcessor{}
	worker, err := NewWorker(repos.Queue, processor, WithPollInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Failed to create worker: %v", err)
	}
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("Failed to start worker: %v", err)
	}
	defer worker.Stop()

	waitFor(t, 5*time.Second, func() bool { return processor.count() == 3 })
	waitFor(t, 5*time.Second, func() bool {
		for _, e := range entries {
			got, err := repos.Queue.GetEntry(ctx, e.Id)
			if err != nil || got.Status != core.QueueCompleted {
				return false
			}
		}
		return true
	})
}

func TestWorkerRetriesFailedEntry(t *testing.T) {
	repos := newQueueFixture(t)
	ctx := context.Background()

	entry := enqueue(t, repos, 42)

	processor := &testProcessor{failWith: errors.New("transient"), failTimes: 2}
	worker, err := NewWorker(repos.Queue, processor,
		WithPollInterval(10*time.Millisecond),
		WithMaxRetries(3))
	if err != nil {
		t.Fatalf("Failed to create worker: %v", err)
	}
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("Failed to start worker: %v", err)
	}
	defer worker.Stop()

	// Two failures, then success on the third attempt
	waitFor(t, 5*time.Second, func() bool {
		got, err := repos.Queue.GetEntry(ctx, entry.Id)
		return err == nil && got.Status == core.QueueCompleted
	})

	got, err := repos.Queue.GetEntry(ctx, entry.Id)
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if got.RetryCount != 2 {
		t.Errorf("Expected 2 recorded retries, got %d", got.RetryCount)
	}
	if processor.count() != 1 {
		t.Errorf("Expected exactly one successful run, got %d", processor.count())
	}
}

func TestWorkerExhaustsRetries(t *testing.T) {
	repos := newQueueFixture(t)
	ctx := context.Background()

	entry := enqueue(t, repos, 42)

	processor := &testProcessor{failWith: errors.New("permanent"), failTimes: -1}
	worker, err := NewWorker(repos.Queue, processor,
		WithPollInterval(10*time.Millisecond),
		WithMaxRetries(2))
	if err != nil {
		t.Fatalf("Failed to create worker: %v", err)
	}
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("Failed to start worker: %v", err)
	}
	defer worker.Stop()

	waitFor(t, 5*time.Second, func() bool {
		got, err := repos.Queue.GetEntry(ctx, entry.Id)
		return err == nil && got.Status == core.QueueFailed && got.RetryCount == 2
	})

	got, err := repos.Queue.GetEntry(ctx, entry.Id)
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if got.ErrorMessage != "permanent" {
		t.Errorf("Expected error detail recorded, got %q", got.ErrorMessage)
	}
	if processor.count() != 0 {
		t.Errorf("Expected no successful runs, got %d", processor.count())
	}
}

func TestWorkerDoesNotRetryInputErrors(t *testing.T) {
	repos := newQueueFixture(t)
	ctx := context.Background()

	entry := enqueue(t, repos, 42)

	// A message with no usable content can never succeed on a re-drive
	processor := &countingProcessor{err: fmt.Errorf("stage normalize: %w", agent.ErrNoContent)}
	worker, err := NewWorker(repos.Queue, processor,
		WithPollInterval(10*time.Millisecond),
		WithMaxRetries(3))
	if err != nil {
		t.Fatalf("Failed to create worker: %v", err)
	}
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("Failed to start worker: %v", err)
	}
	defer worker.Stop()

	waitFor(t, 5*time.Second, func() bool {
		got, err := repos.Queue.GetEntry(ctx, entry.Id)
		return err == nil && got.Status == core.QueueFailed
	})

	// No re-drive happens while the worker keeps polling
	time.Sleep(100 * time.Millisecond)
	if runs := processor.runs(); runs != 1 {
		t.Errorf("Expected a single attempt for an input error, got %d", runs)
	}

	got, err := repos.Queue.GetEntry(ctx, entry.Id)
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if got.Status != core.QueueFailed || got.RetryCount != 1 {
		t.Errorf("Expected entry left failed after one attempt, got %s/%d", got.Status, got.RetryCount)
	}
}

func TestReconcilerRequeuesStaleEntries(t *testing.T) {
	repos := newQueueFixture(t)
	ctx := context.Background()

	entry := enqueue(t, repos, 42)

	// Claim it and abandon it
	claimed, err := repos.Queue.ClaimNextPending(ctx)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if claimed == nil || claimed.Id != entry.Id {
		t.Fatalf("Expected to claim entry %d, got %+v", entry.Id, claimed)
	}

	reconciler, err := NewReconciler(repos.Queue, WithStaleAfter(time.Nanosecond))
	if err != nil {
		t.Fatalf("Failed to create reconciler: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	reconciler.Sweep()

	got, err := repos.Queue.GetEntry(ctx, entry.Id)
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if got.Status != core.QueuePending {
		t.Errorf("Expected stale entry back to pending, got %s", got.Status)
	}
	if !got.StartedAt.IsZero() {
		t.Error("Expected StartedAt cleared on requeue")
	}
}

func TestReconcilerLeavesFreshEntries(t *testing.T) {
	repos := newQueueFixture(t)
	ctx := context.Background()

	entry := enqueue(t, repos, 42)
	if _, err := repos.Queue.ClaimNextPending(ctx); err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}

	reconciler, err := NewReconciler(repos.Queue, WithStaleAfter(time.Hour))
	if err != nil {
		t.Fatalf("Failed to create reconciler: %v", err)
	}
	reconciler.Sweep()

	got, err := repos.Queue.GetEntry(ctx, entry.Id)
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if got.Status != core.QueueProcessing {
		t.Errorf("Expected fresh entry untouched, got %s", got.Status)
	}
}
