package badger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
)

func TestQueueLifecycle(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	// Empty queue yields no work
	entry, err := repos.Queue.ClaimNextPending(ctx)
	if err != nil {
		t.Fatalf("Claim on empty queue failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("Expected no entry, got %d", entry.Id)
	}

	now := time.Now().UTC()
	first, err := repos.Queue.EnqueueEntry(ctx, &core.QueueEntry{ConversationId: 1, MessageId: 10, EnqueuedAt: now.Add(-time.Minute)})
	if err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	second, err := repos.Queue.EnqueueEntry(ctx, &core.QueueEntry{ConversationId: 1, MessageId: 11, EnqueuedAt: now})
	if err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	// Oldest first
	claimed, err := repos.Queue.ClaimNextPending(ctx)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if claimed.Id != first.Id {
		t.Fatalf("Expected entry %d, got %d", first.Id, claimed.Id)
	}
	if claimed.Status != core.QueueProcessing {
		t.Fatalf("Expected processing status, got %s", claimed.Status)
	}
	if claimed.StartedAt.IsZero() {
		t.Fatal("Expected StartedAt to be set")
	}

	if err := repos.Queue.CompleteEntry(ctx, claimed.Id); err != nil {
		t.Fatalf("Failed to complete: %v", err)
	}
	done, err := repos.Queue.GetEntry(ctx, claimed.Id)
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if done.Status != core.QueueCompleted {
		t.Fatalf("Expected completed status, got %s", done.Status)
	}

	// Completing twice is an invalid transition
	if err := repos.Queue.CompleteEntry(ctx, claimed.Id); !errors.Is(err, storage.ErrInvalidQueueTransition) {
		t.Fatalf("Expected ErrInvalidQueueTransition, got %v", err)
	}

	// Second entry is still claimable
	claimed, err = repos.Queue.ClaimNextPending(ctx)
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	if claimed.Id != second.Id {
		t.Fatalf("Expected entry %d, got %d", second.Id, claimed.Id)
	}
}

func TestQueueFailAndRequeue(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	entry, err := repos.Queue.EnqueueEntry(ctx, &core.QueueEntry{ConversationId: 1, MessageId: 10})
	if err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	if _, err := repos.Queue.ClaimNextPending(ctx); err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}

	failed, err := repos.Queue.FailEntry(ctx, entry.Id, "generation timeout")
	if err != nil {
		t.Fatalf("Failed to fail entry: %v", err)
	}
	if failed.Status != core.QueueFailed {
		t.Fatalf("Expected failed status, got %s", failed.Status)
	}
	if failed.RetryCount != 1 {
		t.Fatalf("Expected retry count 1, got %d", failed.RetryCount)
	}
	if failed.ErrorMessage != "generation timeout" {
		t.Fatalf("Expected error message preserved, got '%s'", failed.ErrorMessage)
	}

	if err := repos.Queue.RequeueEntry(ctx, entry.Id); err != nil {
		t.Fatalf("Failed to requeue: %v", err)
	}
	requeued, err := repos.Queue.GetEntry(ctx, entry.Id)
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if requeued.Status != core.QueuePending {
		t.Fatalf("Expected pending status, got %s", requeued.Status)
	}
	if !requeued.StartedAt.IsZero() {
		t.Fatal("Expected StartedAt cleared on requeue")
	}
	if requeued.RetryCount != 1 {
		t.Fatalf("Expected retry count preserved, got %d", requeued.RetryCount)
	}

	// Requeueing a pending entry is an invalid transition
	if err := repos.Queue.RequeueEntry(ctx, entry.Id); !errors.Is(err, storage.ErrInvalidQueueTransition) {
		t.Fatalf("Expected ErrInvalidQueueTransition, got %v", err)
	}
}

func TestQueueRequeueStale(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	stale, err := repos.Queue.EnqueueEntry(ctx, &core.QueueEntry{ConversationId: 1, MessageId: 10})
	if err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	if _, err := repos.Queue.ClaimNextPending(ctx); err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}

	// A deadline in the past re-queues nothing
	count, err := repos.Queue.RequeueStale(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to requeue stale: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected 0 re-queued, got %d", count)
	}

	// A future deadline catches the stuck entry
	count, err = repos.Queue.RequeueStale(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("Failed to requeue stale: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 re-queued, got %d", count)
	}

	entry, err := repos.Queue.GetEntry(ctx, stale.Id)
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if entry.Status != core.QueuePending {
		t.Fatalf("Expected pending status, got %s", entry.Status)
	}
}

func TestQueueConcurrentClaims(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	const entries = 4
	for i := 0; i < entries; i++ {
		if _, err := repos.Queue.EnqueueEntry(ctx, &core.QueueEntry{ConversationId: 1, MessageId: core.ID(100 + i)}); err != nil {
			t.Fatalf("Failed to enqueue: %v", err)
		}
	}

	var mu sync.Mutex
	seen := make(map[core.ID]int)

	var wg sync.WaitGroup
	for i := 0; i < entries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := repos.Queue.ClaimNextPending(ctx)
			if err != nil || entry == nil {
				return
			}
			mu.Lock()
			seen[entry.Id]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	for id, n := range seen {
		if n > 1 {
			t.Fatalf("Entry %d claimed %d times", id, n)
		}
	}
}
