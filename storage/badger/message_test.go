package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage"
)

func newTestMessage(conversationID core.ID, content string, sentAt time.Time) *core.Message {
	return &core.Message{
		ConversationId: conversationID,
		BrokerId:       1,
		Direction:      core.DirectionInbound,
		Type:           core.MessageTypeText,
		Content:        content,
		Status:         core.DeliveryDelivered,
		SentAt:         sentAt,
	}
}

func TestMessageBasics(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	message := newTestMessage(3, "Hello there", time.Now().UTC())
	message.WhatsAppMessageId = "WA-123"

	added, err := repos.Messages.AddMessages(ctx, message)
	if err != nil {
		t.Fatalf("Failed to add message: %v", err)
	}
	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added[0].InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	retrieved, err := repos.Messages.GetMessage(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get message: %v", err)
	}
	if retrieved.Content != "Hello there" {
		t.Fatalf("Expected 'Hello there', got '%s'", retrieved.Content)
	}

	byWA, err := repos.Messages.FindMessageByWhatsAppID(ctx, "WA-123")
	if err != nil {
		t.Fatalf("Failed to find message by provider id: %v", err)
	}
	if byWA.Id != added[0].Id {
		t.Fatalf("Expected message %d, got %d", added[0].Id, byWA.Id)
	}

	if _, err := repos.Messages.FindMessageByWhatsAppID(ctx, "WA-missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestMessageUpdates(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	message := newTestMessage(3, "", time.Now().UTC())
	message.Type = core.MessageTypeAudio
	message.MediaURL = "https://example.com/audio.ogg"

	added, err := repos.Messages.AddMessages(ctx, message)
	if err != nil {
		t.Fatalf("Failed to add message: %v", err)
	}

	if err := repos.Messages.UpdateMessageContent(ctx, added[0].Id, "transcribed text"); err != nil {
		t.Fatalf("Failed to update content: %v", err)
	}
	if err := repos.Messages.UpdateMessageStatus(ctx, added[0].Id, core.DeliveryRead); err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}

	updated, err := repos.Messages.GetMessage(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get message: %v", err)
	}
	if updated.Content != "transcribed text" {
		t.Fatalf("Expected transcription, got '%s'", updated.Content)
	}
	if updated.Status != core.DeliveryRead {
		t.Fatalf("Expected read status, got %s", updated.Status)
	}

	if err := repos.Messages.UpdateMessageStatus(ctx, 9999, core.DeliveryRead); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestRecentMessagesOrderAndLimit(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	// Insert out of chronological order
	messages := []*core.Message{
		newTestMessage(5, "third", now.Add(-1*time.Minute)),
		newTestMessage(5, "first", now.Add(-3*time.Minute)),
		newTestMessage(5, "fourth", now),
		newTestMessage(5, "second", now.Add(-2*time.Minute)),
	}
	if _, err := repos.Messages.AddMessages(ctx, messages...); err != nil {
		t.Fatalf("Failed to add messages: %v", err)
	}

	// Another conversation must not leak in
	if _, err := repos.Messages.AddMessages(ctx, newTestMessage(6, "other", now)); err != nil {
		t.Fatalf("Failed to add message: %v", err)
	}

	recent, err := repos.Messages.RecentMessages(ctx, 5, 3)
	if err != nil {
		t.Fatalf("Failed to get recent messages: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(recent))
	}
	want := []string{"second", "third", "fourth"}
	for i, w := range want {
		if recent[i].Content != w {
			t.Fatalf("Position %d: expected '%s', got '%s'", i, w, recent[i].Content)
		}
	}

	count, err := repos.Messages.CountMessages(ctx, 5)
	if err != nil {
		t.Fatalf("Failed to count messages: %v", err)
	}
	if count != 4 {
		t.Fatalf("Expected 4 messages, got %d", count)
	}
}
