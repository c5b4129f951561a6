package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/brokerit/ai/mock"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage/badger"
)

func addTestMessage(t *testing.T, repos *badger.Repositories, message *core.Message) *core.Message {
	t.Helper()
	message.ConversationId = 1
	message.BrokerId = 1
	message.Direction = core.DirectionInbound
	message.Status = core.DeliveryDelivered
	message.SentAt = time.Now().UTC()

	added, err := repos.Messages.AddMessages(context.Background(), message)
	if err != nil {
		t.Fatalf("Failed to add message: %v", err)
	}
	return added[0]
}

func TestNormalizeText(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	normalizer := NewNormalizer(repos.Messages, mock.NewMockTranscriber(), mock.NewMockVisionAnalyzer())

	message := addTestMessage(t, repos, &core.Message{Type: core.MessageTypeText, Content: "hello"})
	query, err := normalizer.Normalize(context.Background(), message)
	if err != nil {
		t.Fatalf("Failed to normalize: %v", err)
	}
	if query != "hello" {
		t.Errorf("Expected pass-through content, got %q", query)
	}

	empty := addTestMessage(t, repos, &core.Message{Type: core.MessageTypeText})
	if _, err := normalizer.Normalize(context.Background(), empty); !errors.Is(err, ErrNoContent) {
		t.Fatalf("Expected ErrNoContent, got %v", err)
	}
}

func TestNormalizeAudioPersistsTranscript(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	transcriber := mock.NewMockTranscriber()
	transcriber.TranscribeAudioFunc = func(ctx context.Context, audioURL string) (string, error) {
		return "what is the asking price", nil
	}
	normalizer := NewNormalizer(repos.Messages, transcriber, mock.NewMockVisionAnalyzer())

	message := addTestMessage(t, repos, &core.Message{
		Type:     core.MessageTypeAudio,
		MediaURL: "https://cdn.example.com/voice.ogg",
	})

	query, err := normalizer.Normalize(context.Background(), message)
	if err != nil {
		t.Fatalf("Failed to normalize: %v", err)
	}
	if query != "what is the asking price" {
		t.Errorf("Expected transcript as query, got %q", query)
	}

	// Transcript is persisted on the message record
	stored, err := repos.Messages.GetMessage(context.Background(), message.Id)
	if err != nil {
		t.Fatalf("Failed to get message: %v", err)
	}
	if stored.Content != "what is the asking price" {
		t.Errorf("Expected persisted transcript, got %q", stored.Content)
	}

	// A second normalization skips the transcriber
	if _, err := normalizer.Normalize(context.Background(), stored); err != nil {
		t.Fatalf("Failed to re-normalize: %v", err)
	}
	if transcriber.CallCount() != 1 {
		t.Errorf("Expected 1 transcriber call, got %d", transcriber.CallCount())
	}
}

func TestNormalizeImageFramesDescription(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	vision := mock.NewMockVisionAnalyzer()
	vision.AnalyzeImageFunc = func(ctx context.Context, imageURL, caption string) (string, error) {
		return "a two-story house with a red roof", nil
	}
	normalizer := NewNormalizer(repos.Messages, mock.NewMockTranscriber(), vision)

	withCaption := addTestMessage(t, repos, &core.Message{
		Type:     core.MessageTypeImage,
		Content:  "is this one still listed?",
		MediaURL: "https://cdn.example.com/img.jpg",
	})
	query, err := normalizer.Normalize(context.Background(), withCaption)
	if err != nil {
		t.Fatalf("Failed to normalize: %v", err)
	}
	if query != "is this one still listed? [Image: a two-story house with a red roof]" {
		t.Errorf("Unexpected image query: %q", query)
	}

	// Without a caption the framed description stands alone
	withoutCaption := addTestMessage(t, repos, &core.Message{
		Type:     core.MessageTypeImage,
		MediaURL: "https://cdn.example.com/img.jpg",
	})
	query, err = normalizer.Normalize(context.Background(), withoutCaption)
	if err != nil {
		t.Fatalf("Failed to normalize: %v", err)
	}
	if query != "[Image: a two-story house with a red roof]" {
		t.Errorf("Unexpected image query: %q", query)
	}
}

func TestNormalizeImageFallback(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	vision := mock.NewMockVisionAnalyzer()
	vision.AnalyzeImageFunc = func(ctx context.Context, imageURL, caption string) (string, error) {
		return "", errors.New("model overloaded")
	}
	normalizer := NewNormalizer(repos.Messages, mock.NewMockTranscriber(), vision)

	message := addTestMessage(t, repos, &core.Message{
		Type:     core.MessageTypeImage,
		MediaURL: "https://cdn.example.com/img.jpg",
	})

	// Vision failure degrades to a placeholder, not an error
	query, err := normalizer.Normalize(context.Background(), message)
	if err != nil {
		t.Fatalf("Expected placeholder on vision failure, got error: %v", err)
	}
	if !strings.HasPrefix(query, "[Image: Image received (analysis unavailable") {
		t.Errorf("Expected framed placeholder query, got %q", query)
	}
}

func TestNormalizeDocumentCaption(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	normalizer := NewNormalizer(repos.Messages, mock.NewMockTranscriber(), mock.NewMockVisionAnalyzer())

	withCaption := addTestMessage(t, repos, &core.Message{
		Type:     core.MessageTypeDocument,
		Content:  "floor plan for the villa",
		MediaURL: "https://cdn.example.com/plan.pdf",
	})
	query, err := normalizer.Normalize(context.Background(), withCaption)
	if err != nil {
		t.Fatalf("Failed to normalize: %v", err)
	}
	if query != "floor plan for the villa" {
		t.Errorf("Expected caption as query, got %q", query)
	}

	withoutCaption := addTestMessage(t, repos, &core.Message{
		Type:     core.MessageTypeDocument,
		MediaURL: "https://cdn.example.com/plan.pdf",
	})
	if _, err := normalizer.Normalize(context.Background(), withoutCaption); !errors.Is(err, ErrNoContent) {
		t.Fatalf("Expected ErrNoContent, got %v", err)
	}
}
