package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/brokerit/ai/mock"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage/badger"
)

// fakeChannel records sent messages instead of talking to a provider.
type fakeChannel struct {
	mu   sync.Mutex
	sent []string
	to   []string
	err  error
}

func (f *fakeChannel) SendText(ctx context.Context, recipientPhone, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, text)
	f.to = append(f.to, recipientPhone)
	return "WA-OUT", nil
}

func (f *fakeChannel) SendMedia(ctx context.Context, recipientPhone, mediaType, mediaURL string) (string, error) {
	return f.SendText(ctx, recipientPhone, mediaURL)
}

type orchestratorFixture struct {
	repos     *badger.Repositories
	provider  *mock.MockProvider
	channel   *fakeChannel
	orch      *Orchestrator
	inboundID core.ID
	convID    core.ID
}

func newOrchestratorFixture(t *testing.T, inbound *core.Message) *orchestratorFixture {
	t.Helper()
	ctx := context.Background()

	repos, err := badger.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	t.Cleanup(func() { repos.Close() })

	conversation, err := repos.Conversations.GetOrCreateConversation(ctx, 1, "15551234567")
	if err != nil {
		t.Fatalf("Failed to create conversation: %v", err)
	}

	inbound.ConversationId = conversation.Id
	inbound.BrokerId = 1
	inbound.Direction = core.DirectionInbound
	inbound.Status = core.DeliveryDelivered
	inbound.SentAt = time.Now().UTC()
	added, err := repos.Messages.AddMessages(ctx, inbound)
	if err != nil {
		t.Fatalf("Failed to add message: %v", err)
	}

	provider := mock.NewMockProvider().(*mock.MockProvider)
	channel := &fakeChannel{}

	normalizer := NewNormalizer(repos.Messages, provider.Transcriber(), provider.VisionAnalyzer())
	retriever := NewRetriever(repos.Documents, DefaultTopK)

	orch, err := NewOrchestrator(
		repos.Conversations,
		repos.Messages,
		repos.Interactions,
		normalizer,
		retriever,
		provider.Embedder(),
		provider.Responder(),
		channel,
	)
	if err != nil {
		t.Fatalf("Failed to create orchestrator: %v", err)
	}

	return &orchestratorFixture{
		repos:     repos,
		provider:  provider,
		channel:   channel,
		orch:      orch,
		inboundID: added[0].Id,
		convID:    conversation.Id,
	}
}

func TestProcessTextMessage(t *testing.T) {
	f := newOrchestratorFixture(t, &core.Message{
		Type:    core.MessageTypeText,
		Content: "Is the lakeside villa still available?",
	})
	ctx := context.Background()

	// Seed an embedded document so retrieval has something to find
	docs, err := f.repos.Documents.AddDocuments(ctx, &core.KnowledgeDocument{
		BrokerId: 1, Title: "Lakeside Villa", FileType: "txt",
		Content: "Three bedroom villa with lake access, asking 450k.",
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	vector, _ := f.provider.Embedder().EmbedText(ctx, "Is the lakeside villa still available?")
	if err := f.repos.Documents.SetDocumentEmbedding(ctx, docs[0].Id, vector); err != nil {
		t.Fatalf("Failed to set embedding: %v", err)
	}

	if err := f.orch.ProcessMessage(ctx, f.inboundID); err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}

	// A reply was delivered to the client
	if len(f.channel.sent) != 1 {
		t.Fatalf("Expected 1 sent message, got %d", len(f.channel.sent))
	}
	if f.channel.to[0] != "15551234567" {
		t.Errorf("Expected delivery to client phone, got %s", f.channel.to[0])
	}

	// The outbound message is recorded
	recent, err := f.repos.Messages.RecentMessages(ctx, f.convID, 10)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected inbound + outbound, got %d messages", len(recent))
	}
	outbound := recent[1]
	if outbound.Direction != core.DirectionOutbound || !outbound.IsFromAgent {
		t.Error("Expected agent outbound message")
	}
	if outbound.WhatsAppMessageId != "WA-OUT" {
		t.Errorf("Expected provider id recorded, got %s", outbound.WhatsAppMessageId)
	}

	// An interaction record was appended
	interactions, err := f.repos.Interactions.ListInteractions(ctx, f.convID)
	if err != nil {
		t.Fatalf("Failed to list interactions: %v", err)
	}
	if len(interactions) != 1 {
		t.Fatalf("Expected 1 interaction, got %d", len(interactions))
	}
	interaction := interactions[0]
	if interaction.Query != "Is the lakeside villa still available?" {
		t.Errorf("Unexpected query: %s", interaction.Query)
	}
	if len(interaction.RetrievedDocuments) != 1 || interaction.RetrievedDocuments[0] != docs[0].Id {
		t.Errorf("Expected retrieved document ids recorded, got %v", interaction.RetrievedDocuments)
	}
	if interaction.Confidence != 0.6 {
		t.Errorf("Expected confidence 0.6 for one document, got %f", interaction.Confidence)
	}
	if interaction.ProcessingTime <= 0 {
		t.Error("Expected positive processing time")
	}
}

func TestProcessAudioMessage(t *testing.T) {
	f := newOrchestratorFixture(t, &core.Message{
		Type:     core.MessageTypeAudio,
		MediaURL: "https://cdn.example.com/voice.ogg",
	})
	ctx := context.Background()

	transcriber := f.provider.GetMockTranscriber()
	transcriber.TranscribeAudioFunc = func(ctx context.Context, audioURL string) (string, error) {
		return "do you have anything with a garden", nil
	}

	if err := f.orch.ProcessMessage(ctx, f.inboundID); err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}

	// The transcript became the query and was persisted
	stored, err := f.repos.Messages.GetMessage(ctx, f.inboundID)
	if err != nil {
		t.Fatalf("Failed to get message: %v", err)
	}
	if stored.Content != "do you have anything with a garden" {
		t.Errorf("Expected persisted transcript, got %q", stored.Content)
	}

	interactions, err := f.repos.Interactions.ListInteractions(ctx, f.convID)
	if err != nil {
		t.Fatalf("Failed to list interactions: %v", err)
	}
	if len(interactions) != 1 || interactions[0].Query != "do you have anything with a garden" {
		t.Fatalf("Expected transcript as interaction query, got %+v", interactions)
	}
}

func TestProcessAudioTranscriptionFailure(t *testing.T) {
	f := newOrchestratorFixture(t, &core.Message{
		Type:     core.MessageTypeAudio,
		MediaURL: "https://cdn.example.com/voice.ogg",
	})

	f.provider.GetMockTranscriber().TranscribeAudioFunc = func(ctx context.Context, audioURL string) (string, error) {
		return "", errors.New("whisper unavailable")
	}

	err := f.orch.ProcessMessage(context.Background(), f.inboundID)
	var stageError *StageError
	if !errors.As(err, &stageError) || stageError.Stage != StageNormalize {
		t.Fatalf("Expected normalize stage error, got %v", err)
	}
	if len(f.channel.sent) != 0 {
		t.Errorf("Expected no outbound message, got %d", len(f.channel.sent))
	}
}

func TestProcessWithNoDocuments(t *testing.T) {
	f := newOrchestratorFixture(t, &core.Message{
		Type:    core.MessageTypeText,
		Content: "any listings downtown?",
	})
	ctx := context.Background()

	responder := f.provider.GetMockResponder()

	// Zero retrieved documents is a valid low-confidence case
	if err := f.orch.ProcessMessage(ctx, f.inboundID); err != nil {
		t.Fatalf("Pipeline failed with empty knowledge base: %v", err)
	}

	if len(f.channel.sent) != 1 {
		t.Fatalf("Expected a reply despite empty retrieval, got %d", len(f.channel.sent))
	}
	if strings.Contains(responder.LastContext(), "Relevant property information:") {
		t.Error("Expected no document section in context")
	}
	if !strings.Contains(responder.LastContext(), "Recent conversation:") {
		t.Error("Expected conversation history in context")
	}

	interactions, err := f.repos.Interactions.ListInteractions(ctx, f.convID)
	if err != nil {
		t.Fatalf("Failed to list interactions: %v", err)
	}
	if interactions[0].Confidence != 0.3 {
		t.Errorf("Expected confidence 0.3 for zero documents, got %f", interactions[0].Confidence)
	}
}

func TestProcessGenerationFailureSendsNothing(t *testing.T) {
	f := newOrchestratorFixture(t, &core.Message{
		Type:    core.MessageTypeText,
		Content: "hello",
	})
	ctx := context.Background()

	f.provider.GetMockResponder().GenerateResponseFunc = func(ctx context.Context, query, contextBlock string) (string, error) {
		return "", errors.New("rate limited")
	}

	err := f.orch.ProcessMessage(ctx, f.inboundID)
	if err == nil {
		t.Fatal("Expected pipeline failure")
	}

	var stageError *StageError
	if !errors.As(err, &stageError) || stageError.Stage != StageGenerate {
		t.Fatalf("Expected generate stage error, got %v", err)
	}

	// Nothing went out and no interaction was recorded
	if len(f.channel.sent) != 0 {
		t.Errorf("Expected no outbound message, got %d", len(f.channel.sent))
	}
	interactions, err := f.repos.Interactions.ListInteractions(ctx, f.convID)
	if err != nil {
		t.Fatalf("Failed to list interactions: %v", err)
	}
	if len(interactions) != 0 {
		t.Errorf("Expected no interactions after failure, got %d", len(interactions))
	}
}

func TestProcessDeliveryFailure(t *testing.T) {
	f := newOrchestratorFixture(t, &core.Message{
		Type:    core.MessageTypeText,
		Content: "hello",
	})
	f.channel.err = errors.New("instance disconnected")

	err := f.orch.ProcessMessage(context.Background(), f.inboundID)
	var stageError *StageError
	if !errors.As(err, &stageError) || stageError.Stage != StageDeliver {
		t.Fatalf("Expected deliver stage error, got %v", err)
	}
}
