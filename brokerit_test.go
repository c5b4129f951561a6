package brokerit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/brokerit/ai/mock"
	"github.com/poiesic/brokerit/core"
)

// recordingChannel captures outbound messages instead of calling a provider.
type recordingChannel struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingChannel) SendText(ctx context.Context, recipientPhone, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return fmt.Sprintf("OUT-%d", len(r.sent)), nil
}

func (r *recordingChannel) SendMedia(ctx context.Context, recipientPhone, mediaType, mediaURL string) (string, error) {
	return r.SendText(ctx, recipientPhone, mediaURL)
}

func (r *recordingChannel) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestNewAppRequiresChannel(t *testing.T) {
	_, err := NewApp("", WithProvider(mock.NewMockProvider()))
	if !errors.Is(err, ErrChannelRequired) {
		t.Fatalf("Expected ErrChannelRequired, got %v", err)
	}
}

func TestAppEndToEnd(t *testing.T) {
	channel := &recordingChannel{}
	app, err := NewApp("",
		WithProvider(mock.NewMockProvider()),
		WithChannel(channel),
	)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := app.Repositories().Brokers.AddBrokers(ctx, &core.Broker{
		Name:           "Ana",
		WhatsAppNumber: "15550001111",
		Active:         true,
	}); err != nil {
		t.Fatalf("Failed to add broker: %v", err)
	}

	if err := app.Worker().Start(ctx); err != nil {
		t.Fatalf("Failed to start worker: %v", err)
	}
	defer app.Worker().Stop()

	payload := []byte(`{
		"event": "messages.upsert",
		"instance": "15550001111",
		"data": {
			"key": {"remoteJid": "15551234567@s.whatsapp.net", "fromMe": false, "id": "WA-1"},
			"pushName": "Carlos",
			"message": {"conversation": "do you have apartments downtown?"}
		}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// The worker picks the entry up and a reply goes out
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) && channel.count() == 0 {
		time.Sleep(20 * time.Millisecond)
	}
	if channel.count() != 1 {
		t.Fatalf("Expected 1 reply sent, got %d", channel.count())
	}

	// Both directions are stored on the conversation
	message, err := app.Repositories().Messages.FindMessageByWhatsAppID(ctx, "WA-1")
	if err != nil {
		t.Fatalf("Failed to find inbound message: %v", err)
	}
	count, err := app.Repositories().Messages.CountMessages(ctx, message.ConversationId)
	if err != nil {
		t.Fatalf("Failed to count messages: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected inbound and outbound stored, got %d", count)
	}

	interactions, err := app.Repositories().Interactions.ListInteractions(ctx, message.ConversationId)
	if err != nil {
		t.Fatalf("Failed to list interactions: %v", err)
	}
	if len(interactions) != 1 {
		t.Errorf("Expected 1 interaction logged, got %d", len(interactions))
	}
}
