package whatsapp

import (
	"errors"
	"testing"

	"github.com/poiesic/brokerit/core"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15551234567@s.whatsapp.net", "15551234567"},
		{"+1 (555) 123-4567", "15551234567"},
		{"15551234567", "15551234567"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseInboundText(t *testing.T) {
	body := []byte(`{
		"event": "messages.upsert",
		"instance": "main",
		"data": {
			"message": {
				"key": {"remoteJid": "15551234567@s.whatsapp.net", "fromMe": false, "id": "WA-1"},
				"pushName": "Alice",
				"message": {"conversation": "Is the villa still available?"}
			}
		}
	}`)

	envelope, err := ParseEnvelope(body)
	if err != nil {
		t.Fatalf("Failed to parse envelope: %v", err)
	}
	if envelope.Event != EventMessagesUpsert {
		t.Fatalf("Expected upsert event, got %s", envelope.Event)
	}

	inbound, err := ParseInbound(envelope)
	if err != nil {
		t.Fatalf("Failed to parse inbound: %v", err)
	}
	if inbound.ClientPhone != "15551234567" {
		t.Errorf("Expected normalized phone, got %s", inbound.ClientPhone)
	}
	if inbound.ClientName != "Alice" {
		t.Errorf("Expected client name Alice, got %s", inbound.ClientName)
	}
	if inbound.ProviderMessageID != "WA-1" {
		t.Errorf("Expected provider id WA-1, got %s", inbound.ProviderMessageID)
	}
	if inbound.Type != core.MessageTypeText {
		t.Errorf("Expected text type, got %s", inbound.Type)
	}
	if inbound.Content != "Is the villa still available?" {
		t.Errorf("Unexpected content: %s", inbound.Content)
	}
}

func TestParseInboundBareForm(t *testing.T) {
	// Older Evolution versions send the message unwrapped in data
	body := []byte(`{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "15551234567@s.whatsapp.net", "id": "WA-2"},
			"message": {"extendedTextMessage": {"text": "hello"}}
		}
	}`)

	envelope, err := ParseEnvelope(body)
	if err != nil {
		t.Fatalf("Failed to parse envelope: %v", err)
	}
	inbound, err := ParseInbound(envelope)
	if err != nil {
		t.Fatalf("Failed to parse inbound: %v", err)
	}
	if inbound.Content != "hello" {
		t.Errorf("Expected extended text content, got %q", inbound.Content)
	}
	if inbound.Type != core.MessageTypeText {
		t.Errorf("Expected text type, got %s", inbound.Type)
	}
}

func TestParseInboundMediaPriority(t *testing.T) {
	// Image wins over audio and document when several are present
	body := []byte(`{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "15551234567@s.whatsapp.net", "id": "WA-3"},
			"message": {
				"imageMessage": {"url": "https://cdn.example.com/img.jpg", "caption": "front yard"},
				"audioMessage": {"url": "https://cdn.example.com/a.ogg"},
				"documentMessage": {"url": "https://cdn.example.com/d.pdf"}
			}
		}
	}`)

	envelope, err := ParseEnvelope(body)
	if err != nil {
		t.Fatalf("Failed to parse envelope: %v", err)
	}
	inbound, err := ParseInbound(envelope)
	if err != nil {
		t.Fatalf("Failed to parse inbound: %v", err)
	}
	if inbound.Type != core.MessageTypeImage {
		t.Errorf("Expected image type, got %s", inbound.Type)
	}
	if inbound.MediaURL != "https://cdn.example.com/img.jpg" {
		t.Errorf("Expected image URL, got %s", inbound.MediaURL)
	}
	if inbound.Content != "front yard" {
		t.Errorf("Expected caption as content, got %q", inbound.Content)
	}
}

func TestParseInboundAudio(t *testing.T) {
	body := []byte(`{
		"event": "messages.upsert",
		"data": {
			"key": {"remoteJid": "15551234567@s.whatsapp.net", "id": "WA-4"},
			"message": {"audioMessage": {"url": "https://cdn.example.com/voice.ogg"}}
		}
	}`)

	envelope, err := ParseEnvelope(body)
	if err != nil {
		t.Fatalf("Failed to parse envelope: %v", err)
	}
	inbound, err := ParseInbound(envelope)
	if err != nil {
		t.Fatalf("Failed to parse inbound: %v", err)
	}
	if inbound.Type != core.MessageTypeAudio {
		t.Errorf("Expected audio type, got %s", inbound.Type)
	}
	if inbound.Content != "" {
		t.Errorf("Expected empty content for audio, got %q", inbound.Content)
	}
}

func TestParseInboundMissingKey(t *testing.T) {
	body := []byte(`{"event": "messages.upsert", "data": {"message": {"conversation": "hi"}}}`)

	envelope, err := ParseEnvelope(body)
	if err != nil {
		t.Fatalf("Failed to parse envelope: %v", err)
	}
	if _, err := ParseInbound(envelope); !errors.Is(err, ErrMissingMessageKey) {
		t.Fatalf("Expected ErrMissingMessageKey, got %v", err)
	}
}

func TestParseEnvelopeMalformed(t *testing.T) {
	if _, err := ParseEnvelope([]byte(`not json`)); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("Expected ErrMalformedPayload, got %v", err)
	}
	if _, err := ParseEnvelope([]byte(`{"data": {}}`)); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("Expected ErrMalformedPayload for missing event, got %v", err)
	}
}

func TestParseStatusUpdate(t *testing.T) {
	body := []byte(`{
		"event": "messages.update",
		"data": {"key": {"id": "WA-9"}, "status": "READ"}
	}`)

	envelope, err := ParseEnvelope(body)
	if err != nil {
		t.Fatalf("Failed to parse envelope: %v", err)
	}
	update, err := ParseStatusUpdate(envelope)
	if err != nil {
		t.Fatalf("Failed to parse status update: %v", err)
	}
	if update.ProviderMessageID != "WA-9" {
		t.Errorf("Expected provider id WA-9, got %s", update.ProviderMessageID)
	}
	if update.Status != core.DeliveryRead {
		t.Errorf("Expected read status, got %s", update.Status)
	}
}
