package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEvolutionClientSendText(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("apiKey")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"key": {"id": "WA-OUT-1"}}`))
	}))
	defer server.Close()

	client, err := NewEvolutionClient(EvolutionConfig{
		BaseURL:  server.URL,
		APIKey:   "secret",
		Instance: "main",
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	providerID, err := client.SendText(context.Background(), "+1 (555) 123-4567", "Hello!")
	if err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if providerID != "WA-OUT-1" {
		t.Errorf("Expected provider id WA-OUT-1, got %s", providerID)
	}
	if gotPath != "/message/sendText/main" {
		t.Errorf("Expected instance path, got %s", gotPath)
	}
	if gotAPIKey != "secret" {
		t.Errorf("Expected apiKey header, got %s", gotAPIKey)
	}
	if gotPayload["number"] != "15551234567" {
		t.Errorf("Expected digits-only recipient, got %v", gotPayload["number"])
	}
	if gotPayload["text"] != "Hello!" {
		t.Errorf("Expected text payload, got %v", gotPayload["text"])
	}
}

func TestEvolutionClientSendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "instance not connected", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewEvolutionClient(EvolutionConfig{
		BaseURL:  server.URL,
		APIKey:   "secret",
		Instance: "main",
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if _, err := client.SendText(context.Background(), "15551234567", "Hello!"); !errors.Is(err, ErrSendFailed) {
		t.Fatalf("Expected ErrSendFailed, got %v", err)
	}
}

func TestEvolutionConfigValidate(t *testing.T) {
	valid := EvolutionConfig{BaseURL: "https://evo.example.com", APIKey: "k", Instance: "main"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}

	for _, cfg := range []EvolutionConfig{
		{APIKey: "k", Instance: "main"},
		{BaseURL: "https://evo.example.com", Instance: "main"},
		{BaseURL: "https://evo.example.com", APIKey: "k"},
	} {
		if err := cfg.Validate(); err == nil {
			t.Errorf("Expected validation error for %+v", cfg)
		}
	}
}
