package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/brokerit/ai"
)

// Transcriber implements ai.Transcriber against the OpenAI-compatible
// audio transcription endpoint. langchaingo has no transcription binding,
// so this talks to /audio/transcriptions directly.
type Transcriber struct {
	host       string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// newTranscriber is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTranscriber(config *ai.Config) (*Transcriber, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Transcriber{
		host:       config.Host,
		apiKey:     config.APIKey,
		model:      config.TranscriptionModel,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     slog.Default().With("component", "openai-transcriber"),
	}, nil
}

// NewTranscriber creates a new transcriber using the provided configuration.
//
// Returns ai.Transcriber interface to enforce abstraction.
func NewTranscriber(config *ai.Config) (ai.Transcriber, error) {
	return newTranscriber(config)
}

// TranscribeAudio downloads the audio at the given URL and submits it for
// transcription.
func (t *Transcriber) TranscribeAudio(ctx context.Context, audioURL string) (string, error) {
	t.logger.Debug("transcribing audio", "url", audioURL)

	audio, err := t.downloadAudio(ctx, audioURL)
	if err != nil {
		t.logger.Error("failed to download audio", "err", err)
		return "", err
	}

	text, err := t.submitTranscription(ctx, audio)
	if err != nil {
		t.logger.Error("failed to transcribe audio", "err", err)
		return "", err
	}
	return text, nil
}

func (t *Transcriber) downloadAudio(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (t *Transcriber) submitTranscription(ctx context.Context, audio []byte) (string, error) {
	var body strings.Builder
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.ogg")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := writer.WriteField("model", t.model); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	endpoint := t.host + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body.String()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if strings.TrimSpace(result.Text) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(result.Text), nil
}
