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


package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client sends outbound messages through a WhatsApp provider.
// Implementations must be thread-safe for concurrent use.
type Client interface {
	// SendText delivers a text message to the recipient phone number and
	// returns the provider-assigned message id.
	SendText(ctx context.Context, recipientPhone, text string) (string, error)

	// SendMedia delivers a media message (image or audio by URL) with the
	// given media type and returns the provider-assigned message id.
	SendMedia(ctx context.Context, recipientPhone, mediaType, mediaURL string) (string, error)
}

// EvolutionConfig holds connection settings for an Evolution API instance.
type EvolutionConfig struct {
	// BaseURL is the Evolution API server, e.g. "https://evo.example.com".
	BaseURL string

	// APIKey authenticates requests.
	APIKey string

	// Instance is the Evolution instance name messages are sent through.
	Instance string
}

// Validate checks that the configuration is complete.
func (c *EvolutionConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("whatsapp config: BaseURL is required")
	}
	if c.APIKey == "" {
		return errors.New("whatsapp config: APIKey is required")
	}
	if c.Instance == "" {
		return errors.New("whatsapp config: Instance is required")
	}
	return nil
}

// EvolutionClient implements Client against the Evolution API.
type EvolutionClient struct {
	config     EvolutionConfig
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Client = (*EvolutionClient)(nil)

// NewEvolutionClient creates a client for the configured Evolution instance.
//
// Returns the Client interface to enforce abstraction.
func NewEvolutionClient(config EvolutionConfig) (Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")

	return &EvolutionClient{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default().With("component", "evolution-client"),
	}, nil
}

// sendResult is the relevant part of the Evolution API send response.
type sendResult struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
}

// SendText delivers a text message.
func (c *EvolutionClient) SendText(ctx context.Context, recipientPhone, text string) (string, error) {
	payload := map[string]any{
		"number": NormalizePhone(recipientPhone),
		"text":   text,
	}
	return c.send(ctx, payload)
}

// SendMedia delivers a media message by URL.
func (c *EvolutionClient) SendMedia(ctx context.Context, recipientPhone, mediaType, mediaURL string) (string, error) {
	payload := map[string]any{
		"number": NormalizePhone(recipientPhone),
		"mediaMessage": map[string]string{
			"mediatype": mediaType,
			"media":     mediaURL,
		},
	}
	return c.send(ctx, payload)
}

func (c *EvolutionClient) send(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/message/sendText/%s", c.config.BaseURL, c.config.Instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apiKey", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("send request failed", "err", err)
		return "", fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("provider rejected message", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d: %s", ErrSendFailed, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result sendResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		// Delivery succeeded even if the response shape is unexpected;
		// callers treat an empty provider id as non-fatal.
		c.logger.Warn("could not decode send response", "err", err)
		return "", nil
	}

	c.logger.Debug("message sent", "provider_id", result.Key.ID)
	return result.Key.ID, nil
}
