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
	"encoding/json"
	"fmt"

	"github.com/poiesic/brokerit/core"
)

// Webhook event types emitted by the Evolution API.
const (
	EventMessagesUpsert = "messages.upsert"
	EventMessagesUpdate = "messages.update"
)

// Envelope is the outer structure of every Evolution API webhook call.
type Envelope struct {
	Event    string          `json:"event"`
	Instance string          `json:"instance"`
	Data     json.RawMessage `json:"data"`
}

// messageKey identifies a message on the provider side.
type messageKey struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

// mediaMessage is the shared shape of image, audio and document payloads.
type mediaMessage struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// messageContent mirrors the nested "message" object of an upsert payload.
type messageContent struct {
	Conversation        string `json:"conversation"`
	ExtendedTextMessage *struct {
		Text string `json:"text"`
	} `json:"extendedTextMessage"`
	ImageMessage    *mediaMessage `json:"imageMessage"`
	AudioMessage    *mediaMessage `json:"audioMessage"`
	DocumentMessage *mediaMessage `json:"documentMessage"`
}

type rawInbound struct {
	Key      *messageKey     `json:"key"`
	PushName string          `json:"pushName"`
	Message  *messageContent `json:"message"`
}

// statusData is the data object of a messages.update event.
type statusData struct {
	Key    *messageKey `json:"key"`
	Status string      `json:"status"`
}

// Inbound is a provider-independent view of one received message.
type Inbound struct {
	// ClientPhone is the sender's number in digits-only form.
	ClientPhone string

	// ClientName is the sender's display name, when the provider sends one.
	ClientName string

	// ProviderMessageID is the provider-assigned message id, unique per
	// provider and used for de-duplication.
	ProviderMessageID string

	// FromMe marks messages the instance itself sent, echoed back by the
	// provider.
	FromMe bool

	// Type classifies the message by its dominant media kind.
	Type core.MessageType

	// Content is the text content or caption; may be empty for media.
	Content string

	// MediaURL points at the media object for non-text messages.
	MediaURL string
}

// StatusUpdate is a provider-independent view of a delivery status change.
type StatusUpdate struct {
	ProviderMessageID string
	Status            core.DeliveryStatus
}

// ParseEnvelope decodes the outer webhook structure.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if envelope.Event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrMalformedPayload)
	}
	return &envelope, nil
}

// ParseInbound extracts the inbound message from a messages.upsert envelope.
// Media kind is detected in priority order image, audio, document; everything
// else is text. Text content falls back from the plain conversation field to
// the extended-text body to the image caption.
func ParseInbound(envelope *Envelope) (*Inbound, error) {
	if envelope.Event != EventMessagesUpsert {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, envelope.Event)
	}

	// Some Evolution versions wrap the message in a "message" field on the
	// data object, others send it bare. Try the wrapped form first and fall
	// back to decoding the data object itself.
	var wrapped struct {
		Message *rawInbound `json:"message"`
	}
	raw := &rawInbound{}
	if err := json.Unmarshal(envelope.Data, &wrapped); err == nil && wrapped.Message != nil && wrapped.Message.Key != nil {
		raw = wrapped.Message
	} else if err := json.Unmarshal(envelope.Data, raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if raw.Key == nil || raw.Key.RemoteJid == "" || raw.Key.ID == "" {
		return nil, ErrMissingMessageKey
	}

	inbound := &Inbound{
		ClientPhone:       NormalizePhone(raw.Key.RemoteJid),
		ClientName:        raw.PushName,
		ProviderMessageID: raw.Key.ID,
		FromMe:            raw.Key.FromMe,
		Type:              core.MessageTypeText,
	}

	content := raw.Message
	if content == nil {
		return inbound, nil
	}

	inbound.Content = content.Conversation
	if inbound.Content == "" && content.ExtendedTextMessage != nil {
		inbound.Content = content.ExtendedTextMessage.Text
	}

	switch {
	case content.ImageMessage != nil:
		inbound.Type = core.MessageTypeImage
		inbound.MediaURL = content.ImageMessage.URL
		if inbound.Content == "" {
			inbound.Content = content.ImageMessage.Caption
		}
	case content.AudioMessage != nil:
		inbound.Type = core.MessageTypeAudio
		inbound.MediaURL = content.AudioMessage.URL
	case content.DocumentMessage != nil:
		inbound.Type = core.MessageTypeDocument
		inbound.MediaURL = content.DocumentMessage.URL
		if inbound.Content == "" {
			inbound.Content = content.DocumentMessage.Caption
		}
	}

	return inbound, nil
}

// ParseStatusUpdate extracts the delivery status change from a
// messages.update envelope. The provider's status vocabulary is mapped onto
// the pipeline's delivery states; unknown values pass through validation and
// fail there.
func ParseStatusUpdate(envelope *Envelope) (*StatusUpdate, error) {
	if envelope.Event != EventMessagesUpdate {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, envelope.Event)
	}

	var data statusData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if data.Key == nil || data.Key.ID == "" {
		return nil, ErrMissingMessageKey
	}

	return &StatusUpdate{
		ProviderMessageID: data.Key.ID,
		Status:            mapDeliveryStatus(data.Status),
	}, nil
}

// mapDeliveryStatus translates provider status strings to delivery states.
func mapDeliveryStatus(status string) core.DeliveryStatus {
	switch status {
	case "SERVER_ACK", "sent":
		return core.DeliverySent
	case "DELIVERY_ACK", "delivered":
		return core.DeliveryDelivered
	case "READ", "read":
		return core.DeliveryRead
	case "ERROR", "failed":
		return core.DeliveryFailed
	}
	return core.DeliveryStatus(status)
}
