package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// EmbeddingDimensions is the fixed dimension of all embedding vectors in the
// system. Documents embedded at a different dimension are invisible to
// retrieval until reprocessed.
const EmbeddingDimensions = 1536

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ConversationStatus is the lifecycle state of a Conversation.
type ConversationStatus string

const (
	ConversationActive  ConversationStatus = "active"
	ConversationClosed  ConversationStatus = "closed"
	ConversationPending ConversationStatus = "pending"
)

// MessageDirection identifies whether a message came from the client or was
// sent by the system.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// MessageType is the declared payload type of a message.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeImage    MessageType = "image"
	MessageTypeDocument MessageType = "document"
)

// DeliveryStatus is the channel-reported delivery state of a message.
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
	DeliveryFailed    DeliveryStatus = "failed"
)

// QueueStatus is the processing state of a QueueEntry.
type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueCompleted  QueueStatus = "completed"
	QueueFailed     QueueStatus = "failed"
)

// Broker is the tenant scope that owns conversations, properties and
// knowledge documents.
type Broker struct {
	Id             ID
	Name           string
	Email          string
	Phone          string
	WhatsAppNumber string // Business number clients message; used for webhook routing
	Active         bool
	CreatedAt      time.Time
}

// Property is an optional topic scope for knowledge documents and
// conversations.
type Property struct {
	Id           ID
	BrokerId     ID
	Title        string
	Description  string
	Address      string
	Price        float64
	Bedrooms     int
	Bathrooms    int
	SquareFeet   int
	PropertyType string // "house", "apartment", "condo", "land"
	Status       string // "available", "pending", "sold"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Conversation groups the messages exchanged with a single client phone
// number. At most one active conversation exists per (broker, client) pair;
// the storage layer enforces this at creation time.
type Conversation struct {
	Id            ID
	BrokerId      ID
	PropertyId    ID // 0 when the conversation is not tied to a property
	ClientPhone   string
	ClientName    string
	Status        ConversationStatus
	LastMessageAt time.Time
	CreatedAt     time.Time
	Metadata      map[string]string
}

// Message is a single inbound or outbound message in a conversation.
// Created once; only Content (audio transcription) and Status (delivery
// callbacks) are mutated afterwards. Never deleted by the pipeline.
type Message struct {
	Id                ID
	ConversationId    ID
	BrokerId          ID
	Direction         MessageDirection
	Type              MessageType
	Content           string // Text content, transcription, or media caption
	MediaURL          string
	WhatsAppMessageId string // Provider-assigned id, unique per provider
	Status            DeliveryStatus
	IsFromAgent       bool
	Metadata          map[string]string
	SentAt            time.Time // When the message was sent on the channel
	InsertedAt        time.Time
	UpdatedAt         time.Time
}

// KnowledgeDocument is a unit of retrievable knowledge owned by a broker and
// optionally scoped to a property. The presence of Vector marks the document
// as processed; unprocessed documents are invisible to retrieval.
type KnowledgeDocument struct {
	Id         ID
	BrokerId   ID
	PropertyId ID // 0 when not scoped to a property
	Title      string
	FileType   string // "pdf", "docx", "txt"
	FileSize   int64
	Content    string    // Extracted text content
	Vector     []float32 // Embedding vector (populated by the ingestion pipeline)
	UploadedAt time.Time
}

// Processed reports whether the document has been embedded and is therefore
// visible to retrieval.
func (d *KnowledgeDocument) Processed() bool {
	return len(d.Vector) > 0
}

// QueueEntry records one unit of pipeline work for an inbound message.
// The orchestrator runs only entries claimed from the queue; entries stuck
// in processing are re-queued by the reconciler.
type QueueEntry struct {
	Id             ID
	ConversationId ID
	MessageId      ID
	Priority       int
	Status         QueueStatus
	RetryCount     int
	ErrorMessage   string
	EnqueuedAt     time.Time
	StartedAt      time.Time // Zero until claimed
	CompletedAt    time.Time // Zero until completed or failed
}

// InteractionLog is an append-only audit record of one pipeline run that
// produced a response.
type InteractionLog struct {
	Id                 ID
	ConversationId     ID
	MessageId          ID
	Query              string
	RetrievedDocuments []ID
	Response           string
	Confidence         float32
	ProcessingTime     time.Duration
	CreatedAt          time.Time
}

// DocumentMatch is a knowledge document returned from vector similarity
// search together with its relevance score.
type DocumentMatch struct {
	Document *KnowledgeDocument
	Score    float32
}
