package storage

import (
	"context"
	"time"

	"github.com/poiesic/brokerit/core"
)

// BrokerRepository provides operations for managing brokers (tenants).
// Implementations must be thread-safe and support concurrent access.
type BrokerRepository interface {
	// AddBrokers adds one or more brokers to storage.
	// For brokers with ID=0, generates new IDs from sequence.
	// Sets CreatedAt if not already set.
	AddBrokers(ctx context.Context, brokers ...*core.Broker) ([]*core.Broker, error)

	// GetBroker retrieves a single broker by ID.
	// Returns ErrNotFound if the broker doesn't exist.
	GetBroker(ctx context.Context, id core.ID) (*core.Broker, error)

	// ListBrokers retrieves all brokers, optionally restricted to active ones.
	ListBrokers(ctx context.Context, activeOnly bool) ([]*core.Broker, error)

	// FindBrokerByWhatsAppNumber resolves a business WhatsApp number to its
	// broker. The number is compared in normalized (digits-only) form.
	// Returns ErrNotFound if no broker owns the number.
	FindBrokerByWhatsAppNumber(ctx context.Context, number string) (*core.Broker, error)

	// FirstActiveBroker returns the first active broker, used as the
	// documented default-tenant fallback when no routing rule matches.
	// Returns ErrNotFound when no active broker exists.
	FirstActiveBroker(ctx context.Context) (*core.Broker, error)

	// Close releases repository resources.
	Close() error
}

// PropertyRepository provides operations for managing property records.
type PropertyRepository interface {
	// AddProperties adds one or more properties to storage.
	AddProperties(ctx context.Context, properties ...*core.Property) ([]*core.Property, error)

	// GetProperty retrieves a single property by ID.
	// Returns ErrNotFound if the property doesn't exist.
	GetProperty(ctx context.Context, id core.ID) (*core.Property, error)

	// ListProperties retrieves all properties for a broker.
	ListProperties(ctx context.Context, brokerID core.ID) ([]*core.Property, error)

	// Close releases repository resources.
	Close() error
}

// ConversationRepository provides operations for managing conversations.
type ConversationRepository interface {
	// GetOrCreateConversation returns the active conversation for the
	// (broker, client phone) pair, creating one atomically if none exists.
	// Concurrent calls for the same pair resolve to a single conversation.
	GetOrCreateConversation(ctx context.Context, brokerID core.ID, clientPhone string) (*core.Conversation, error)

	// GetConversation retrieves a single conversation by ID.
	// Returns ErrNotFound if the conversation doesn't exist.
	GetConversation(ctx context.Context, id core.ID) (*core.Conversation, error)

	// ListConversations retrieves all conversations for a broker, most
	// recently active first.
	ListConversations(ctx context.Context, brokerID core.ID) ([]*core.Conversation, error)

	// TouchConversation advances LastMessageAt to the given time.
	// The update is a monotonic merge: an older timestamp never regresses
	// the stored value, so concurrent completions cannot move it backwards.
	TouchConversation(ctx context.Context, id core.ID, at time.Time) error

	// CloseConversation transitions a conversation out of the active state
	// and releases the (broker, client, active) uniqueness slot.
	// Returns ErrNotFound if the conversation doesn't exist.
	CloseConversation(ctx context.Context, id core.ID) error

	// DeleteConversation removes a conversation.
	// Returns ErrConversationNotEmpty while messages still reference it;
	// the caller must delete or move them first.
	DeleteConversation(ctx context.Context, id core.ID) error

	// Close releases repository resources.
	Close() error
}

// MessageRepository provides operations for managing messages.
type MessageRepository interface {
	// AddMessages adds one or more messages to storage.
	// For messages with ID=0, generates new IDs from sequence.
	// Sets InsertedAt if not already set.
	AddMessages(ctx context.Context, messages ...*core.Message) ([]*core.Message, error)

	// GetMessage retrieves a single message by ID.
	// Returns ErrNotFound if the message doesn't exist.
	GetMessage(ctx context.Context, id core.ID) (*core.Message, error)

	// UpdateMessageContent replaces the text content of a message (used to
	// persist audio transcriptions). Updates UpdatedAt automatically.
	// Returns ErrNotFound if the message doesn't exist.
	UpdateMessageContent(ctx context.Context, id core.ID, content string) error

	// UpdateMessageStatus patches the delivery status of a message.
	// Returns ErrNotFound if the message doesn't exist.
	UpdateMessageStatus(ctx context.Context, id core.ID, status core.DeliveryStatus) error

	// FindMessageByWhatsAppID looks a message up by its provider-assigned id.
	// Returns ErrNotFound if no such message exists.
	FindMessageByWhatsAppID(ctx context.Context, whatsappID string) (*core.Message, error)

	// RecentMessages retrieves the last N messages of a conversation in
	// chronological (oldest-to-newest) order.
	RecentMessages(ctx context.Context, conversationID core.ID, limit int) ([]*core.Message, error)

	// CountMessages returns the number of messages in a conversation.
	CountMessages(ctx context.Context, conversationID core.ID) (int, error)

	// Close releases repository resources.
	Close() error
}

// DocumentRepository provides operations for managing knowledge documents.
type DocumentRepository interface {
	// AddDocuments adds one or more knowledge documents to storage.
	// Document IDs are content-based (IDFromContent over broker, title and
	// content), so re-uploading identical content is idempotent.
	AddDocuments(ctx context.Context, documents ...*core.KnowledgeDocument) ([]*core.KnowledgeDocument, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.KnowledgeDocument, error)

	// ListDocuments retrieves all documents for a broker, most recently
	// uploaded first.
	ListDocuments(ctx context.Context, brokerID core.ID) ([]*core.KnowledgeDocument, error)

	// SetDocumentEmbedding stores the embedding vector for a document,
	// marking it processed and visible to retrieval.
	// Returns ErrNotFound if the document doesn't exist.
	SetDocumentEmbedding(ctx context.Context, id core.ID, vector []float32) error

	// UnprocessedDocuments retrieves all documents without an embedding.
	UnprocessedDocuments(ctx context.Context) ([]*core.KnowledgeDocument, error)

	// FindSimilarDocuments returns up to limit documents for the broker
	// (optionally restricted to a property) ranked by vector similarity.
	// Documents without an embedding are never returned. Equal scores are
	// broken by most-recent upload first, so results are deterministic.
	// An empty result is not an error.
	FindSimilarDocuments(ctx context.Context, vector []float32, brokerID, propertyID core.ID, limit int) ([]*core.DocumentMatch, error)

	// Close releases repository resources.
	Close() error
}

// QueueRepository provides operations for the pipeline work queue.
type QueueRepository interface {
	// EnqueueEntry adds a new entry in the pending state.
	EnqueueEntry(ctx context.Context, entry *core.QueueEntry) (*core.QueueEntry, error)

	// ClaimNextPending atomically transitions the oldest pending entry to
	// processing and returns it. Returns (nil, nil) when the queue is empty.
	// Concurrent claimers never receive the same entry.
	ClaimNextPending(ctx context.Context) (*core.QueueEntry, error)

	// CompleteEntry marks a processing entry completed.
	CompleteEntry(ctx context.Context, id core.ID) error

	// FailEntry marks an entry failed, records the error detail and
	// increments the retry count. Returns the updated entry.
	FailEntry(ctx context.Context, id core.ID, errMsg string) (*core.QueueEntry, error)

	// RequeueEntry moves a failed entry back to pending for another attempt.
	RequeueEntry(ctx context.Context, id core.ID) error

	// RequeueStale moves entries stuck in processing since before the given
	// deadline back to pending. Returns the number of entries re-queued.
	RequeueStale(ctx context.Context, deadline time.Time) (int, error)

	// GetEntry retrieves a single entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.QueueEntry, error)

	// Close releases repository resources.
	Close() error
}

// InteractionRepository provides operations for the pipeline audit trail.
type InteractionRepository interface {
	// AddInteractions appends one or more interaction log records.
	AddInteractions(ctx context.Context, interactions ...*core.InteractionLog) ([]*core.InteractionLog, error)

	// ListInteractions retrieves all interaction records for a conversation
	// in insertion order.
	ListInteractions(ctx context.Context, conversationID core.ID) ([]*core.InteractionLog, error)

	// Close releases repository resources.
	Close() error
}
