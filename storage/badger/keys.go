package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/brokerit/core"
)

// Key prefixes for different data types
const (
	brokerPrefix       = "bro"
	brokerNumberPrefix = "browa"
	brokerIDSeq        = "broseq"

	propertyPrefix = "prp"
	propertyIDSeq  = "prpseq"

	conversationPrefix = "con"
	activeConvPrefix   = "conact"
	conversationIDSeq  = "conseq"

	messagePrefix     = "msg"
	messageConvPrefix = "msgc"
	messageWAPrefix   = "msgwa"
	messageIDSeq      = "msgseq"

	documentPrefix = "doc"

	queuePrefix = "que"
	queueIDSeq  = "queseq"

	interactionPrefix     = "int"
	interactionConvPrefix = "intc"
	interactionIDSeq      = "intseq"
)

// makeBrokerKey generates a key for a broker by ID.
func makeBrokerKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", brokerPrefix, id))
}

// makeBrokerNumberKey generates an index key mapping a normalized WhatsApp
// number to a broker ID.
func makeBrokerNumberKey(number string) []byte {
	return []byte(brokerNumberPrefix + ":" + number)
}

// makePropertyKey generates a key for a property by ID.
func makePropertyKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", propertyPrefix, id))
}

// makeConversationKey generates a key for a conversation by ID.
func makeConversationKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", conversationPrefix, id))
}

// makeActiveConversationKey generates the uniqueness key for the active
// conversation of a (broker, client phone) pair.
func makeActiveConversationKey(brokerID core.ID, clientPhone string) []byte {
	return []byte(fmt.Sprintf("%s:%d:%s", activeConvPrefix, brokerID, clientPhone))
}

// makeMessageKey generates a key for a message by ID.
func makeMessageKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", messagePrefix, id))
}

// makeMessageConvKey generates a composite key for the per-conversation
// chronological index.
// Format: prefix:conversationID:sentAt:messageID
func makeMessageConvKey(conversationID core.ID, sentAt time.Time, messageID core.ID) []byte {
	prefix := messageConvPrefix + ":"
	buf := make([]byte, len(prefix)+24)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(conversationID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(sentAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(messageID))
	return buf
}

// makePartialMessageConvKey generates the prefix covering all index entries
// of one conversation.
func makePartialMessageConvKey(conversationID core.ID) []byte {
	prefix := messageConvPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(conversationID))
	return buf
}

// makeMessageWAKey generates an index key mapping a provider message id to a
// message ID.
func makeMessageWAKey(whatsappID string) []byte {
	return []byte(messageWAPrefix + ":" + whatsappID)
}

// makeDocumentKey generates a key for a knowledge document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeQueueKey generates a key for a queue entry by ID.
func makeQueueKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", queuePrefix, id))
}

// makeInteractionKey generates a key for an interaction log by ID.
func makeInteractionKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", interactionPrefix, id))
}

// makeInteractionConvKey generates a composite key for the per-conversation
// interaction index.
// Format: prefix:conversationID:interactionID
func makeInteractionConvKey(conversationID, interactionID core.ID) []byte {
	prefix := interactionConvPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(conversationID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(interactionID))
	return buf
}

// makePartialInteractionConvKey generates the prefix covering all interaction
// index entries of one conversation.
func makePartialInteractionConvKey(conversationID core.ID) []byte {
	prefix := interactionConvPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(conversationID))
	return buf
}
