package core

import (
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the stored domain types. Field order is
// part of the storage format; append new fields at the end and never reorder.

// IDMUS serializes IDs.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

// Timestamps are stored as UnixMicro with a validity flag so the zero
// time.Time survives a round trip.

func marshalTime(v time.Time, bs []byte) (n int) {
	n = ord.Bool.Marshal(!v.IsZero(), bs)
	if !v.IsZero() {
		n += varint.Int64.Marshal(v.UnixMicro(), bs[n:])
	}
	return n
}

func unmarshalTime(bs []byte) (v time.Time, n int, err error) {
	valid, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !valid {
		return time.Time{}, n, err
	}
	micro, n1, err := varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micro).UTC(), n, nil
}

func sizeTime(v time.Time) (size int) {
	size = ord.Bool.Size(!v.IsZero())
	if !v.IsZero() {
		size += varint.Int64.Size(v.UnixMicro())
	}
	return size
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		bits, n1, err := varint.Uint32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v[i] = math.Float32frombits(bits)
	}
	return v, n, nil
}

func sizeVector(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

func marshalIDSlice(v []ID, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, id := range v {
		n += IDMUS.Marshal(id, bs[n:])
	}
	return n
}

func unmarshalIDSlice(bs []byte) (v []ID, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]ID, length)
	for i := 0; i < length; i++ {
		id, n1, err := IDMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v[i] = id
	}
	return v, n, nil
}

func sizeIDSlice(v []ID) (size int) {
	size = varint.Int.Size(len(v))
	for _, id := range v {
		size += IDMUS.Size(id)
	}
	return size
}

func marshalStringMap(v map[string]string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for key, value := range v {
		n += ord.String.Marshal(key, bs[n:])
		n += ord.String.Marshal(value, bs[n:])
	}
	return n
}

func unmarshalStringMap(bs []byte) (v map[string]string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make(map[string]string, length)
	for i := 0; i < length; i++ {
		key, n1, err := ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		value, n2, err := ord.String.Unmarshal(bs[n:])
		n += n2
		if err != nil {
			return nil, n, err
		}
		v[key] = value
	}
	return v, n, nil
}

func sizeStringMap(v map[string]string) (size int) {
	size = varint.Int.Size(len(v))
	for key, value := range v {
		size += ord.String.Size(key)
		size += ord.String.Size(value)
	}
	return size
}

// BrokerMUS serializes Brokers.
var BrokerMUS = brokerMUS{}

type brokerMUS struct{}

func (brokerMUS) Marshal(v Broker, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ord.String.Marshal(v.Email, bs[n:])
	n += ord.String.Marshal(v.Phone, bs[n:])
	n += ord.String.Marshal(v.WhatsAppNumber, bs[n:])
	n += ord.Bool.Marshal(v.Active, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (brokerMUS) Unmarshal(bs []byte) (v Broker, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Email, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Phone, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.WhatsAppNumber, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Active, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (brokerMUS) Size(v Broker) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Name)
	size += ord.String.Size(v.Email)
	size += ord.String.Size(v.Phone)
	size += ord.String.Size(v.WhatsAppNumber)
	size += ord.Bool.Size(v.Active)
	size += sizeTime(v.CreatedAt)
	return size
}

// PropertyMUS serializes Properties.
var PropertyMUS = propertyMUS{}

type propertyMUS struct{}

func (propertyMUS) Marshal(v Property, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.BrokerId, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += ord.String.Marshal(v.Address, bs[n:])
	n += varint.Uint64.Marshal(math.Float64bits(v.Price), bs[n:])
	n += varint.Int.Marshal(v.Bedrooms, bs[n:])
	n += varint.Int.Marshal(v.Bathrooms, bs[n:])
	n += varint.Int.Marshal(v.SquareFeet, bs[n:])
	n += ord.String.Marshal(v.PropertyType, bs[n:])
	n += ord.String.Marshal(v.Status, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (propertyMUS) Unmarshal(bs []byte) (v Property, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.BrokerId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Description, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Address, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var bits uint64
	if bits, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Price = math.Float64frombits(bits)
	n += n1
	if v.Bedrooms, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Bathrooms, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SquareFeet, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.PropertyType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Status, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (propertyMUS) Size(v Property) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.BrokerId)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Description)
	size += ord.String.Size(v.Address)
	size += varint.Uint64.Size(math.Float64bits(v.Price))
	size += varint.Int.Size(v.Bedrooms)
	size += varint.Int.Size(v.Bathrooms)
	size += varint.Int.Size(v.SquareFeet)
	size += ord.String.Size(v.PropertyType)
	size += ord.String.Size(v.Status)
	size += sizeTime(v.CreatedAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

// ConversationMUS serializes Conversations.
var ConversationMUS = conversationMUS{}

type conversationMUS struct{}

func (conversationMUS) Marshal(v Conversation, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.BrokerId, bs[n:])
	n += IDMUS.Marshal(v.PropertyId, bs[n:])
	n += ord.String.Marshal(v.ClientPhone, bs[n:])
	n += ord.String.Marshal(v.ClientName, bs[n:])
	n += ord.String.Marshal(string(v.Status), bs[n:])
	n += marshalTime(v.LastMessageAt, bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	n += marshalStringMap(v.Metadata, bs[n:])
	return n
}

func (conversationMUS) Unmarshal(bs []byte) (v Conversation, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.BrokerId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.PropertyId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ClientPhone, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ClientName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var status string
	if status, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Status = ConversationStatus(status)
	n += n1
	if v.LastMessageAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Metadata, n1, err = unmarshalStringMap(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (conversationMUS) Size(v Conversation) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.BrokerId)
	size += IDMUS.Size(v.PropertyId)
	size += ord.String.Size(v.ClientPhone)
	size += ord.String.Size(v.ClientName)
	size += ord.String.Size(string(v.Status))
	size += sizeTime(v.LastMessageAt)
	size += sizeTime(v.CreatedAt)
	size += sizeStringMap(v.Metadata)
	return size
}

// MessageMUS serializes Messages.
var MessageMUS = messageMUS{}

type messageMUS struct{}

func (messageMUS) Marshal(v Message, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.ConversationId, bs[n:])
	n += IDMUS.Marshal(v.BrokerId, bs[n:])
	n += ord.String.Marshal(string(v.Direction), bs[n:])
	n += ord.String.Marshal(string(v.Type), bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += ord.String.Marshal(v.MediaURL, bs[n:])
	n += ord.String.Marshal(v.WhatsAppMessageId, bs[n:])
	n += ord.String.Marshal(string(v.Status), bs[n:])
	n += ord.Bool.Marshal(v.IsFromAgent, bs[n:])
	n += marshalStringMap(v.Metadata, bs[n:])
	n += marshalTime(v.SentAt, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (messageMUS) Unmarshal(bs []byte) (v Message, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.ConversationId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.BrokerId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var s string
	if s, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Direction = MessageDirection(s)
	n += n1
	if s, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Type = MessageType(s)
	n += n1
	if v.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.MediaURL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.WhatsAppMessageId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if s, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Status = DeliveryStatus(s)
	n += n1
	if v.IsFromAgent, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Metadata, n1, err = unmarshalStringMap(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.SentAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (messageMUS) Size(v Message) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.ConversationId)
	size += IDMUS.Size(v.BrokerId)
	size += ord.String.Size(string(v.Direction))
	size += ord.String.Size(string(v.Type))
	size += ord.String.Size(v.Content)
	size += ord.String.Size(v.MediaURL)
	size += ord.String.Size(v.WhatsAppMessageId)
	size += ord.String.Size(string(v.Status))
	size += ord.Bool.Size(v.IsFromAgent)
	size += sizeStringMap(v.Metadata)
	size += sizeTime(v.SentAt)
	size += sizeTime(v.InsertedAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

// KnowledgeDocumentMUS serializes KnowledgeDocuments.
var KnowledgeDocumentMUS = knowledgeDocumentMUS{}

type knowledgeDocumentMUS struct{}

func (knowledgeDocumentMUS) Marshal(v KnowledgeDocument, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.BrokerId, bs[n:])
	n += IDMUS.Marshal(v.PropertyId, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.FileType, bs[n:])
	n += varint.Int64.Marshal(v.FileSize, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += marshalVector(v.Vector, bs[n:])
	n += marshalTime(v.UploadedAt, bs[n:])
	return n
}

func (knowledgeDocumentMUS) Unmarshal(bs []byte) (v KnowledgeDocument, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.BrokerId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.PropertyId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.FileType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.FileSize, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Vector, n1, err = unmarshalVector(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.UploadedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (knowledgeDocumentMUS) Size(v KnowledgeDocument) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.BrokerId)
	size += IDMUS.Size(v.PropertyId)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.FileType)
	size += varint.Int64.Size(v.FileSize)
	size += ord.String.Size(v.Content)
	size += sizeVector(v.Vector)
	size += sizeTime(v.UploadedAt)
	return size
}

// QueueEntryMUS serializes QueueEntries.
var QueueEntryMUS = queueEntryMUS{}

type queueEntryMUS struct{}

func (queueEntryMUS) Marshal(v QueueEntry, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.ConversationId, bs[n:])
	n += IDMUS.Marshal(v.MessageId, bs[n:])
	n += varint.Int.Marshal(v.Priority, bs[n:])
	n += ord.String.Marshal(string(v.Status), bs[n:])
	n += varint.Int.Marshal(v.RetryCount, bs[n:])
	n += ord.String.Marshal(v.ErrorMessage, bs[n:])
	n += marshalTime(v.EnqueuedAt, bs[n:])
	n += marshalTime(v.StartedAt, bs[n:])
	n += marshalTime(v.CompletedAt, bs[n:])
	return n
}

func (queueEntryMUS) Unmarshal(bs []byte) (v QueueEntry, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.ConversationId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.MessageId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Priority, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var status string
	if status, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Status = QueueStatus(status)
	n += n1
	if v.RetryCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ErrorMessage, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.EnqueuedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.StartedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CompletedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (queueEntryMUS) Size(v QueueEntry) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.ConversationId)
	size += IDMUS.Size(v.MessageId)
	size += varint.Int.Size(v.Priority)
	size += ord.String.Size(string(v.Status))
	size += varint.Int.Size(v.RetryCount)
	size += ord.String.Size(v.ErrorMessage)
	size += sizeTime(v.EnqueuedAt)
	size += sizeTime(v.StartedAt)
	size += sizeTime(v.CompletedAt)
	return size
}

// InteractionLogMUS serializes InteractionLogs.
var InteractionLogMUS = interactionLogMUS{}

type interactionLogMUS struct{}

func (interactionLogMUS) Marshal(v InteractionLog, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.ConversationId, bs[n:])
	n += IDMUS.Marshal(v.MessageId, bs[n:])
	n += ord.String.Marshal(v.Query, bs[n:])
	n += marshalIDSlice(v.RetrievedDocuments, bs[n:])
	n += ord.String.Marshal(v.Response, bs[n:])
	n += varint.Uint32.Marshal(math.Float32bits(v.Confidence), bs[n:])
	n += varint.Int64.Marshal(int64(v.ProcessingTime), bs[n:])
	n += marshalTime(v.CreatedAt, bs[n:])
	return n
}

func (interactionLogMUS) Unmarshal(bs []byte) (v InteractionLog, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.ConversationId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.MessageId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Query, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.RetrievedDocuments, n1, err = unmarshalIDSlice(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Response, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var bits uint32
	if bits, n1, err = varint.Uint32.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.Confidence = math.Float32frombits(bits)
	n += n1
	var dur int64
	if dur, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	v.ProcessingTime = time.Duration(dur)
	n += n1
	if v.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	return v, n, nil
}

func (interactionLogMUS) Size(v InteractionLog) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.ConversationId)
	size += IDMUS.Size(v.MessageId)
	size += ord.String.Size(v.Query)
	size += sizeIDSlice(v.RetrievedDocuments)
	size += ord.String.Size(v.Response)
	size += varint.Uint32.Size(math.Float32bits(v.Confidence))
	size += varint.Int64.Size(int64(v.ProcessingTime))
	size += sizeTime(v.CreatedAt)
	return size
}
