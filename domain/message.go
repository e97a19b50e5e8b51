// Package domain contains the core concepts of the chat system.
// This file defines Message shapes and the wire envelopes pushed to clients.
// Messages are immutable once enriched.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoomKind discriminates two-party rooms from group rooms.
type RoomKind string

const (
	// KindDirect is a two-party room carrying a latest-message denormalization.
	KindDirect RoomKind = "individual"
	// KindGroup is a plain multi-party room.
	KindGroup RoomKind = "collection"
)

// Valid reports whether the kind is one of the known room kinds.
func (k RoomKind) Valid() bool {
	return k == KindDirect || k == KindGroup
}

// DirectValidation is the member pair of a direct room, checked when the
// latest-message denormalization is updated.
type DirectValidation struct {
	User1 string `json:"user1"`
	User2 string `json:"user2"`
}

// Message is a raw chat message as received from a client or from storage,
// before display metadata has been resolved.
type Message struct {
	ID                      uuid.UUID `json:"id"`
	AuthorID                string    `json:"uuid"`
	Text                    string    `json:"message"`
	ClientGeneratedID       string    `json:"client_generated_uuid"`
	Kind                    string    `json:"message_kind"`
	ParentClientGeneratedID string    `json:"parent_client_generated_uuid,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
}

// EnrichedMessage is a Message decorated with denormalized display metadata.
// The parent_* fields are pointers so a message without a reply parent
// serializes with those fields absent, not as empty strings.
type EnrichedMessage struct {
	Message
	AuthorDisplayName       string  `json:"username"`
	AuthorImageURL          string  `json:"image"`
	ParentText              *string `json:"parent_message_text,omitempty"`
	ParentAuthorDisplayName *string `json:"parent_message_author_username,omitempty"`
	ParentAuthorID          *string `json:"parent_message_author_uuid,omitempty"`
}

// ChatMessagesType is the envelope type for both the history batch sent on
// join and every single-message broadcast.
const ChatMessagesType = "chat_messages"

// Envelope is the frame pushed to connected members.
type Envelope struct {
	Type    string          `json:"type"`
	Payload MessagesPayload `json:"payload"`
}

type MessagesPayload struct {
	Messages []EnrichedMessage `json:"messages"`
	Kind     RoomKind          `json:"type"`
	Room     string            `json:"room"`
}

// NewBatch wraps enriched messages in the wire envelope for a room.
func NewBatch(room string, kind RoomKind, messages []EnrichedMessage) Envelope {
	return Envelope{
		Type:    ChatMessagesType,
		Payload: MessagesPayload{Messages: messages, Kind: kind, Room: room},
	}
}

// QueueEntryType tags notification queue payloads.
const QueueEntryType = "message"

// QueueEntry is the minimal reference pushed to the notification queue after
// a post. The downstream consumer looks up full content independently.
type QueueEntry struct {
	Kind              RoomKind `json:"type"`
	Room              string   `json:"room"`
	ClientGeneratedID string   `json:"client_generated_uuid"`
}
