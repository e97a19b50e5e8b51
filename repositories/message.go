package repositories

import (
	"chat-relay/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(room string, kind domain.RoomKind) ([]DiskMessage, error)
	GetMessagesByParentIDs(room string, kind domain.RoomKind, parentIDs []string) ([]DiskMessage, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// DiskMessage is the storage-level representation of a chat message.
type DiskMessage struct {
	ID             uuid.UUID       `json:"id"`
	Room           string          `json:"room"`
	Kind           domain.RoomKind `json:"kind"`
	Author         string          `json:"author"`
	Content        string          `json:"content"`
	ContentKind    string          `json:"content_kind"`
	ClientID       string          `json:"client_id"`
	ParentClientID string          `json:"parent_client_id,omitempty"`
	At             time.Time       `json:"at"`
}

// StoreMessage persists a message in BadgerDB under two keys:
//  1. "msg:{room}:{timestamp_padded}:{uuid}" — the 19-digit zero padding makes
//     lexicographical order equal chronological order, and the UUID suffix
//     disambiguates two messages landing on the same nanosecond.
//  2. "cid:{room}:{client_id}" — a secondary index so reply parents can be
//     resolved by their client generated id in a single point lookup.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	primary := fmt.Sprintf("msg:%s:%019d:%s",
		message.Room,
		message.At.UnixNano(),
		message.ID,
	)
	secondary := fmt.Sprintf("cid:%s:%s", message.Room, message.ClientID)
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(primary), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(secondary), bytes)
	})
}

// GetMessages retrieves the most recent messages of a room in ascending
// creation order. It scans the padded-timestamp keys backwards, stops once
// the configured limit is reached, then reverses the collected slice so the
// caller always sees oldest first. Ties on the same nanosecond keep the key
// order of the store, no re-sort is applied.
func (m MessageRepository) GetMessages(room string, kind domain.RoomKind) ([]DiskMessage, error) {
	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", room)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible timestamp, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, value)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Collected newest first, callers expect oldest first.
	diskMessages := make([]DiskMessage, 0, len(byteMessages))
	for i := len(byteMessages) - 1; i >= 0; i-- {
		var message DiskMessage
		if err = json.Unmarshal(byteMessages[i], &message); err != nil {
			return nil, err
		}
		if message.Kind != kind {
			m.log.Debug(fmt.Sprintf("Skipping message %s of kind %s in room %s", message.ID, message.Kind, room))
			continue
		}
		diskMessages = append(diskMessages, message)
	}
	return diskMessages, nil
}

// GetMessagesByParentIDs resolves reply parents by client generated id using
// the secondary index. Ids with no stored message are silently skipped, the
// caller treats them as unresolved.
func (m MessageRepository) GetMessagesByParentIDs(room string, kind domain.RoomKind, parentIDs []string) ([]DiskMessage, error) {
	var parents []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		for _, parentID := range parentIDs {
			item, err := txn.Get([]byte(fmt.Sprintf("cid:%s:%s", room, parentID)))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			var message DiskMessage
			err = item.Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			})
			if err != nil {
				return err
			}
			if message.Kind != kind {
				continue
			}
			parents = append(parents, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parents, nil
}
