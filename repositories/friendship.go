package repositories

import (
	"chat-relay/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IFriendshipRepository interface {
	UpdateLatestMessage(room int, text, authorID string, validation *domain.DirectValidation, clientGeneratedID string) error
}

// FriendshipRepository maintains the denormalized latest-message record of a
// direct room, used by list views outside this service.
type FriendshipRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewFriendshipRepository(db *badger.DB, log *slog.Logger) FriendshipRepository {
	return FriendshipRepository{db: db, log: log}
}

// LatestMessage is the stored denormalization row.
type LatestMessage struct {
	Room              int       `json:"room"`
	Text              string    `json:"text"`
	AuthorID          string    `json:"author_id"`
	User1             string    `json:"user1,omitempty"`
	User2             string    `json:"user2,omitempty"`
	ClientGeneratedID string    `json:"client_generated_id"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UpdateLatestMessage overwrites the latest-message row of a direct room.
// The validation pair travels with the row so readers can check membership
// without a join. The author must be one of the pair when a pair is known.
func (f FriendshipRepository) UpdateLatestMessage(room int, text, authorID string, validation *domain.DirectValidation, clientGeneratedID string) error {
	row := LatestMessage{
		Room:              room,
		Text:              text,
		AuthorID:          authorID,
		ClientGeneratedID: clientGeneratedID,
		UpdatedAt:         time.Now().UTC(),
	}
	if validation != nil {
		if authorID != validation.User1 && authorID != validation.User2 {
			return fmt.Errorf("author %s is not part of direct room %d", authorID, room)
		}
		row.User1 = validation.User1
		row.User2 = validation.User2
	}
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return f.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(fmt.Sprintf("friendship:%d", room)), data)
	})
}

// GetLatestMessage reads the denormalization row back, mainly for tooling
// and tests.
func (f FriendshipRepository) GetLatestMessage(room int) (LatestMessage, error) {
	var row LatestMessage
	err := f.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(fmt.Sprintf("friendship:%d", room)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &row)
		})
	})
	return row, err
}
