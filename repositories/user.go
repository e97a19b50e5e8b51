package repositories

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	SaveProfile(profile Profile) error
	GetDisplayNames(userIDs []string) ([]Profile, error)
}

type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) UserRepository {
	return UserRepository{db: db, log: log}
}

// Profile is the storage-level representation of a user's display metadata.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u UserRepository) SaveProfile(profile Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return u.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("user:"+profile.ID), data)
	})
}

// GetDisplayNames resolves display metadata for a batch of user ids.
// Unknown ids are simply left out of the result: a missing profile is a
// tolerated condition, not an error, enrichment degrades to an empty name.
func (u UserRepository) GetDisplayNames(userIDs []string) ([]Profile, error) {
	var profiles []Profile
	err := u.db.View(func(txn *badger.Txn) error {
		for _, userID := range userIDs {
			item, err := txn.Get([]byte("user:" + userID))
			if err == badger.ErrKeyNotFound {
				u.log.Debug("No profile found", "user", userID)
				continue
			}
			if err != nil {
				return err
			}
			var profile Profile
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &profile)
			})
			if err != nil {
				return err
			}
			profiles = append(profiles, profile)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
