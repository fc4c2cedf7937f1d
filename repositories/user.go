package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-direct/domain"
	"chat-direct/errors"
)

const (
	userKeyPrefix     = "user:"
	emailKeyPrefix    = "email:"
	usernameKeyPrefix = "uname:"
)

type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) UserRepository {
	return UserRepository{db: db, log: log}
}

// CreateUser persists a new account together with its unique email and
// username indexes. The whole write is one transaction: either the
// record and both indexes land, or nothing does.
func (u UserRepository) CreateUser(username, email, hashedPassword, avatarURL string) (domain.User, error) {
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		AvatarURL:    avatarURL,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(emailKeyPrefix + email)
		if _, err := txn.Get(emailKey); err == nil {
			return errors.ErrEmailTaken
		}
		usernameKey := []byte(usernameKeyPrefix + username)
		if _, err := txn.Get(usernameKey); err == nil {
			return errors.ErrUsernameTaken
		}

		if err := txn.Set([]byte(userKeyPrefix+user.ID), data); err != nil {
			return err
		}
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(usernameKey, []byte(user.ID))
	})
	if err != nil {
		return domain.User{}, err
	}

	return user, nil
}

// GetUserByEmail resolves the email index and loads the account record.
func (u UserRepository) GetUserByEmail(email string) (domain.User, error) {
	var id string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(emailKeyPrefix + email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return domain.User{}, errors.ErrUserNotFound
	}
	return u.GetUserByID(id)
}

func (u UserRepository) GetUserByID(id string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKeyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return domain.User{}, errors.ErrUserNotFound
	}
	return user, nil
}

// ListOthers returns the public projection of every account except the
// given one, sorted by username, so a freshly connected client can
// rebuild presence from current state instead of event history.
func (u UserRepository) ListOthers(excludeID string) ([]domain.PublicUser, error) {
	var users []domain.PublicUser
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var user domain.User
				if err := json.Unmarshal(val, &user); err != nil {
					return err
				}
				if user.ID != excludeID {
					users = append(users, user.Public())
				}
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

	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// SetOnline flips the persisted online flag of one account.
// Called by the connection lifecycle on register and deregister.
func (u UserRepository) SetOnline(id string, online bool) error {
	return u.db.Update(func(txn *badger.Txn) error {
		key := []byte(userKeyPrefix + id)
		item, err := txn.Get(key)
		if err != nil {
			return errors.ErrUserNotFound
		}

		var user domain.User
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		}); err != nil {
			return err
		}

		user.IsOnline = online
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}
