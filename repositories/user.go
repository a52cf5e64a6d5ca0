package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"nextext/domain"
	"nextext/errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const userSequenceKey = "seq:user"

// UserRepository stores accounts in badger.
// Records live under "user:{id}", with "username:" and "email:" keys indexing ids.
type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
	seq *badger.Sequence
}

func NewUserRepository(db *badger.DB, log *slog.Logger) (*UserRepository, error) {
	seq, err := db.GetSequence([]byte(userSequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("user sequence: %w", err)
	}
	return &UserRepository{db: db, log: log, seq: seq}, nil
}

func (u *UserRepository) Close() error {
	return u.seq.Release()
}

// Create persists a new active account. Usernames are unique as typed, emails case-insensitively.
func (u *UserRepository) Create(ctx context.Context, newUser domain.NewUser) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	next, err := u.seq.Next()
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	user := domain.User{
		ID:           domain.UserID(next + 1),
		Username:     newUser.Username,
		Email:        strings.ToLower(newUser.Email),
		PasswordHash: newUser.PasswordHash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := encode(fromUser(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		for _, key := range [][]byte{usernameKey(user.Username), emailKey(user.Email)} {
			if _, err := txn.Get(key); err == nil {
				return errors.ErrUserAlreadyExists
			} else if err != badger.ErrKeyNotFound {
				return err
			}
		}
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		if err := txn.Set(usernameKey(user.Username), encodeID(user.ID)); err != nil {
			return err
		}
		return txn.Set(emailKey(user.Email), encodeID(user.ID))
	})
	switch {
	case err == nil:
		u.log.Debug("User created", "user_id", user.ID, "username", user.Username)
		return user, nil
	case err == errors.ErrUserAlreadyExists, err == badger.ErrConflict:
		// a concurrent registration with the same keys lost the race
		return domain.User{}, errors.ErrUserAlreadyExists
	default:
		return domain.User{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
}

func (u *UserRepository) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = readUser(txn, id)
		return err
	})
	return user, err
}

func (u *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if err == badger.ErrKeyNotFound {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id, err := decodeID(raw)
		if err != nil {
			return err
		}
		user, err = readUser(txn, id)
		return err
	})
	return user, err
}

// Search scans accounts in id order, keeping those whose username or email contains query.Q.
func (u *UserRepository) Search(ctx context.Context, query domain.UserQuery) ([]domain.User, error) {
	needle := strings.ToLower(query.Q)
	users := make([]domain.User, 0)
	skipped := 0

	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if query.Limit > 0 && len(users) == query.Limit {
				break
			}
			var d DiskUser
			if err := it.Item().Value(func(value []byte) error {
				return decode(value, &d)
			}); err != nil {
				return err
			}
			if !strings.Contains(strings.ToLower(d.Username), needle) &&
				!strings.Contains(strings.ToLower(d.Email), needle) {
				continue
			}
			if skipped < query.Skip {
				skipped++
				continue
			}
			users = append(users, toUser(d))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	return users, nil
}

func readUser(txn *badger.Txn, id domain.UserID) (domain.User, error) {
	item, err := txn.Get(userKey(id))
	if err == badger.ErrKeyNotFound {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	var d DiskUser
	if err = item.Value(func(value []byte) error {
		return decode(value, &d)
	}); err != nil {
		return domain.User{}, err
	}
	return toUser(d), nil
}
