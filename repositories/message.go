package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"nextext/domain"
	"nextext/errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	messageSequenceKey = "seq:message"
	sequenceBandwidth  = 100
)

// MessageRepository is the badger-backed message gateway.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
	seq *badger.Sequence
	now func() time.Time

	mu   sync.Mutex // serializes id and timestamp assignment
	last time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte(messageSequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, log: log, seq: seq, now: time.Now}, nil
}

// Close releases the unused part of the leased id range.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

// Create stores a message in a single transaction and returns it with its id and timestamp.
// Ids strictly increase and timestamps never go backwards in id order, even if the wall clock does.
// Both participants must exist.
func (m *MessageRepository) Create(ctx context.Context, sender, recipient domain.UserID, content string) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}

	msg, err := m.allocate(sender, recipient, content)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}

	data, err := encode(fromMessage(msg))
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		for _, participant := range []domain.UserID{sender, recipient} {
			if _, err := txn.Get(userKey(participant)); err != nil {
				if err == badger.ErrKeyNotFound {
					return fmt.Errorf("%w: %d", errors.ErrUserNotFound, participant)
				}
				return err
			}
		}
		return txn.Set(messageKey(sender, recipient, msg.ID), data)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}

	m.log.Debug("Message stored", "message_id", msg.ID, "sender_id", sender, "recipient_id", recipient)
	return msg, nil
}

func (m *MessageRepository) allocate(sender, recipient domain.UserID, content string) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, err
	}
	at := m.now().UTC()
	if at.Before(m.last) {
		at = m.last
	}
	m.last = at

	return domain.Message{
		// Badger sequences start at zero
		ID:          int64(next) + 1,
		SenderID:    sender,
		RecipientID: recipient,
		Content:     content,
		Timestamp:   at,
	}, nil
}

// ListBetween returns the conversation between a and b in both directions, oldest first.
// Messages share one key prefix per pair, so the scan is already in id (and timestamp) order.
func (m *MessageRepository) ListBetween(ctx context.Context, a, b domain.UserID) ([]domain.Message, error) {
	messages := make([]domain.Message, 0)
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(conversationPrefix(a, b))
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(value []byte) error {
				var d DiskMessage
				if err := decode(value, &d); err != nil {
					return err
				}
				messages = append(messages, toMessage(d))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	return messages, nil
}
