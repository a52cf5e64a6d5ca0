package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"nextext/domain"
	"nextext/errors"
	"time"
)

// MessageRepository is the SQL message gateway.
type MessageRepository struct {
	store *Store
}

// Create inserts a message in a single transaction. Both participants must exist.
func (m *MessageRepository) Create(ctx context.Context, sender, recipient domain.UserID, content string) (domain.Message, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now().UTC()
	if at.Before(s.last) {
		at = s.last
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	defer tx.Rollback()

	for _, participant := range []domain.UserID{sender, recipient} {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", int64(participant)).Scan(&exists)
		if err == sql.ErrNoRows {
			return domain.Message{}, fmt.Errorf("%w: %w: %d", errors.ErrPersistence, errors.ErrUserNotFound, participant)
		}
		if err != nil {
			return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
		}
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO messages (sender_id, recipient_id, content, timestamp_ns) VALUES (?, ?, ?, ?)",
		int64(sender), int64(recipient), content, at.UnixNano())
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	s.last = at

	return domain.Message{
		ID:          id,
		SenderID:    sender,
		RecipientID: recipient,
		Content:     content,
		Timestamp:   at,
	}, nil
}

func (m *MessageRepository) ListBetween(ctx context.Context, a, b domain.UserID) ([]domain.Message, error) {
	rows, err := m.store.db.QueryContext(ctx, `
		SELECT id, sender_id, recipient_id, content, timestamp_ns FROM messages
		WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
		ORDER BY timestamp_ns, id`,
		int64(a), int64(b), int64(b), int64(a))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var msg domain.Message
		var sender, recipient, ns int64
		if err := rows.Scan(&msg.ID, &sender, &recipient, &msg.Content, &ns); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
		}
		msg.SenderID = domain.UserID(sender)
		msg.RecipientID = domain.UserID(recipient)
		msg.Timestamp = time.Unix(0, ns).UTC()
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	return messages, nil
}
