// Package domain contains core concepts of the chat system.
// This file defines Message records and related rules.
// Messages are immutable: only the persistence gateway creates them, nobody edits them.
package domain

import (
	"strconv"
	"time"
)

// UserID is the stable identifier of an account.
type UserID int64

func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Message is a stored chat message exchanged between exactly two users.
// ID and Timestamp are assigned by the store at creation time.
type Message struct {
	ID          int64     `json:"id"`
	SenderID    UserID    `json:"sender_id"`
	RecipientID UserID    `json:"recipient_id"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

// Involves reports whether the user is one of the two participants.
func (m Message) Involves(user UserID) bool {
	return m.SenderID == user || m.RecipientID == user
}

// Conversation returns the unordered pair of participants, lowest id first.
func Conversation(a, b UserID) (UserID, UserID) {
	if a <= b {
		return a, b
	}
	return b, a
}
