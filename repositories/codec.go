package repositories

import (
	"encoding/binary"
	"fmt"
	"nextext/domain"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// DiskMessage is the CBOR representation of a message value.
type DiskMessage struct {
	ID          int64  `cbor:"1,keyasint"`
	SenderID    int64  `cbor:"2,keyasint"`
	RecipientID int64  `cbor:"3,keyasint"`
	Content     string `cbor:"4,keyasint"`
	At          int64  `cbor:"5,keyasint"` // unix nano
}

// DiskUser is the CBOR representation of an account value.
type DiskUser struct {
	ID           int64  `cbor:"1,keyasint"`
	Username     string `cbor:"2,keyasint"`
	Email        string `cbor:"3,keyasint"`
	PasswordHash string `cbor:"4,keyasint"`
	IsActive     bool   `cbor:"5,keyasint"`
	CreatedAt    int64  `cbor:"6,keyasint"` // unix nano
}

// messageKey is formatted as "msg:{low_user}:{high_user}:{id}" with 19-digit padding,
// so a prefix scan over one conversation returns messages in id order.
func messageKey(a, b domain.UserID, id int64) []byte {
	return []byte(fmt.Sprintf("%s%019d", conversationPrefix(a, b), id))
}

func conversationPrefix(a, b domain.UserID) string {
	low, high := domain.Conversation(a, b)
	return fmt.Sprintf("msg:%019d:%019d:", low, high)
}

func userKey(id domain.UserID) []byte {
	return []byte(fmt.Sprintf("user:%019d", id))
}

func usernameKey(username string) []byte {
	return []byte("username:" + username)
}

func emailKey(email string) []byte {
	return []byte("email:" + email)
}

func encodeID(id domain.UserID) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func decodeID(b []byte) (domain.UserID, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid id index of %d bytes", len(b))
	}
	return domain.UserID(binary.BigEndian.Uint64(b)), nil
}

func fromMessage(m domain.Message) DiskMessage {
	return DiskMessage{
		ID:          m.ID,
		SenderID:    int64(m.SenderID),
		RecipientID: int64(m.RecipientID),
		Content:     m.Content,
		At:          m.Timestamp.UnixNano(),
	}
}

func toMessage(d DiskMessage) domain.Message {
	return domain.Message{
		ID:          d.ID,
		SenderID:    domain.UserID(d.SenderID),
		RecipientID: domain.UserID(d.RecipientID),
		Content:     d.Content,
		Timestamp:   time.Unix(0, d.At).UTC(),
	}
}

func fromUser(u domain.User) DiskUser {
	return DiskUser{
		ID:           int64(u.ID),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt.UnixNano(),
	}
}

func toUser(d DiskUser) domain.User {
	return domain.User{
		ID:           domain.UserID(d.ID),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		IsActive:     d.IsActive,
		CreatedAt:    time.Unix(0, d.CreatedAt).UTC(),
	}
}

func encode(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func decode(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// DecodeMessage exposes the value format to inspection tools.
func DecodeMessage(data []byte) (domain.Message, error) {
	var d DiskMessage
	if err := decode(data, &d); err != nil {
		return domain.Message{}, err
	}
	return toMessage(d), nil
}

// DecodeUser exposes the account value format to inspection tools.
func DecodeUser(data []byte) (domain.User, error) {
	var d DiskUser
	if err := decode(data, &d); err != nil {
		return domain.User{}, err
	}
	return toUser(d), nil
}
