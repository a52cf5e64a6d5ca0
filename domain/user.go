// Package domain contains core concepts of the chat system.
// This file defines User accounts.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

type User struct {
	ID           UserID    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser describes an account before the store assigns its id.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}

// UserQuery filters accounts by a case-insensitive substring of username or email.
type UserQuery struct {
	Q     string
	Skip  int
	Limit int
}
