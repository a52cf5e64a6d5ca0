package errors

import "fmt"

var (
	ErrWorkerPanic   = fmt.Errorf("worker panic")
	ErrEmptyWords    = fmt.Errorf("no words have been found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Handshake and identity
	ErrMissingToken       = fmt.Errorf("authorization token is missing")
	ErrInvalidToken       = fmt.Errorf("invalid token")
	ErrTokenExpired       = fmt.Errorf("token has expired")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidCredentials = fmt.Errorf("incorrect username or password")
	ErrInactiveUser       = fmt.Errorf("inactive user")

	// Accounts
	ErrUserAlreadyExists = fmt.Errorf("username or email already registered")
	ErrUserNotFound      = fmt.Errorf("user not found")
	ErrInvalidUser       = fmt.Errorf("invalid user payload")
	ErrInvalidPassword   = fmt.Errorf("invalid password")
	ErrInvalidPagination = fmt.Errorf("invalid pagination")

	// Messaging pipeline
	ErrInvalidFrame     = fmt.Errorf("invalid frame")
	ErrPersistence      = fmt.Errorf("message persistence failed")
	ErrDelivery         = fmt.Errorf("message delivery failed")
	ErrConnectionClosed = fmt.Errorf("connection closed")
)
