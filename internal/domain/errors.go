package domain

import "errors"

// Sentinel errors for the application.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrSessionNotFound      = errors.New("call session does not exist")
	ErrAuthenticationFailed = errors.New("authentication failed")
)
