package domain

import "errors"

// Token validation errors
var (
	ErrTokenMalformed = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenRevoked   = errors.New("token has been revoked")
	ErrUnknownUser    = errors.New("user not found")
)

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
)

// Password reset errors
var (
	ErrResetTokenInvalid = errors.New("invalid or already used reset token")
	ErrResetTokenExpired = errors.New("reset token has expired")
)

// Conversation errors
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationExists   = errors.New("conversation already exists")
)
