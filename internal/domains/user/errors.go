package user

import "errors"

// Repository-level errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Service-level (business logic) errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotVerified    = errors.New("email address not verified")
	ErrUnauthorized       = errors.New("unauthorized access")
)
