package errors

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	ErrInvalidID = errors.New("invalid user ID format")

	// ErrDuplicate reports an email or intern ID already taken by another user.
	ErrDuplicate = errors.New("email or intern ID already in use")
)
