package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrDuplicate reports that the user already holds a confirmed booking.
	ErrDuplicate = errors.New("user already has a confirmed booking")
)
