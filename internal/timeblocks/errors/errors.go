package errors

import "errors"

var (
	ErrNotFound = errors.New("time block not found")

	ErrInvalidID = errors.New("invalid time block ID format")
)
