package services

import "errors"

var (
	// ErrNotFound covers absent and expired users as well as absent messages.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks malformed client input.
	ErrValidation = errors.New("validation error")

	// ErrConflict is returned when a username is taken and uniqueness is enforced.
	ErrConflict = errors.New("already exists")
)
