package service

import "errors"

// Error kinds reported by Service implementations. Match with errors.Is.
var (
	// ErrUnauthorized means the bearer token is missing, expired or revoked.
	ErrUnauthorized = errors.New("session expired or invalid")

	// ErrForbidden means the current user may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the addressed resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTimeout means the backend did not answer in time.
	ErrTimeout = errors.New("request timed out")
)
