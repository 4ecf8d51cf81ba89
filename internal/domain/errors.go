package domain

import "errors"

// Error kinds returned by the store and services. Callers match them with
// errors.Is; the HTTP layer maps each kind to a status code.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnavailable       = errors.New("product unavailable")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)
