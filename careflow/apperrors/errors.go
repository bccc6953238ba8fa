package apperrors

import "errors"

// Common errors shared across controllers, DAOs and services.
var (
	ErrUnauthorized  = errors.New("session does not belong to user")
	ErrNotFound      = errors.New("not found")
	ErrEngineFailure = errors.New("engine unavailable")
	ErrValidation    = errors.New("invalid input")
	ErrDelivery      = errors.New("delivery failed")
)
