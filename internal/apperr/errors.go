package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrUnsupportedKind = errors.New("unsupported layer kind")
	ErrInFlight        = errors.New("operation already in progress")
)
