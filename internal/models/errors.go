package models

import "errors"

var (
	ErrUnsupportedInput = errors.New("unsupported input")
	ErrAuthentication   = errors.New("authentication failed")
	ErrUnavailable      = errors.New("service unavailable")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoDocument       = errors.New("no document uploaded")
	ErrSessionNotFound  = errors.New("session not found")
)
