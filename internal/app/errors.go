package service

import (
	"errors"
	"fmt"
)

// ErrInvalidInput signals a malformed request: unknown role, empty player
// id or an out-of-range match context. Fatal to the request, returned to
// the caller.
var ErrInvalidInput = errors.New("invalid input")

// NewInvalidInputError wraps ErrInvalidInput with detail.
func NewInvalidInputError(detail string) error {
	return fmt.Errorf("%s: %w", detail, ErrInvalidInput)
}
