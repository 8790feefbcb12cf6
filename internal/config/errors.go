package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// NewInvalidConfigError wraps ErrInvalidConfig with detail.
func NewInvalidConfigError(detail string) error {
	return fmt.Errorf("%s: %w", detail, ErrInvalidConfig)
}
