package aggregate

import (
	"errors"
	"fmt"

	"github.com/okian/trundler/internal/domain/model"
)

// ErrInsufficientData signals that no tier contributed to any metric of the
// requested group. Callers fall back to role baselines on this error.
var ErrInsufficientData = errors.New("no source contributed data for metric group")

// ErrInvalidWeights signals a tier scheme whose weights are not positive or
// do not sum to 1.
var ErrInvalidWeights = errors.New("tier weights must be positive and sum to 1.0")

// ErrUnknownGroup signals an aggregation request for a group with no
// configured tiers.
var ErrUnknownGroup = errors.New("no tiers configured for metric group")

// NewWeightError wraps ErrInvalidWeights with the offending group and sum.
func NewWeightError(group model.MetricGroup, sum float64) error {
	return fmt.Errorf("group %q (sum %.12f): %w", group, sum, ErrInvalidWeights)
}

// NewUnknownGroupError wraps ErrUnknownGroup with the offending group.
func NewUnknownGroupError(group model.MetricGroup) error {
	return fmt.Errorf("group %q: %w", group, ErrUnknownGroup)
}
