package source

import (
	"errors"
	"fmt"
)

// ErrNoData signals that a fetch failed and no cached snapshot exists for
// the key. The engine treats the source as absent and renormalizes.
var ErrNoData = errors.New("no data available for source/player key")

// ErrSourceUnavailable signals a transient upstream failure. Providers wrap
// it so the store knows the failure is retryable.
var ErrSourceUnavailable = errors.New("source unavailable")

// newFetchError wraps the final fetch failure with attempt context.
func newFetchError(sourceID, playerID string, attempts int, cause error) error {
	return fmt.Errorf("fetch %s/%s failed after %d attempts: %w", sourceID, playerID, attempts, cause)
}
