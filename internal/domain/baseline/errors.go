package baseline

import (
	"errors"
	"fmt"

	"github.com/okian/trundler/internal/domain/model"
)

// Sentinel kinds for baseline errors.
var (
	ErrMissingRole = errors.New("baseline table missing role")
)

// NewMissingRoleError wraps ErrMissingRole with the offending role.
func NewMissingRoleError(role model.Role) error {
	return fmt.Errorf("%w: %s", ErrMissingRole, role)
}
