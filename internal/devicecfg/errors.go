package devicecfg

import (
	"errors"

	"confd/internal/funckey"
)

// IsInconsistent reports whether err means the device data itself is broken,
// as opposed to a transient read failure.
func IsInconsistent(err error) bool {
	return errors.Is(err, ErrInconsistent) ||
		errors.Is(err, ErrSectionCollision) ||
		errors.Is(err, funckey.ErrUnknownDestination)
}
