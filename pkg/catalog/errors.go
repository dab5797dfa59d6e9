package catalog

import "errors"

// ErrConflict is returned (wrapped) by stores when a write hits a unique constraint.
// The normalizer treats it as retry-the-read.
var ErrConflict = errors.New("catalog: unique constraint violated")

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
