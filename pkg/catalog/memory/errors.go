package memory

import (
	"errors"

	"github.com/Ramsey-B/kodi/pkg/catalog"
)

var (
	ErrUniqueViolation = catalog.ErrConflict
	// ErrCheckViolation mirrors the min <= max check constraints of the SQL schema.
	ErrCheckViolation = errors.New("memory store: check constraint violated")
)
