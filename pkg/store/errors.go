package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a record already exists under the same
	// key but disagrees with the request.
	ErrConflict = errors.New("conflicting record")

	// ErrInvalidArgument is returned when a caller passes values that can
	// never form a valid row.
	ErrInvalidArgument = errors.New("invalid argument")
)

// wrapLookup annotates a lookup error, mapping gorm's not-found error to
// ErrNotFound.
func wrapLookup(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}

	return fmt.Errorf("%s: %w", what, err)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
