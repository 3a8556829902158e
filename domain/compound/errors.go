package compound

import (
	"errors"
	"fmt"
)

var (
	ErrMissingColumn = errors.New("required column missing")
	ErrInvalidRange  = errors.New("invalid range")
)

// NewMissingColumnError reports a source that lacks one of Name, MW or LogP
func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %s", ErrMissingColumn, column)
}

// IsMissingColumnError checks for ErrMissingColumn
func IsMissingColumnError(err error) bool {
	return errors.Is(err, ErrMissingColumn)
}
