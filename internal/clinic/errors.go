package clinic

import (
	"errors"
	"fmt"
)

// Error categories shared by the slot ledger and the visit queue. Domain
// errors wrap one of these so the request layer can map them to a status.
var (
	ErrValidation   = errors.New("validation failed")
	ErrSlotConflict = errors.New("slot conflict")
	ErrNotFound     = errors.New("not found")
	ErrStorage      = errors.New("storage unavailable")
)

// Invalid builds a validation error for a single field.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

// StorageError tags a substrate failure so callers can match both the
// category and the underlying driver error.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
