// Package apperr defines the error kinds surfaced by the stores and the service layer.
// Callers match them with errors.Is; wrapped context is added with %w.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrDuplicateLink        = fmt.Errorf("duplicate link: %w", ErrConflict)
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	ErrForbidden            = errors.New("forbidden")
	ErrUnauthorized         = errors.New("unauthorized")
)

// Validation wraps err as an ErrValidation, keeping its message.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
