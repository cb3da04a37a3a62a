package xerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Handlers map these onto HTTP
// status codes in the response package.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrDuplicateEntry  = errors.New("duplicate entry")
	ErrInvalidState    = errors.New("invalid state transition")
	ErrVersionConflict = errors.New("concurrent update conflict")
	ErrInternal        = errors.New("internal server error")
	ErrRateLimited     = errors.New("too many requests")
	ErrSessionExpired  = errors.New("session expired or invalid")
)

// Wrap prefixes err with message, keeping the sentinel reachable via
// errors.Is.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is re-exports errors.Is so callers need a single import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
