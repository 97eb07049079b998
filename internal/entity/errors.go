package entity

import (
	"errors"
	"fmt"
)

var (
	// Identity / scope errors
	ErrUnauthorized    = errors.New("unauthorized")
	ErrCompanyNotFound = errors.New("company not found")

	// Event errors
	ErrEventNotFound = errors.New("event not found")

	// Guest ledger errors
	ErrGuestListNotFound    = errors.New("guest list not found")
	ErrGuestNotFound        = errors.New("guest not found")
	ErrCheckInLimitExceeded = errors.New("check-in count exceeds guest count")

	// Ticket inventory errors
	ErrTicketNotFound = errors.New("ticket type not found")
	ErrHasSoldTickets = errors.New("ticket type has sold tickets")

	// Reference table errors
	ErrLayoutNotFound = errors.New("layout not found")
	ErrInUse          = errors.New("resource is referenced by an event")

	// General errors
	ErrNoChanges           = errors.New("no changes detected")
	ErrTransactionConflict = errors.New("transaction conflict, retries exhausted")
)

// ValidationError marks malformed input and names the failing field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// ReferenceNotFoundError reports a supplied cross-entity id that does not
// resolve, identifying both the id and its category.
type ReferenceNotFoundError struct {
	Kind ReferenceKind
	ID   string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// IsNotFound reports whether err is any of the missing-entity sentinels or a
// reference resolution failure.
func IsNotFound(err error) bool {
	var refErr *ReferenceNotFoundError
	if errors.As(err, &refErr) {
		return true
	}
	return errors.Is(err, ErrCompanyNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrGuestListNotFound) ||
		errors.Is(err, ErrGuestNotFound) ||
		errors.Is(err, ErrTicketNotFound) ||
		errors.Is(err, ErrLayoutNotFound)
}
