package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies allocation failures. Callers branch on the kind, never on messages.
type ErrorKind string

// Error kinds surfaced by lifecycle transitions and inventory operations.
const (
	KindNotFound              ErrorKind = "not_found"
	KindInvalidState          ErrorKind = "invalid_state"
	KindDuplicateApplication  ErrorKind = "duplicate_application"
	KindNotEligible           ErrorKind = "not_eligible"
	KindInsufficientInventory ErrorKind = "insufficient_inventory"
	KindNoSlotsAvailable      ErrorKind = "no_slots_available"
	KindSlotLimitExceeded     ErrorKind = "slot_limit_exceeded"
	KindRoleConflict          ErrorKind = "role_conflict"
	KindOverlappingCommitment ErrorKind = "overlapping_commitment"
	KindInvalidArgument       ErrorKind = "invalid_argument"
	KindAlreadyReviewed       ErrorKind = "already_reviewed"
	KindForbidden             ErrorKind = "forbidden"
)

// Sentinels for errors.Is comparisons. Any *Error with the same kind matches.
var (
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrInvalidState          = &Error{Kind: KindInvalidState}
	ErrDuplicateApplication  = &Error{Kind: KindDuplicateApplication}
	ErrNotEligible           = &Error{Kind: KindNotEligible}
	ErrInsufficientInventory = &Error{Kind: KindInsufficientInventory}
	ErrNoSlotsAvailable      = &Error{Kind: KindNoSlotsAvailable}
	ErrSlotLimitExceeded     = &Error{Kind: KindSlotLimitExceeded}
	ErrRoleConflict          = &Error{Kind: KindRoleConflict}
	ErrOverlappingCommitment = &Error{Kind: KindOverlappingCommitment}
	ErrInvalidArgument       = &Error{Kind: KindInvalidArgument}
	ErrAlreadyReviewed       = &Error{Kind: KindAlreadyReviewed}
	ErrForbidden             = &Error{Kind: KindForbidden}
)

// Error is the typed failure returned by domain and coordinator operations.
type Error struct {
	Kind    ErrorKind
	Entity  EntityType
	ID      string
	Message string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(string(e.Entity))
		if e.ID != "" {
			b.WriteString(" ")
			b.WriteString(e.ID)
		}
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Errorf builds an error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// EntityError builds an error of the given kind bound to an entity reference.
func EntityError(kind ErrorKind, entity EntityType, id, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity.
func NotFound(entity EntityType, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Message: "not found"}
}

// KindOf extracts the error kind, returning "" for foreign errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
