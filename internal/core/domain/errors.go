package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Handlers translate these to HTTP status codes, so every error
// returned by a service must match exactly one of them via errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrStorage         = errors.New("storage failure")
)

var (
	ErrEventNotFound  = newKindError(ErrNotFound, "event not found")
	ErrUserNotFound   = newKindError(ErrNotFound, "user not found")
	ErrDuplicateEvent = newKindError(ErrConflict, "an event with this title already exists in this category")
	ErrEmailTaken     = newKindError(ErrConflict, "email already registered")
	ErrWriteConflict  = newKindError(ErrConflict, "concurrent update, retry the request")

	ErrEventNotApproved        = newKindError(ErrValidation, "event not approved")
	ErrVotingClosed            = newKindError(ErrValidation, "voting closed")
	ErrInvalidOutcome          = newKindError(ErrValidation, "invalid outcome")
	ErrInvalidStatus           = newKindError(ErrValidation, "invalid status")
	ErrInvalidStatusTransition = newKindError(ErrValidation, "invalid status transition")
	ErrEventNotEditable        = newKindError(ErrValidation, "only pending events can be edited")
	ErrInvalidEventID          = newKindError(ErrValidation, "invalid event id")
	ErrInvalidRole             = newKindError(ErrValidation, "invalid role")
	ErrCannotDeleteSelf        = newKindError(ErrValidation, "admins cannot delete their own account")

	ErrInvalidCredentials = newKindError(ErrUnauthenticated, "invalid credentials")
	ErrInvalidToken       = newKindError(ErrUnauthenticated, "invalid or expired token")
	ErrAdminRequired      = newKindError(ErrForbidden, "admin access required")
	ErrNotEventOwner      = newKindError(ErrForbidden, "only the event owner can do this")
)

type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

// ValidationError lists every offending input field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// Err returns nil when no field was rejected.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StorageError wraps a failure of the persistence layer. Its message is only
// meant for logs.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
