package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidID        = errors.New("invalid id")
	ErrPermission       = errors.New("not a party to this booking")
	ErrStateConflict    = errors.New("operation invalid for current booking status")
	ErrChatLocked       = errors.New("chat is locked")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError carries the offending input fields. It is never retried.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

// StateConflictError wraps ErrStateConflict with the reason the lifecycle
// rejected the operation (e.g. "review not yet available").
type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string {
	return e.Reason
}

func (e *StateConflictError) Unwrap() error {
	return ErrStateConflict
}
