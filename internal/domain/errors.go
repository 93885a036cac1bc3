package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the chat core. Each maps to one stable status code at
// the HTTP boundary; callers check them with errors.Is.
var (
	ErrValidation   = errors.New("invalid input")
	ErrConflict     = errors.New("participant already exists")
	ErrNotFound     = errors.New("requested resource not found")
	ErrUnauthorized = errors.New("requester does not own the message")
)

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Details []string
}

// NewValidationError builds a ValidationError from one or more details.
func NewValidationError(details ...string) *ValidationError {
	return &ValidationError{Details: details}
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Details, "; "))
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// BackingStoreError wraps an I/O failure of the participant or message store.
type BackingStoreError struct {
	Op  string
	Err error
}

// NewBackingStoreError wraps err unless it is nil or already one of the
// domain errors.
func NewBackingStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrValidation) {
		return err
	}
	var bse *BackingStoreError
	if errors.As(err, &bse) {
		return err
	}
	return &BackingStoreError{Op: op, Err: err}
}

func (e *BackingStoreError) Error() string {
	return fmt.Sprintf("backing store: %s: %v", e.Op, e.Err)
}

func (e *BackingStoreError) Unwrap() error {
	return e.Err
}

// IsBackingStore reports whether err is a BackingStoreError.
func IsBackingStore(err error) bool {
	var bse *BackingStoreError
	return errors.As(err, &bse)
}
