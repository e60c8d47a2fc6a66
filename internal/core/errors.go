package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched with errors.Is; the typed errors below wrap them.
var (
	ErrValidation  = errors.New("invalid entry")
	ErrNotFound    = errors.New("entry not found")
	ErrFormat      = errors.New("invalid format")
	ErrPersistence = errors.New("persistence failed")
	ErrSync        = errors.New("file sync failed")
)

// ValidationError reports the fields that failed the add rules.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Reason != "" && len(e.Fields) > 0:
		return fmt.Sprintf("%s: %s (%s)", ErrValidation, e.Reason, strings.Join(e.Fields, ", "))
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	default:
		return fmt.Sprintf("%s: missing or invalid %s", ErrValidation, strings.Join(e.Fields, ", "))
	}
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError is returned when no entry carries the requested id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrNotFound, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// FormatError is returned when an import document is not a sequence.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: expected a JSON array: %v", ErrFormat, e.Err)
	}
	return fmt.Sprintf("%s: expected a JSON array", ErrFormat)
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFormat}
	}
	return []error{ErrFormat, e.Err}
}

// PersistenceError wraps a primary storage read or write failure.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrPersistence, e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// SyncError wraps a file mirror failure other than a user cancellation.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSync, e.Op, e.Err)
}

func (e *SyncError) Unwrap() []error { return []error{ErrSync, e.Err} }

// UserMessage maps an error to a message that tells the user what to do next.
func UserMessage(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		if len(verr.Fields) > 0 {
			return "Fill in the fields correctly: " + strings.Join(verr.Fields, ", ") + "."
		}
		return "Fill in the fields correctly."
	case errors.Is(err, ErrNotFound):
		return "Entry not found. Refresh the list and try again."
	case errors.Is(err, ErrFormat):
		return "Invalid file: expected a JSON array of entries."
	case errors.Is(err, ErrPersistence):
		return "Could not save. Nothing was lost; try again."
	case errors.Is(err, ErrSync):
		return "File synchronization failed."
	default:
		return "Unexpected error: " + err.Error()
	}
}
