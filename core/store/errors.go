package store

import (
	"errors"
	"fmt"

	"github.com/codewandler/symbio-go/core/symbio"
)

var (
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrNotFound            = errors.New("not found")
	ErrUnsupportedQuery    = errors.New("unsupported query")
	ErrStorageFailure      = errors.New("storage failure")
	ErrNoSources           = errors.New("no sources to append")
	// ErrEndOfEntries is returned by entry readers positioned past the last
	// entry.
	ErrEndOfEntries = errors.New("end of entries")
)

// StorageError is a backend failure during the named operation. It matches
// [ErrStorageFailure] with errors.Is and exposes the cause.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorageFailure, e.Err} }

// Outcome classifies the error carried by a result.
type Outcome int

const (
	Success Outcome = iota
	ConcurrencyViolation
	NotFound
	UnsupportedQuery
	AdapterNotRegistered
	StorageFailure
	ValidationFailure
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case ConcurrencyViolation:
		return "concurrency_violation"
	case NotFound:
		return "not_found"
	case UnsupportedQuery:
		return "unsupported_query"
	case AdapterNotRegistered:
		return "adapter_not_registered"
	case StorageFailure:
		return "storage_failure"
	case ValidationFailure:
		return "validation_failure"
	default:
		return "failure"
	}
}

// OutcomeOf maps err onto an [Outcome]. A nil error is a Success.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrConcurrencyConflict):
		return ConcurrencyViolation
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, ErrUnsupportedQuery):
		return UnsupportedQuery
	case errors.Is(err, symbio.ErrAdapterNotRegistered):
		return AdapterNotRegistered
	case errors.Is(err, ErrStorageFailure):
		return StorageFailure
	case errors.Is(err, symbio.ErrValidation):
		return ValidationFailure
	default:
		return Failure
	}
}
