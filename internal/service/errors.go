package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/repository"
)

// Error kinds surfaced by the services. Callers match them with errors.Is;
// the typed errors below carry the structured detail.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("event not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrPersistence           = errors.New("persistence failure")
	ErrAborted               = errors.New("booking aborted")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// InsufficientInventoryError reports how many tickets were actually left
// when the request was checked under the event lock.
type InsufficientInventoryError struct {
	Requested int
	Remaining int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("not enough tickets available: only %d remaining", e.Remaining)
}

func (e *InsufficientInventoryError) Unwrap() error { return ErrInsufficientInventory }

// PersistenceError wraps a store failure. Its message names the operation
// only; the underlying error is reachable through errors.As/Unwrap for logs.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence failure: " + e.Op
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// AbortedError is returned when the caller's deadline expires or the request
// is cancelled before the booking commits. Nothing was written.
type AbortedError struct {
	Err error
}

func (e *AbortedError) Error() string {
	return "booking aborted before commit"
}

func (e *AbortedError) Unwrap() []error { return []error{ErrAborted, e.Err} }

func notFound(id int64) error {
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// isNotFound reports whether a store error means the event does not exist.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// classifyTxError maps an error escaping a booking transaction onto the
// taxonomy. Cancellation wins over persistence because a store error raised
// after the deadline is a consequence of the deadline.
func classifyTxError(ctx context.Context, err error) error {
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInsufficientInventory) {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &AbortedError{Err: err}
	}
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return persistence("booking transaction", err)
}

// outcomeOf returns the metrics label for a booking result.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCommitted
	case errors.Is(err, ErrInvalidInput):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrInsufficientInventory):
		return metrics.OutcomeInsufficient
	case errors.Is(err, ErrAborted):
		return metrics.OutcomeAborted
	default:
		return metrics.OutcomePersistence
	}
}
