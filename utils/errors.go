package utils

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ValidationError rejects malformed input before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// ConflictError means a per-day inventory claim lost a race. No partial
// allocation persists; the caller should re-query availability and retry
// or cancel.
type ConflictError struct {
	RoomID uint
	Date   time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: room %d already occupied or blocked on %s", e.RoomID, e.Date.Format("2006-01-02"))
}

// InvalidTransitionError means the requested move is not legal from the
// record's current state. State is unchanged.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid_transition: %s %s -> %s", e.Entity, e.From, e.To)
}

// LockedRecordError means the transaction is locked and immutable.
type LockedRecordError struct {
	TransactionID uint
}

func (e *LockedRecordError) Error() string {
	return fmt.Sprintf("locked_record: transaction %d is locked", e.TransactionID)
}

// GatewayError wraps a payment gateway failure (timeout, non-2xx,
// malformed response). The local transaction is never assumed paid.
type GatewayError struct {
	Op     string
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway: %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gateway: %s returned status %d", e.Op, e.Status)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// InvariantViolation rejects a request that would break a domain rule,
// e.g. refunds exceeding the verified original. Nothing is written.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return "invariant_violation: " + e.Reason
}

var ErrNotFound = errors.New("record_not_found")

// HTTPStatus maps domain errors onto response codes at the controller
// boundary. Everything here is recoverable; unknown errors become 500.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		ce *ConflictError
		te *InvalidTransitionError
		le *LockedRecordError
		ge *GatewayError
		ie *InvariantViolation
	)
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.As(err, &te):
		return http.StatusUnprocessableEntity
	case errors.As(err, &le):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ge):
		return http.StatusBadGateway
	case errors.As(err, &ie):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
