package models

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or empty input. It is returned before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidStateError reports an operation that the order's current status does not allow.
type InvalidStateError struct {
	Current   OrderStatus
	Operation string
	Message   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed while order is %s: %s", e.Operation, e.Current, e.Message)
}

// InvalidTransitionError reports a status change that the state machine does not permit.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// ConflictError reports a stale write: the stored version moved on since the caller read it.
type ConflictError struct {
	OrderID  string
	Expected int
	Actual   int
}

func (e *ConflictError) Error() string {
	if e.Actual == 0 {
		return fmt.Sprintf("order %s was modified concurrently (expected version %d)", e.OrderID, e.Expected)
	}
	return fmt.Sprintf("order %s is at version %d, request was based on version %d", e.OrderID, e.Actual, e.Expected)
}

// NotificationDeliveryError wraps a failed send. It is logged and never returned to callers
// of state-changing operations.
type NotificationDeliveryError struct {
	Recipient string
	Subject   string
	Err       error
}

func (e *NotificationDeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver %q to %s: %v", e.Subject, e.Recipient, e.Err)
}

func (e *NotificationDeliveryError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
