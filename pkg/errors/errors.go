package errors

import (
	"fmt"

	"github.com/fabworks/orderapi/internal/domain"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden is returned when an authenticated caller may not touch a resource
type ErrForbidden struct {
	Message string
}

func (e *ErrForbidden) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "forbidden"
}

// ErrConflict is returned when there's a conflict (e.g., idempotency)
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// ErrValidation is returned when validation fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrAdmissionLimitExceeded is returned when a customer already has the maximum number of active orders
type ErrAdmissionLimitExceeded struct {
	CustomerEmail string
	Active        int
	Limit         int
}

func (e *ErrAdmissionLimitExceeded) Error() string {
	return fmt.Sprintf("customer %s already has %d active orders (limit %d); wait for an order to complete before placing another",
		e.CustomerEmail, e.Active, e.Limit)
}

// ErrInvalidStateTransition is returned when an invalid state transition is attempted
type ErrInvalidStateTransition struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrInvalidState is returned when an operation is not allowed in the order's current status
type ErrInvalidState struct {
	Status    domain.OrderStatus
	Operation string
}

func (e *ErrInvalidState) Error() string {
	return fmt.Sprintf("cannot %s while order is %s", e.Operation, e.Status)
}

// ErrNotificationFailure wraps a failed notification delivery. It is only logged.
type ErrNotificationFailure struct {
	Channel string
	Event   string
	Err     error
}

func (e *ErrNotificationFailure) Error() string {
	return fmt.Sprintf("%s notification for %s failed: %v", e.Channel, e.Event, e.Err)
}

func (e *ErrNotificationFailure) Unwrap() error {
	return e.Err
}
