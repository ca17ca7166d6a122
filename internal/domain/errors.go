package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// Transition reasons; TransitionError wraps exactly one of them.
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyCancelled  = errors.New("order already cancelled")
	ErrAlreadyShipped    = errors.New("order already shipped")
	ErrAlreadyDelivered  = errors.New("order already delivered")
)

// TransitionError reports a rejected state-machine transition. It carries
// the order id, the status the order was in and the action that was refused.
type TransitionError struct {
	OrderID OrderID
	Status  OrderStatus
	Action  string
	reason  error
}

func newTransitionError(id OrderID, status OrderStatus, action string) *TransitionError {
	reason := ErrInvalidTransition
	switch status {
	case StatusCancelled:
		reason = ErrAlreadyCancelled
	case StatusShipped:
		reason = ErrAlreadyShipped
	case StatusDelivered:
		reason = ErrAlreadyDelivered
	}
	return &TransitionError{OrderID: id, Status: status, Action: action, reason: reason}
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot %s while %s: %v", e.OrderID, e.Action, e.Status, e.reason)
}

func (e *TransitionError) Unwrap() error { return e.reason }
