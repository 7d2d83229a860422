package domain

import (
	"errors"
	"fmt"
)

// Status is a vendor sub-order's fulfillment state, or the derived
// aggregate of an order.
type Status string

const (
	StatusCreated   Status = "created"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	// StatusPartiallyCancelled only ever appears as an aggregate.
	StatusPartiallyCancelled Status = "partially_cancelled"
)

var (
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// rank orders the forward path; cancelled sits outside it.
var rank = map[Status]int{
	StatusCreated:   0,
	StatusPreparing: 1,
	StatusReady:     2,
	StatusCompleted: 3,
}

// ParseStatus accepts only the sub-order states a vendor can target.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusCreated, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusPartiallyCancelled
}

// Next returns the single forward successor, if any.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusCreated:
		return StatusPreparing, true
	case StatusPreparing:
		return StatusReady, true
	case StatusReady:
		return StatusCompleted, true
	default:
		return "", false
	}
}

// CanTransition accepts exactly one forward step, or cancellation from
// created/preparing.
func CanTransition(from, to Status) error {
	if from.IsTerminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, from)
	}
	if to == StatusCancelled {
		if from == StatusCreated || from == StatusPreparing {
			return nil
		}
		return fmt.Errorf("%w: cannot cancel once %s", ErrInvalidTransition, from)
	}
	if next, ok := from.Next(); ok && next == to {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Aggregate derives the shopper-facing status of an order: the slowest
// non-terminal vendor wins; otherwise completed, cancelled or
// partially_cancelled depending on how the vendors finished.
func Aggregate(statuses []Status) Status {
	if len(statuses) == 0 {
		return StatusCreated
	}
	var slowest Status
	allCompleted, allCancelled := true, true
	for _, s := range statuses {
		if !s.IsTerminal() {
			if slowest == "" || rank[s] < rank[slowest] {
				slowest = s
			}
		}
		if s != StatusCompleted {
			allCompleted = false
		}
		if s != StatusCancelled {
			allCancelled = false
		}
	}
	switch {
	case slowest != "":
		return slowest
	case allCompleted:
		return StatusCompleted
	case allCancelled:
		return StatusCancelled
	default:
		return StatusPartiallyCancelled
	}
}
