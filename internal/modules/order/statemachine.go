package order

import "fmt"

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusInProgress     Status = "in_progress"
	StatusAwaitingPickup Status = "awaiting_pickup"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// validTransitions defines the allowed status state machine.
var validTransitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusInProgress, StatusCancelled},
	StatusInProgress:     {StatusAwaitingPickup, StatusOutForDelivery, StatusCompleted},
	StatusAwaitingPickup: {StatusCompleted, StatusCancelled},
	StatusOutForDelivery: {StatusCompleted, StatusCancelled},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s.Valid() && len(validTransitions[s]) == 0
}

// CanTransition reports whether from → to appears in the transition table.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// InvalidStateTransitionError is returned for any move outside the table.
type InvalidStateTransitionError struct {
	Current   Status `json:"current"`
	Requested Status `json:"requested"`
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.Current, e.Requested)
}

func checkTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &InvalidStateTransitionError{Current: from, Requested: to}
	}
	return nil
}
