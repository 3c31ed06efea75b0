package order

import (
	"errors"
	"testing"
)

var allStatuses = []Status{
	StatusPending, StatusConfirmed, StatusInProgress, StatusAwaitingPickup,
	StatusOutForDelivery, StatusCompleted, StatusCancelled,
}

func TestCanTransition(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusPending:        {StatusConfirmed: true, StatusCancelled: true},
		StatusConfirmed:      {StatusInProgress: true, StatusCancelled: true},
		StatusInProgress:     {StatusAwaitingPickup: true, StatusOutForDelivery: true, StatusCompleted: true},
		StatusAwaitingPickup: {StatusCompleted: true, StatusCancelled: true},
		StatusOutForDelivery: {StatusCompleted: true, StatusCancelled: true},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[from][to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range allStatuses {
		want := s == StatusCompleted || s == StatusCancelled
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
	if Status("shipped").Valid() || Status("shipped").Terminal() {
		t.Error("unknown status must be neither valid nor terminal")
	}
}

func TestCheckTransition_Error(t *testing.T) {
	err := checkTransition(StatusCompleted, StatusInProgress)
	var invalid *InvalidStateTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateTransitionError, got %v", err)
	}
	if invalid.Current != StatusCompleted || invalid.Requested != StatusInProgress {
		t.Errorf("error = %+v", invalid)
	}
	if err.Error() != "cannot transition order from completed to in_progress" {
		t.Errorf("message = %q", err.Error())
	}
}
