package domain

import "strings"

// Status is shared by orders and order items.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCooking   Status = "COOKING"
	StatusReady     Status = "READY"
	StatusServed    Status = "SERVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ActiveStatuses is the default filter for the kitchen/floor board.
var ActiveStatuses = []Status{StatusPending, StatusCooking, StatusReady, StatusServed}

var transitions = map[Status][]Status{
	StatusPending: {StatusCooking, StatusReady, StatusServed, StatusCompleted, StatusCancelled},
	StatusCooking: {StatusReady, StatusServed, StatusCompleted, StatusCancelled},
	StatusReady:   {StatusServed, StatusCompleted, StatusCancelled},
	StatusServed:  {StatusCompleted},
}

// kitchen progression, used to tell "already past the target" from "cannot get there"
var rank = map[Status]int{
	StatusPending:   0,
	StatusCooking:   1,
	StatusReady:     2,
	StatusServed:    3,
	StatusCompleted: 4,
}

func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", Validationf("unknown status %q", s)
	}
	return status, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCooking, StatusReady, StatusServed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether next is a legal move from s. Staying in the same
// status is always legal and treated as a no-op by callers.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reached reports whether s is at or beyond target on the kitchen progression.
// CANCELLED is off the progression and never reaches anything but itself.
func (s Status) Reached(target Status) bool {
	if s == target {
		return true
	}
	sr, ok := rank[s]
	if !ok {
		return false
	}
	tr, ok := rank[target]
	if !ok {
		return false
	}
	return sr >= tr
}

// Unserved reports whether an item in this status blocks closing its table.
func (s Status) Unserved() bool {
	return s != StatusServed && s != StatusCompleted && s != StatusCancelled
}
