package queries

import (
	"github.com/voyager-travel/voyager/internal/shared"
)

// Status is a step of the query workflow.
type Status string

const (
	StatusNew                Status = "NEW"
	StatusResponded          Status = "RESPONDED"
	StatusWorking            Status = "WORKING"
	StatusProposalSent       Status = "PROPOSAL_SENT"
	StatusRevisionsRequested Status = "REVISIONS_REQUESTED"
	StatusFinalizedBooking   Status = "FINALIZED_BOOKING"
	StatusServicesBooked     Status = "SERVICES_BOOKED"
	StatusInDelivery         Status = "IN_DELIVERY"
	StatusCompleted          Status = "COMPLETED"
	StatusCancelled          Status = "CANCELLED"
)

// AllStatuses lists statuses in workflow order.
var AllStatuses = []Status{
	StatusNew, StatusResponded, StatusWorking, StatusProposalSent, StatusRevisionsRequested,
	StatusFinalizedBooking, StatusServicesBooked, StatusInDelivery, StatusCompleted, StatusCancelled,
}

// forward edges; every edge may also be walked back one step unless it ends in a terminal state.
var forward = map[Status][]Status{
	StatusNew:                {StatusResponded},
	StatusResponded:          {StatusWorking},
	StatusWorking:            {StatusProposalSent},
	StatusProposalSent:       {StatusRevisionsRequested, StatusFinalizedBooking},
	StatusRevisionsRequested: {StatusProposalSent},
	StatusFinalizedBooking:   {StatusServicesBooked},
	StatusServicesBooked:     {StatusInDelivery},
	StatusInDelivery:         {StatusCompleted},
}

var backward = func() map[Status][]Status {
	out := make(map[Status][]Status)
	for from, targets := range forward {
		for _, to := range targets {
			if to.Terminal() {
				continue
			}
			out[to] = append(out[to], from)
		}
	}
	return out
}()

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Locked reports whether service lines of a query in s may no longer change.
func (s Status) Locked() bool {
	return s.Terminal()
}

// Workflow decides which status changes are allowed.
type Workflow struct {
	// Strict enforces the transition graph. When false any known status may be
	// written, but terminal states still cannot be left.
	Strict bool
}

// Advance validates moving from one status to another.
func (w Workflow) Advance(from, to Status) error {
	if !to.Valid() {
		return shared.NewValidationError("status", "unknown status "+string(to))
	}
	if from == to || from.Terminal() {
		return &shared.InvalidTransitionError{Entity: "query", From: string(from), To: string(to)}
	}
	if !w.Strict {
		return nil
	}
	for _, next := range w.Next(from) {
		if next == to {
			return nil
		}
	}
	return &shared.InvalidTransitionError{Entity: "query", From: string(from), To: string(to)}
}

// Next lists the statuses reachable from from.
func (w Workflow) Next(from Status) []Status {
	if from.Terminal() {
		return nil
	}
	if !w.Strict {
		out := make([]Status, 0, len(AllStatuses))
		for _, s := range AllStatuses {
			if s != from {
				out = append(out, s)
			}
		}
		return out
	}
	allowed := map[Status]bool{StatusCancelled: true}
	for _, s := range backward[from] {
		allowed[s] = true
	}
	for _, s := range forward[from] {
		allowed[s] = true
	}
	out := make([]Status, 0, len(allowed))
	for _, s := range AllStatuses {
		if allowed[s] {
			out = append(out, s)
		}
	}
	return out
}
