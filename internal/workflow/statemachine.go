// Package workflow implements the service-ticket workflow engine: the
// status state machine, escalation rules, technician matching and workflow
// KPI aggregation. Everything here is a pure function over the values passed
// in; persistence belongs to the callers.
package workflow

import (
	"time"

	"github.com/spec-kit/hvac-workflow/internal/domain"
	apperrors "github.com/spec-kit/hvac-workflow/pkg/util/errorutil"
)

var transitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen: {
		domain.TicketStatusAssigned,
		domain.TicketStatusScheduled,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusAssigned: {
		domain.TicketStatusInProgress,
		domain.TicketStatusScheduled,
		domain.TicketStatusOnHold,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusScheduled: {
		domain.TicketStatusInProgress,
		domain.TicketStatusOnHold,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusInProgress: {
		domain.TicketStatusCompleted,
		domain.TicketStatusOnHold,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusOnHold: {
		domain.TicketStatusInProgress,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusCompleted: {},
	domain.TicketStatusCancelled: {},
}

// AllowedTransitions returns the destinations reachable from status.
// Terminal and unknown statuses yield an empty slice.
func AllowedTransitions(status domain.TicketStatus) []domain.TicketStatus {
	allowed := transitions[status]
	out := make([]domain.TicketStatus, len(allowed))
	copy(out, allowed)
	return out
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to domain.TicketStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition applies a validated status change to the ticket, stamping
// StartedAt on first entry to IN_PROGRESS and CompletedDate on entry to
// COMPLETED. The ticket is mutated in place only on success; rejected
// transitions return INVALID_TRANSITION and leave it untouched.
func Transition(ticket *domain.ServiceTicket, newStatus domain.TicketStatus, now time.Time) error {
	if !CanTransition(ticket.Status, newStatus) {
		return apperrors.NewInvalidTransition(string(ticket.Status), string(newStatus))
	}

	ticket.Status = newStatus
	switch newStatus {
	case domain.TicketStatusInProgress:
		if ticket.StartedAt == nil {
			started := now
			ticket.StartedAt = &started
		}
	case domain.TicketStatusCompleted:
		if ticket.CompletedDate == nil {
			completed := now
			ticket.CompletedDate = &completed
		}
	}
	return nil
}

// NextActions maps a status to the descriptive follow-up actions shown to
// dispatchers.
func NextActions(status domain.TicketStatus) []string {
	switch status {
	case domain.TicketStatusOpen:
		return []string{"Assign Technician", "Gather More Information"}
	case domain.TicketStatusAssigned:
		return []string{"Schedule Visit", "Start Work"}
	case domain.TicketStatusScheduled:
		return []string{"Start Work", "Reschedule"}
	case domain.TicketStatusInProgress:
		return []string{"Complete Work", "Request Parts", "Put On Hold"}
	case domain.TicketStatusOnHold:
		return []string{"Resume Work"}
	case domain.TicketStatusCompleted:
		return []string{"Close Out", "Schedule Follow-Up"}
	case domain.TicketStatusCancelled:
		return []string{}
	default:
		return []string{}
	}
}
