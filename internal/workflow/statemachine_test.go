package workflow

import (
	"testing"
	"time"

	"github.com/spec-kit/hvac-workflow/internal/domain"
	apperrors "github.com/spec-kit/hvac-workflow/pkg/util/errorutil"
)

func newTicket(status domain.TicketStatus) *domain.ServiceTicket {
	return &domain.ServiceTicket{
		ID:        "t1",
		Status:    status,
		Priority:  domain.TicketPriorityMedium,
		CreatedAt: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestTransitionTableRejectsEverythingElse(t *testing.T) {
	all := []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusAssigned,
		domain.TicketStatusScheduled,
		domain.TicketStatusInProgress,
		domain.TicketStatusOnHold,
		domain.TicketStatusCompleted,
		domain.TicketStatusCancelled,
	}
	for _, from := range all {
		allowed := map[domain.TicketStatus]bool{}
		for _, to := range AllowedTransitions(from) {
			allowed[to] = true
		}
		for _, to := range all {
			ticket := newTicket(from)
			err := Transition(ticket, to, time.Now())
			if allowed[to] {
				if err != nil {
					t.Fatalf("%s -> %s should be allowed, got %v", from, to, err)
				}
				continue
			}
			if err == nil {
				t.Fatalf("%s -> %s should be rejected", from, to)
			}
			if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
				t.Fatalf("%s -> %s: expected INVALID_TRANSITION, got %v", from, to, err)
			}
			if ticket.Status != from {
				t.Fatalf("rejected transition mutated status: %s", ticket.Status)
			}
		}
	}
}

func TestTransitionOpenDirectlyToInProgressFails(t *testing.T) {
	ticket := newTicket(domain.TicketStatusOpen)
	err := Transition(ticket, domain.TicketStatusInProgress, time.Now())
	if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
}

func TestHappyPathStampsTimestampsOnce(t *testing.T) {
	ticket := newTicket(domain.TicketStatusOpen)
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	if err := Transition(ticket, domain.TicketStatusAssigned, now); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if ticket.StartedAt != nil {
		t.Fatalf("StartedAt must be unset before IN_PROGRESS")
	}

	started := now.Add(time.Hour)
	if err := Transition(ticket, domain.TicketStatusInProgress, started); err != nil {
		t.Fatalf("start: %v", err)
	}
	if ticket.StartedAt == nil || !ticket.StartedAt.Equal(started) {
		t.Fatalf("StartedAt not stamped: %v", ticket.StartedAt)
	}

	// A hold/resume cycle must not re-stamp StartedAt.
	if err := Transition(ticket, domain.TicketStatusOnHold, started.Add(time.Hour)); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if err := Transition(ticket, domain.TicketStatusInProgress, started.Add(2*time.Hour)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !ticket.StartedAt.Equal(started) {
		t.Fatalf("StartedAt re-stamped on resume: %v", ticket.StartedAt)
	}

	completed := started.Add(3 * time.Hour)
	if err := Transition(ticket, domain.TicketStatusCompleted, completed); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ticket.CompletedDate == nil || !ticket.CompletedDate.Equal(completed) {
		t.Fatalf("CompletedDate not stamped: %v", ticket.CompletedDate)
	}

	// COMPLETED is terminal.
	if err := Transition(ticket, domain.TicketStatusOnHold, completed.Add(time.Hour)); err == nil {
		t.Fatalf("transition out of COMPLETED must fail")
	}
	if !ticket.CompletedDate.Equal(completed) {
		t.Fatalf("CompletedDate changed after terminal transition attempt")
	}
}

func TestTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	for _, status := range []domain.TicketStatus{domain.TicketStatusCompleted, domain.TicketStatusCancelled} {
		if !status.IsTerminal() {
			t.Fatalf("%s should be terminal", status)
		}
		if got := AllowedTransitions(status); len(got) != 0 {
			t.Fatalf("%s should have no outgoing transitions, got %v", status, got)
		}
	}
}

func TestNextActionsByStatus(t *testing.T) {
	open := NextActions(domain.TicketStatusOpen)
	if len(open) != 2 || open[0] != "Assign Technician" {
		t.Fatalf("unexpected OPEN actions: %v", open)
	}
	if got := NextActions(domain.TicketStatusCancelled); len(got) != 0 {
		t.Fatalf("CANCELLED should have no next actions, got %v", got)
	}
}
