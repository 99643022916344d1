package workflow

import (
	"testing"
	"time"

	"github.com/spec-kit/hvac-workflow/internal/domain"
)

func TestEscalationThresholdsByPriority(t *testing.T) {
	cases := map[domain.TicketPriority]float64{
		domain.TicketPriorityLow:       72,
		domain.TicketPriorityMedium:    48,
		domain.TicketPriorityHigh:      24,
		domain.TicketPriorityCritical:  12,
		domain.TicketPriorityEmergency: 4,
		domain.TicketPriority("BOGUS"): 48,
	}
	for priority, want := range cases {
		if got := EscalationThreshold(priority); got != want {
			t.Fatalf("%s: threshold %v, want %v", priority, got, want)
		}
	}
}

func TestEscalationRequiredAroundHighThreshold(t *testing.T) {
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ticket := &domain.ServiceTicket{
		ID:        "t1",
		Status:    domain.TicketStatusOpen,
		Priority:  domain.TicketPriorityHigh,
		CreatedAt: created,
	}

	if EscalationRequired(ticket, created.Add(23*time.Hour)) {
		t.Fatalf("23h open HIGH ticket should not require escalation")
	}
	if !EscalationRequired(ticket, created.Add(25*time.Hour)) {
		t.Fatalf("25h open HIGH ticket should require escalation")
	}
}

func TestEscalationRequiredMonotonicInTime(t *testing.T) {
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ticket := &domain.ServiceTicket{
		Status:    domain.TicketStatusInProgress,
		Priority:  domain.TicketPriorityEmergency,
		CreatedAt: created,
	}

	seen := false
	for hours := 1; hours <= 12; hours++ {
		now := created.Add(time.Duration(hours) * time.Hour)
		required := EscalationRequired(ticket, now)
		if seen && !required {
			t.Fatalf("escalation flipped back to false at %dh", hours)
		}
		if required {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("EMERGENCY ticket never required escalation within 12h")
	}
}

func TestCompletedTicketsNeverRequireEscalation(t *testing.T) {
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ticket := &domain.ServiceTicket{
		Status:    domain.TicketStatusCompleted,
		Priority:  domain.TicketPriorityEmergency,
		CreatedAt: created,
	}
	if EscalationRequired(ticket, created.Add(1000*time.Hour)) {
		t.Fatalf("completed ticket must not require escalation")
	}
}

func TestLevelSelection(t *testing.T) {
	cases := []struct {
		reason   domain.EscalationReason
		priority domain.TicketPriority
		want     domain.EscalationLevel
	}{
		{domain.EscalationReasonCustomerComplaint, domain.TicketPriorityLow, domain.EscalationLevelManager},
		{domain.EscalationReasonOverdue, domain.TicketPriorityEmergency, domain.EscalationLevelManager},
		{domain.EscalationReasonTechnicalComplexity, domain.TicketPriorityLow, domain.EscalationLevelSupervisor},
		{domain.EscalationReasonOverdue, domain.TicketPriorityHigh, domain.EscalationLevelSupervisor},
		{domain.EscalationReasonOverdue, domain.TicketPriorityLow, domain.EscalationLevelSupervisor},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.reason, tc.priority); got != tc.want {
			t.Fatalf("LevelFor(%s, %s) = %s, want %s", tc.reason, tc.priority, got, tc.want)
		}
	}
}

func TestBuildEscalationRaisesPriorityButNeverLowers(t *testing.T) {
	tech := "tech-9"
	ticket := &domain.ServiceTicket{
		ID:                   "t1",
		Status:               domain.TicketStatusAssigned,
		Priority:             domain.TicketPriorityLow,
		AssignedTechnicianID: &tech,
		CreatedAt:            time.Now(),
	}
	now := time.Now()

	record := BuildEscalation(ticket, domain.EscalationReasonCustomerComplaint, now)
	if ticket.Priority != domain.TicketPriorityHigh {
		t.Fatalf("LOW ticket should be raised to HIGH, got %s", ticket.Priority)
	}
	if record.OriginalAssignee == nil || *record.OriginalAssignee != tech {
		t.Fatalf("original assignee not captured: %v", record.OriginalAssignee)
	}
	if record.EscalationLevel != domain.EscalationLevelManager {
		t.Fatalf("customer complaint should route to MANAGER, got %s", record.EscalationLevel)
	}

	// EMERGENCY outranks HIGH and must not be lowered by the bump.
	ticket.Priority = domain.TicketPriorityEmergency
	BuildEscalation(ticket, domain.EscalationReasonHighPriority, now)
	if ticket.Priority != domain.TicketPriorityEmergency {
		t.Fatalf("escalation lowered priority to %s", ticket.Priority)
	}

	// Status is never changed by escalation.
	if ticket.Status != domain.TicketStatusAssigned {
		t.Fatalf("escalation changed status to %s", ticket.Status)
	}
}

func TestBuildEscalationOverdueKeepsPriority(t *testing.T) {
	ticket := &domain.ServiceTicket{
		ID:       "t1",
		Priority: domain.TicketPriorityLow,
	}
	BuildEscalation(ticket, domain.EscalationReasonOverdue, time.Now())
	if ticket.Priority != domain.TicketPriorityLow {
		t.Fatalf("OVERDUE escalation must not bump priority, got %s", ticket.Priority)
	}
}
