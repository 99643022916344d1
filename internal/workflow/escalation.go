package workflow

import (
	"time"

	"github.com/spec-kit/hvac-workflow/internal/domain"
)

// Escalation thresholds in hours open, by priority.
var escalationThresholdHours = map[domain.TicketPriority]float64{
	domain.TicketPriorityLow:       72,
	domain.TicketPriorityMedium:    48,
	domain.TicketPriorityHigh:      24,
	domain.TicketPriorityCritical:  12,
	domain.TicketPriorityEmergency: 4,
}

const defaultEscalationThresholdHours = 48

// EscalationThreshold returns the hours a ticket of the given priority may
// stay open before escalation is required.
func EscalationThreshold(priority domain.TicketPriority) float64 {
	if h, ok := escalationThresholdHours[priority]; ok {
		return h
	}
	return defaultEscalationThresholdHours
}

// EscalationRequired reports whether the ticket has exceeded its priority
// threshold. Completed tickets never require escalation. The result is
// monotonic in elapsed time: once true it stays true as now advances.
func EscalationRequired(ticket *domain.ServiceTicket, now time.Time) bool {
	if ticket.Status == domain.TicketStatusCompleted {
		return false
	}
	hoursOpen := now.Sub(ticket.CreatedAt).Hours()
	return hoursOpen > EscalationThreshold(ticket.Priority)
}

// LevelFor selects the escalation tier for a reason/priority combination.
func LevelFor(reason domain.EscalationReason, priority domain.TicketPriority) domain.EscalationLevel {
	if reason == domain.EscalationReasonCustomerComplaint || priority == domain.TicketPriorityEmergency {
		return domain.EscalationLevelManager
	}
	if reason == domain.EscalationReasonTechnicalComplexity || priority == domain.TicketPriorityHigh {
		return domain.EscalationLevelSupervisor
	}
	return domain.EscalationLevelSupervisor
}

// BuildEscalation produces the advisory escalation record for a ticket and
// applies the priority bump: HIGH_PRIORITY and CUSTOMER_COMPLAINT reasons
// raise the ticket to HIGH when it was lower. Priority is never lowered and
// status is never touched. EscalatedTo is left for the caller's directory
// lookup.
func BuildEscalation(ticket *domain.ServiceTicket, reason domain.EscalationReason, now time.Time) domain.Escalation {
	level := LevelFor(reason, ticket.Priority)

	if reason == domain.EscalationReasonHighPriority || reason == domain.EscalationReasonCustomerComplaint {
		if ticket.Priority.LowerThan(domain.TicketPriorityHigh) {
			ticket.Priority = domain.TicketPriorityHigh
		}
	}

	return domain.Escalation{
		TicketID:         ticket.ID,
		Reason:           reason,
		EscalationLevel:  level,
		EscalatedAt:      now,
		OriginalAssignee: ticket.AssignedTechnicianID,
	}
}
