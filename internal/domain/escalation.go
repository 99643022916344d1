package domain

import "time"

// EscalationReason enumerates why a ticket was escalated.
type EscalationReason string

const (
	EscalationReasonOverdue             EscalationReason = "OVERDUE"
	EscalationReasonHighPriority        EscalationReason = "HIGH_PRIORITY"
	EscalationReasonCustomerComplaint   EscalationReason = "CUSTOMER_COMPLAINT"
	EscalationReasonTechnicalComplexity EscalationReason = "TECHNICAL_COMPLEXITY"
)

// EscalationLevel identifies the responsibility tier an escalation routes to.
type EscalationLevel string

const (
	EscalationLevelSupervisor EscalationLevel = "SUPERVISOR"
	EscalationLevelManager    EscalationLevel = "MANAGER"
	EscalationLevelDirector   EscalationLevel = "DIRECTOR"
)

// EscalatedToPending marks an escalation whose directory lookup failed;
// the record is still produced and routing is resolved out of band.
const EscalatedToPending = "PENDING"

// Escalation is an advisory record produced on demand. It never changes
// ticket status.
type Escalation struct {
	TicketID         string
	Reason           EscalationReason
	EscalationLevel  EscalationLevel
	EscalatedTo      string
	EscalatedAt      time.Time
	OriginalAssignee *string
}
