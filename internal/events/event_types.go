package events

import (
	"time"

	"github.com/spec-kit/hvac-workflow/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketEscalated     EventType = "ticket_escalated"
)

// Event represents a domain event emitted by the workflow service.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	TicketID    string      `json:"ticket_id"`
	PerformedBy *string     `json:"performed_by,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	CustomerID   string                `json:"customer_id"`
	Priority     domain.TicketPriority `json:"priority"`
	Title        string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Notes     string              `json:"notes,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TechnicianID string `json:"technician_id"`
	Reassigned   bool   `json:"reassigned"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Reason      domain.EscalationReason `json:"reason"`
	Level       domain.EscalationLevel  `json:"level"`
	EscalatedTo string                  `json:"escalated_to"`
}
