package dto

import (
	"time"

	"github.com/spec-kit/hvac-workflow/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	CustomerID      string                `json:"customer_id"`
	EquipmentID     *string               `json:"equipment_id"`
	EquipmentType   *domain.EquipmentType `json:"equipment_type"`
	Priority        domain.TicketPriority `json:"priority"`
	ServiceLocation string                `json:"service_location"`
	ReportedBy      string                `json:"reported_by"`
	ContactInfo     string                `json:"contact_info"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	NewStatus domain.TicketStatus `json:"new_status"`
	Notes     string              `json:"notes"`
}

// AssignRequest payload. A nil technician id delegates to the matcher.
type AssignRequest struct {
	TechnicianID *string `json:"technician_id"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	Reason domain.EscalationReason `json:"reason"`
}

// TicketResponse is the standard ticket representation.
type TicketResponse struct {
	ID                   string                `json:"id"`
	TicketNumber         string                `json:"ticket_number"`
	CustomerID           string                `json:"customer_id"`
	EquipmentID          *string               `json:"equipment_id,omitempty"`
	EquipmentType        *domain.EquipmentType `json:"equipment_type,omitempty"`
	AssignedTechnicianID *string               `json:"assigned_technician_id,omitempty"`
	Title                string                `json:"title"`
	Description          string                `json:"description"`
	Status               domain.TicketStatus   `json:"status"`
	Priority             domain.TicketPriority `json:"priority"`
	ServiceLocation      string                `json:"service_location"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
	StartedAt            *time.Time            `json:"started_at,omitempty"`
	CompletedDate        *time.Time            `json:"completed_date,omitempty"`
}

// WorkflowStateResponse describes the ticket's workflow position.
type WorkflowStateResponse struct {
	TicketID            string                `json:"ticket_id"`
	CurrentStatus       domain.TicketStatus   `json:"current_status"`
	AllowedTransitions  []domain.TicketStatus `json:"allowed_transitions"`
	NextActions         []string              `json:"next_actions"`
	EscalationRequired  bool                  `json:"escalation_required"`
	EstimatedCompletion *time.Time            `json:"estimated_completion,omitempty"`
}

// EscalationResponse represents a produced escalation record.
type EscalationResponse struct {
	TicketID         string                  `json:"ticket_id"`
	Reason           domain.EscalationReason `json:"reason"`
	EscalationLevel  domain.EscalationLevel  `json:"escalation_level"`
	EscalatedTo      string                  `json:"escalated_to"`
	EscalatedAt      time.Time               `json:"escalated_at"`
	OriginalAssignee *string                 `json:"original_assignee,omitempty"`
}

// TicketHistoryResponse represents an audit trail entry.
type TicketHistoryResponse struct {
	ID          string                  `json:"id"`
	PerformedBy *string                 `json:"performed_by,omitempty"`
	ChangeType  domain.TicketChangeType `json:"change_type"`
	OldValue    map[string]any          `json:"old_value"`
	NewValue    map[string]any          `json:"new_value"`
	Notes       string                  `json:"notes,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}
