package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus     TicketChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee   TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypePriority   TicketChangeType = "PRIORITY_CHANGE"
	ChangeTypeEscalation TicketChangeType = "ESCALATION"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID          string
	TicketID    string
	PerformedBy *string
	ChangeType  TicketChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	Notes       string
	CreatedAt   time.Time
}
