package domain

import "time"

// TicketStatus enumerates lifecycle states for service tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusScheduled  TicketStatus = "SCHEDULED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusOnHold     TicketStatus = "ON_HOLD"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are permitted from s.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow       TicketPriority = "LOW"
	TicketPriorityMedium    TicketPriority = "MEDIUM"
	TicketPriorityHigh      TicketPriority = "HIGH"
	TicketPriorityCritical  TicketPriority = "CRITICAL"
	TicketPriorityEmergency TicketPriority = "EMERGENCY"
)

var priorityRank = map[TicketPriority]int{
	TicketPriorityLow:       1,
	TicketPriorityMedium:    2,
	TicketPriorityHigh:      3,
	TicketPriorityCritical:  4,
	TicketPriorityEmergency: 5,
}

// LowerThan reports whether p is strictly less urgent than other.
// Unknown priorities rank as MEDIUM.
func (p TicketPriority) LowerThan(other TicketPriority) bool {
	return rankOf(p) < rankOf(other)
}

func rankOf(p TicketPriority) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return priorityRank[TicketPriorityMedium]
}

// ServiceTicket is the aggregate for field-service requests.
// StartedAt is set exactly once on entry to IN_PROGRESS; CompletedDate
// is present iff Status is COMPLETED. Version guards optimistic writes.
type ServiceTicket struct {
	ID                   string
	TicketNumber         string
	CustomerID           string
	EquipmentID          *string
	EquipmentType        *EquipmentType
	AssignedTechnicianID *string
	Title                string
	Description          string
	Status               TicketStatus
	Priority             TicketPriority
	ServiceLocation      string
	ReportedBy           string
	ContactInfo          string
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
	StartedAt            *time.Time
	CompletedDate        *time.Time
}
