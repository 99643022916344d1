package workflow

import "github.com/spec-kit/hvac-workflow/internal/domain"

// Fixed completion estimates in hours, by priority. Used for the dispatcher
// dashboard only; not an SLA commitment.
var completionEstimateHours = map[domain.TicketPriority]float64{
	domain.TicketPriorityLow:       48,
	domain.TicketPriorityMedium:    24,
	domain.TicketPriorityHigh:      8,
	domain.TicketPriorityCritical:  6,
	domain.TicketPriorityEmergency: 4,
}

// EstimatedHours returns the fixed hours-by-priority completion estimate.
func EstimatedHours(priority domain.TicketPriority) float64 {
	if h, ok := completionEstimateHours[priority]; ok {
		return h
	}
	return completionEstimateHours[domain.TicketPriorityMedium]
}
