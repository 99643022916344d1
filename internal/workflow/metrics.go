package workflow

import (
	"time"

	"github.com/spec-kit/hvac-workflow/internal/domain"
)

// SLA resolution windows in hours, by priority.
var slaHours = map[domain.TicketPriority]float64{
	domain.TicketPriorityEmergency: 4,
	domain.TicketPriorityCritical:  8,
	domain.TicketPriorityHigh:      24,
	domain.TicketPriorityMedium:    48,
	domain.TicketPriorityLow:       72,
}

const defaultSLAHours = 48

// SLAThreshold returns the resolution window for a priority.
func SLAThreshold(priority domain.TicketPriority) float64 {
	if h, ok := slaHours[priority]; ok {
		return h
	}
	return defaultSLAHours
}

// Window bounds a metrics query by ticket creation time, inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WorkflowMetrics aggregates ticket-history KPIs over a window.
//
// FirstCallResolutionPct and EscalationRatePct are priority-based proxies
// carried over from the reporting contract (not derived from reassignment
// or escalation history); changing their definitions breaks comparability
// with historical reports. CustomerSatisfaction is an externally supplied
// survey figure, not computed here.
type WorkflowMetrics struct {
	TotalTickets               int      `json:"total_tickets"`
	CompletedTickets           int      `json:"completed_tickets"`
	AverageResolutionTimeHours float64  `json:"average_resolution_time_hours"`
	FirstCallResolutionPct     float64  `json:"first_call_resolution_pct"`
	TechnicianEfficiencyPct    float64  `json:"technician_efficiency_pct"`
	EscalationRatePct          float64  `json:"escalation_rate_pct"`
	SLACompliancePct           float64  `json:"sla_compliance_pct"`
	CustomerSatisfaction       *float64 `json:"customer_satisfaction,omitempty"`
}

// ComputeMetrics aggregates tickets created inside the window. Every
// percentage is 0 when its denominator is 0.
func ComputeMetrics(tickets []domain.ServiceTicket, window Window) WorkflowMetrics {
	var metrics WorkflowMetrics

	var (
		totalResolutionHours float64
		resolvedCount        int
		nonEmergencyDone     int
		emergencyTotal       int
		withinSLA            int
	)

	for i := range tickets {
		ticket := &tickets[i]
		if !window.Contains(ticket.CreatedAt) {
			continue
		}
		metrics.TotalTickets++

		if ticket.Priority == domain.TicketPriorityEmergency {
			emergencyTotal++
		}

		if ticket.Status != domain.TicketStatusCompleted {
			continue
		}
		metrics.CompletedTickets++

		if ticket.Priority != domain.TicketPriorityEmergency {
			nonEmergencyDone++
		}

		if ticket.CompletedDate != nil {
			hours := ticket.CompletedDate.Sub(ticket.CreatedAt).Hours()
			totalResolutionHours += hours
			resolvedCount++
			if hours <= SLAThreshold(ticket.Priority) {
				withinSLA++
			}
		}
	}

	if resolvedCount > 0 {
		metrics.AverageResolutionTimeHours = totalResolutionHours / float64(resolvedCount)
		metrics.SLACompliancePct = float64(withinSLA) / float64(resolvedCount) * 100
	}
	if metrics.CompletedTickets > 0 {
		metrics.FirstCallResolutionPct = float64(nonEmergencyDone) / float64(metrics.CompletedTickets) * 100
	}
	if metrics.TotalTickets > 0 {
		metrics.TechnicianEfficiencyPct = float64(metrics.CompletedTickets) / float64(metrics.TotalTickets) * 100
		metrics.EscalationRatePct = float64(emergencyTotal) / float64(metrics.TotalTickets) * 100
	}

	return metrics
}
