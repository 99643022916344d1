package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/hvac-workflow/internal/cache"
	"github.com/spec-kit/hvac-workflow/internal/domain"
	"github.com/spec-kit/hvac-workflow/internal/events"
	"github.com/spec-kit/hvac-workflow/internal/observability"
	"github.com/spec-kit/hvac-workflow/internal/repository"
	"github.com/spec-kit/hvac-workflow/internal/workflow"
	apperrors "github.com/spec-kit/hvac-workflow/pkg/util/errorutil"
)

// Attempts for a read-modify-write before surfacing the version conflict.
const maxWriteAttempts = 3

// WorkflowService orchestrates the ticket workflow engine: validated
// transitions, escalations, technician assignment and KPI queries. It holds
// no mutable state of its own; tickets live in the repositories.
type WorkflowService struct {
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
	history     repository.TicketHistoryRepository
	matcher     *workflow.Matcher
	directory   EscalationDirectory
	dispatcher  events.Dispatcher
	metricCache *cache.MetricsCache
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	TicketRepo     repository.TicketRepository
	TechnicianRepo repository.TechnicianRepository
	HistoryRepo    repository.TicketHistoryRepository
	Matcher        *workflow.Matcher
	Directory      EscalationDirectory
	Dispatcher     events.Dispatcher
	MetricsCache   *cache.MetricsCache
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	matcher := deps.Matcher
	if matcher == nil {
		matcher = workflow.NewMatcher(nil)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{
		tickets:     deps.TicketRepo,
		technicians: deps.TechnicianRepo,
		history:     deps.HistoryRepo,
		matcher:     matcher,
		directory:   deps.Directory,
		dispatcher:  deps.Dispatcher,
		metricCache: deps.MetricsCache,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         now,
	}
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Title           string
	Description     string
	CustomerID      string
	EquipmentID     *string
	EquipmentType   *domain.EquipmentType
	Priority        domain.TicketPriority
	ServiceLocation string
	ReportedBy      string
	ContactInfo     string
}

// CreateTicket opens a new service ticket with a generated ticket number.
func (s *WorkflowService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.ServiceTicket, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if strings.TrimSpace(input.CustomerID) == "" {
		return nil, apperrors.NewValidationError("customer_id required", nil)
	}

	ticket := &domain.ServiceTicket{
		TicketNumber:    generateTicketNumber(s.now()),
		CustomerID:      input.CustomerID,
		EquipmentID:     input.EquipmentID,
		EquipmentType:   input.EquipmentType,
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Status:          domain.TicketStatusOpen,
		Priority:        input.Priority,
		ServiceLocation: input.ServiceLocation,
		ReportedBy:      input.ReportedBy,
		ContactInfo:     input.ContactInfo,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if s.metrics != nil {
		s.metrics.TicketsCreated.Inc()
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			CustomerID:   ticket.CustomerID,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
		},
	})
	return ticket, nil
}

// WorkflowState is the dispatcher view of a ticket's position in the
// workflow.
type WorkflowState struct {
	TicketID            string
	CurrentStatus       domain.TicketStatus
	AllowedTransitions  []domain.TicketStatus
	NextActions         []string
	EscalationRequired  bool
	EstimatedCompletion *time.Time
}

// GetWorkflowState reports the current status, legal transitions and
// escalation posture of a ticket.
func (s *WorkflowService) GetWorkflowState(ctx context.Context, ticketID string) (*WorkflowState, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	state := &WorkflowState{
		TicketID:           ticket.ID,
		CurrentStatus:      ticket.Status,
		AllowedTransitions: workflow.AllowedTransitions(ticket.Status),
		NextActions:        workflow.NextActions(ticket.Status),
		EscalationRequired: workflow.EscalationRequired(ticket, now),
	}
	if ticket.Status != domain.TicketStatusCompleted {
		eta := now.Add(time.Duration(workflow.EstimatedHours(ticket.Priority) * float64(time.Hour)))
		state.EstimatedCompletion = &eta
	}
	return state, nil
}

// TransitionStatus applies a validated status change and persists it under
// the optimistic version guard.
func (s *WorkflowService) TransitionStatus(ctx context.Context, ticketID string, newStatus domain.TicketStatus, notes string, performedBy *string) (*domain.ServiceTicket, error) {
	var oldStatus domain.TicketStatus
	ticket, err := s.saveWithRetry(ctx, ticketID, func(t *domain.ServiceTicket) error {
		oldStatus = t.Status
		return workflow.Transition(t, newStatus, s.now())
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(oldStatus), string(newStatus)).Inc()
	}
	s.recordHistory(ctx, &domain.TicketHistory{
		TicketID:    ticket.ID,
		PerformedBy: performedBy,
		ChangeType:  domain.ChangeTypeStatus,
		OldValue:    map[string]any{"status": oldStatus},
		NewValue:    map[string]any{"status": newStatus},
		Notes:       notes,
	})
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketStatusChanged,
		TicketID:    ticket.ID,
		PerformedBy: performedBy,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Notes:     notes,
		},
	})
	return ticket, nil
}

// AssignTechnician assigns the given technician, or delegates to the matcher
// when technicianID is nil. First assignment moves OPEN tickets to ASSIGNED;
// assignment past ASSIGNED is a reassignment and keeps the current status.
func (s *WorkflowService) AssignTechnician(ctx context.Context, ticketID string, technicianID *string, performedBy *string) (string, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return "", err
	}
	if ticket.Status.IsTerminal() {
		return "", apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusAssigned))
	}

	var chosen string
	if technicianID != nil {
		tech, err := s.technicians.GetByID(ctx, *technicianID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return "", apperrors.NewNotFound("technician", map[string]any{"technician_id": *technicianID})
			}
			return "", apperrors.MapError(err)
		}
		chosen = tech.ID
	} else {
		pool, err := s.technicians.List(ctx, repository.TechnicianFilter{AvailableOnly: true, Limit: 1000})
		if err != nil {
			return "", apperrors.MapError(err)
		}
		chosen, err = s.matcher.FindBestTechnician(ticket, pool)
		if err != nil {
			return "", err
		}
	}

	// Claim the technician before touching the ticket so two tickets cannot
	// land on the same exclusive assignment.
	if err := s.technicians.Reserve(ctx, chosen); err != nil {
		return "", err
	}

	var previous *string
	updated, err := s.saveWithRetry(ctx, ticketID, func(t *domain.ServiceTicket) error {
		previous = t.AssignedTechnicianID
		t.AssignedTechnicianID = &chosen
		if t.Status == domain.TicketStatusOpen {
			return workflow.Transition(t, domain.TicketStatusAssigned, s.now())
		}
		return nil
	})
	if err != nil {
		if releaseErr := s.technicians.Release(ctx, chosen); releaseErr != nil {
			s.logger.Warn("failed to release technician after aborted assignment",
				zap.String("technician_id", chosen), zap.Error(releaseErr))
		}
		return "", err
	}
	if previous != nil && *previous != chosen {
		if err := s.technicians.Release(ctx, *previous); err != nil {
			s.logger.Warn("failed to release previous assignee",
				zap.String("technician_id", *previous), zap.Error(err))
		}
	}

	if s.metrics != nil {
		s.metrics.Assignments.Inc()
	}
	s.recordHistory(ctx, &domain.TicketHistory{
		TicketID:    updated.ID,
		PerformedBy: performedBy,
		ChangeType:  domain.ChangeTypeAssignee,
		OldValue:    map[string]any{"technician_id": previous},
		NewValue:    map[string]any{"technician_id": chosen},
	})
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketAssigned,
		TicketID:    updated.ID,
		PerformedBy: performedBy,
		Payload: events.TicketAssignedPayload{
			TechnicianID: chosen,
			Reassigned:   previous != nil,
		},
	})
	return chosen, nil
}

// EscalateTicket produces an escalation record for the ticket, applying the
// priority bump and resolving the routing target. Directory failures leave
// the target pending rather than failing the escalation.
func (s *WorkflowService) EscalateTicket(ctx context.Context, ticketID string, reason domain.EscalationReason, performedBy *string) (*domain.Escalation, error) {
	var record domain.Escalation
	var oldPriority domain.TicketPriority
	ticket, err := s.saveWithRetry(ctx, ticketID, func(t *domain.ServiceTicket) error {
		oldPriority = t.Priority
		record = workflow.BuildEscalation(t, reason, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	record.EscalatedTo = domain.EscalatedToPending
	if s.directory != nil {
		target, err := s.directory.Resolve(ctx, record.EscalationLevel)
		if err != nil {
			s.logger.Warn("escalation directory lookup failed; leaving target pending",
				zap.String("ticket_id", ticket.ID),
				zap.String("level", string(record.EscalationLevel)),
				zap.Error(err))
		} else {
			record.EscalatedTo = target
		}
	}

	if s.metrics != nil {
		s.metrics.Escalations.WithLabelValues(string(reason), string(record.EscalationLevel)).Inc()
	}
	s.recordHistory(ctx, &domain.TicketHistory{
		TicketID:    ticket.ID,
		PerformedBy: performedBy,
		ChangeType:  domain.ChangeTypeEscalation,
		OldValue:    map[string]any{"priority": oldPriority},
		NewValue: map[string]any{
			"priority":     ticket.Priority,
			"reason":       reason,
			"level":        record.EscalationLevel,
			"escalated_to": record.EscalatedTo,
		},
	})
	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketEscalated,
		TicketID:    ticket.ID,
		PerformedBy: performedBy,
		Payload: events.TicketEscalatedPayload{
			Reason:      reason,
			Level:       record.EscalationLevel,
			EscalatedTo: record.EscalatedTo,
		},
	})
	return &record, nil
}

// GetWorkflowMetrics aggregates workflow KPIs over tickets created in
// [start, end], serving from the TTL cache when possible.
func (s *WorkflowService) GetWorkflowMetrics(ctx context.Context, start, end time.Time) (*workflow.WorkflowMetrics, error) {
	if end.Before(start) {
		return nil, apperrors.NewValidationError("end must not precede start", nil)
	}
	window := workflow.Window{Start: start, End: end}

	if cached, ok := s.metricCache.Get(ctx, window); ok {
		return cached, nil
	}

	tickets, err := s.tickets.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	computed := workflow.ComputeMetrics(tickets, window)
	s.metricCache.Set(ctx, window, computed)
	return &computed, nil
}

// GetTicket fetches one ticket.
func (s *WorkflowService) GetTicket(ctx context.Context, ticketID string) (*domain.ServiceTicket, error) {
	return s.loadTicket(ctx, ticketID)
}

// ListTickets returns tickets matching the filter.
func (s *WorkflowService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.ServiceTicket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListHistory returns the audit trail for a ticket.
func (s *WorkflowService) ListHistory(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	if _, err := s.loadTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *WorkflowService) loadTicket(ctx context.Context, ticketID string) (*domain.ServiceTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// saveWithRetry runs a read-mutate-write cycle under the version guard,
// retrying a bounded number of times when another writer wins the race.
func (s *WorkflowService) saveWithRetry(ctx context.Context, ticketID string, mutate func(*domain.ServiceTicket) error) (*domain.ServiceTicket, error) {
	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		ticket, err := s.loadTicket(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		if err := mutate(ticket); err != nil {
			return nil, err
		}
		err = s.tickets.Update(ctx, ticket, ticket.Version)
		if err == nil {
			return ticket, nil
		}
		if !apperrors.HasCode(err, apperrors.CodeConcurrentModification) {
			return nil, apperrors.MapError(err)
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *WorkflowService) recordHistory(ctx context.Context, entry *domain.TicketHistory) {
	if s.history == nil {
		return
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record ticket history",
			zap.String("ticket_id", entry.TicketID), zap.Error(err))
	}
}

func (s *WorkflowService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// generateTicketNumber builds the human-readable identifier
// HVAC-<base36 timestamp>-<base36 random>.
func generateTicketNumber(now time.Time) string {
	ts := strconv.FormatInt(now.UnixMilli(), 36)
	rnd := strconv.FormatInt(int64(rand.Uint32()), 36)
	return strings.ToUpper(fmt.Sprintf("HVAC-%s-%s", ts, rnd))
}
