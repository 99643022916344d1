package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hvac-workflow/internal/api/dto"
	"github.com/spec-kit/hvac-workflow/internal/auth"
	"github.com/spec-kit/hvac-workflow/internal/domain"
	"github.com/spec-kit/hvac-workflow/internal/repository"
	"github.com/spec-kit/hvac-workflow/internal/service"
	apperrors "github.com/spec-kit/hvac-workflow/pkg/util/errorutil"
)

// TicketsHandler manages ticket workflow endpoints.
type TicketsHandler struct {
	workflow *service.WorkflowService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(workflowService *service.WorkflowService) *TicketsHandler {
	return &TicketsHandler{workflow: workflowService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.workflow.CreateTicket(c.UserContext(), service.CreateTicketInput{
		Title:           req.Title,
		Description:     req.Description,
		CustomerID:      req.CustomerID,
		EquipmentID:     req.EquipmentID,
		EquipmentType:   req.EquipmentType,
		Priority:        req.Priority,
		ServiceLocation: req.ServiceLocation,
		ReportedBy:      req.ReportedBy,
		ContactInfo:     req.ContactInfo,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.workflow.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketFilter(c)
	tickets, err := h.workflow.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetWorkflowState GET /tickets/:id/workflow.
func (h *TicketsHandler) GetWorkflowState(c *fiber.Ctx) error {
	state, err := h.workflow.GetWorkflowState(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.WorkflowStateResponse{
		TicketID:            state.TicketID,
		CurrentStatus:       state.CurrentStatus,
		AllowedTransitions:  state.AllowedTransitions,
		NextActions:         state.NextActions,
		EscalationRequired:  state.EscalationRequired,
		EstimatedCompletion: state.EstimatedCompletion,
	}})
}

// TransitionStatus POST /tickets/:id/transition.
func (h *TicketsHandler) TransitionStatus(c *fiber.Ctx) error {
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.NewStatus == "" {
		return apperrors.NewValidationError("new_status required", nil)
	}

	ticket, err := h.workflow.TransitionStatus(c.UserContext(), c.Params("id"), req.NewStatus, req.Notes, performedBy(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AssignTechnician POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTechnician(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	technicianID, err := h.workflow.AssignTechnician(c.UserContext(), c.Params("id"), req.TechnicianID, performedBy(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"technician_id": technicianID}})
}

// EscalateTicket POST /tickets/:id/escalate.
func (h *TicketsHandler) EscalateTicket(c *fiber.Ctx) error {
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Reason == "" {
		return apperrors.NewValidationError("reason required", nil)
	}

	record, err := h.workflow.EscalateTicket(c.UserContext(), c.Params("id"), req.Reason, performedBy(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EscalationResponse{
		TicketID:         record.TicketID,
		Reason:           record.Reason,
		EscalationLevel:  record.EscalationLevel,
		EscalatedTo:      record.EscalatedTo,
		EscalatedAt:      record.EscalatedAt,
		OriginalAssignee: record.OriginalAssignee,
	}})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	entries, err := h.workflow.ListHistory(c.UserContext(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.TicketHistoryResponse{
			ID:          entry.ID,
			PerformedBy: entry.PerformedBy,
			ChangeType:  entry.ChangeType,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			Notes:       entry.Notes,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseTicketFilter(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if customer := c.Query("customer_id"); customer != "" {
		filter.CustomerID = &customer
	}
	if tech := c.Query("technician_id"); tech != "" {
		filter.TechnicianID = &tech
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(raw))
		}
	}
	for _, raw := range strings.Split(c.Query("priority"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(raw))
		}
	}
	if from := c.Query("created_from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.CreatedFrom = &parsed
		}
	}
	if to := c.Query("created_to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.CreatedTo = &parsed
		}
	}
	return filter
}

func performedBy(c *fiber.Ctx) *string {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return nil
	}
	return &principal.Account.ID
}

func ticketResponse(ticket *domain.ServiceTicket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                   ticket.ID,
		TicketNumber:         ticket.TicketNumber,
		CustomerID:           ticket.CustomerID,
		EquipmentID:          ticket.EquipmentID,
		EquipmentType:        ticket.EquipmentType,
		AssignedTechnicianID: ticket.AssignedTechnicianID,
		Title:                ticket.Title,
		Description:          ticket.Description,
		Status:               ticket.Status,
		Priority:             ticket.Priority,
		ServiceLocation:      ticket.ServiceLocation,
		CreatedAt:            ticket.CreatedAt,
		UpdatedAt:            ticket.UpdatedAt,
		StartedAt:            ticket.StartedAt,
		CompletedDate:        ticket.CompletedDate,
	}
}
