package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hvac-workflow/internal/service"
	apperrors "github.com/spec-kit/hvac-workflow/pkg/util/errorutil"
)

// WorkflowMetricsHandler serves aggregated workflow KPIs.
type WorkflowMetricsHandler struct {
	workflow *service.WorkflowService
}

// NewWorkflowMetricsHandler constructs handler.
func NewWorkflowMetricsHandler(workflowService *service.WorkflowService) *WorkflowMetricsHandler {
	return &WorkflowMetricsHandler{workflow: workflowService}
}

// GetWorkflowMetrics GET /metrics/workflow?start=&end=.
func (h *WorkflowMetricsHandler) GetWorkflowMetrics(c *fiber.Ctx) error {
	end := time.Now()
	start := end.AddDate(0, -1, 0)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperrors.NewValidationError("start must be RFC3339", nil)
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperrors.NewValidationError("end must be RFC3339", nil)
		}
		end = parsed
	}

	metrics, err := h.workflow.GetWorkflowMetrics(c.UserContext(), start, end)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": metrics, "window": fiber.Map{"start": start, "end": end}})
}
