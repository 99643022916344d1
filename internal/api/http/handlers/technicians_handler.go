package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hvac-workflow/internal/api/dto"
	"github.com/spec-kit/hvac-workflow/internal/domain"
	"github.com/spec-kit/hvac-workflow/internal/repository"
	apperrors "github.com/spec-kit/hvac-workflow/pkg/util/errorutil"
)

// TechniciansHandler manages the technician candidate pool.
type TechniciansHandler struct {
	technicians repository.TechnicianRepository
}

// NewTechniciansHandler constructs handler.
func NewTechniciansHandler(technicians repository.TechnicianRepository) *TechniciansHandler {
	return &TechniciansHandler{technicians: technicians}
}

// CreateTechnician POST /technicians.
func (h *TechniciansHandler) CreateTechnician(c *fiber.Ctx) error {
	var req dto.CreateTechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return apperrors.NewValidationError("name and email required", nil)
	}

	tech := &domain.Technician{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Skills:    req.Skills,
		Available: true,
		HomeBase:  req.HomeBase,
	}
	if err := h.technicians.Create(c.UserContext(), tech); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": technicianResponse(tech)})
}

// ListTechnicians GET /technicians.
func (h *TechniciansHandler) ListTechnicians(c *fiber.Ctx) error {
	filter := repository.TechnicianFilter{
		AvailableOnly: c.QueryBool("available", false),
		Limit:         c.QueryInt("limit", 100),
		Offset:        c.QueryInt("offset", 0),
	}
	if skill := c.Query("skill"); skill != "" {
		s := domain.Skill(skill)
		filter.Skill = &s
	}

	techs, err := h.technicians.List(c.UserContext(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.TechnicianResponse, 0, len(techs))
	for i := range techs {
		items = append(items, technicianResponse(&techs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTechnician GET /technicians/:id.
func (h *TechniciansHandler) GetTechnician(c *fiber.Ctx) error {
	tech, err := h.technicians.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("technician", map[string]any{"technician_id": c.Params("id")})
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": technicianResponse(tech)})
}

func technicianResponse(tech *domain.Technician) dto.TechnicianResponse {
	return dto.TechnicianResponse{
		ID:              tech.ID,
		Name:            tech.Name,
		Email:           tech.Email,
		Skills:          tech.Skills,
		Available:       tech.Available,
		CurrentWorkload: tech.CurrentWorkload,
		HomeBase:        tech.HomeBase,
		CreatedAt:       tech.CreatedAt,
	}
}
