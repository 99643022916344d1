package dto

import (
	"time"

	"github.com/spec-kit/hvac-workflow/internal/domain"
)

// CreateTechnicianRequest payload.
type CreateTechnicianRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Skills   []domain.Skill `json:"skills"`
	HomeBase string         `json:"home_base"`
}

// TechnicianResponse representation.
type TechnicianResponse struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	Skills          []domain.Skill `json:"skills"`
	Available       bool           `json:"available"`
	CurrentWorkload int            `json:"current_workload"`
	HomeBase        string         `json:"home_base"`
	CreatedAt       time.Time      `json:"created_at"`
}
