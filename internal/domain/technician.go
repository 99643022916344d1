package domain

import "time"

// Technician represents a field-service staff member eligible for assignment.
type Technician struct {
	ID              string
	Name            string
	Email           string
	Skills          []Skill
	Available       bool
	CurrentWorkload int
	HomeBase        string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasSkill reports whether the technician possesses the given skill.
func (t *Technician) HasSkill(skill Skill) bool {
	for _, s := range t.Skills {
		if s == skill {
			return true
		}
	}
	return false
}
