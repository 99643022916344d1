package domain

import "time"

// AccountRole enumerates back-office permission tiers.
type AccountRole string

const (
	AccountRoleAdmin      AccountRole = "ADMIN"
	AccountRoleDispatcher AccountRole = "DISPATCHER"
	AccountRoleTechnician AccountRole = "TECHNICIAN"
)

// Account is an authenticated operator of the workflow API. Technician
// accounts carry a reference to their technician record.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         AccountRole
	TechnicianID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
