package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/hvac-workflow/internal/config"
	"github.com/spec-kit/hvac-workflow/internal/domain"
)

// EscalationDirectory resolves an escalation level to an on-call contact.
// Lookup failure is a recoverable external-dependency error: escalations
// still proceed with a pending target.
type EscalationDirectory interface {
	Resolve(ctx context.Context, level domain.EscalationLevel) (string, error)
}

type configDirectory struct {
	cfg config.EscalationConfig
}

// NewConfigDirectory returns a directory backed by static configuration.
func NewConfigDirectory(cfg config.EscalationConfig) EscalationDirectory {
	return &configDirectory{cfg: cfg}
}

func (d *configDirectory) Resolve(_ context.Context, level domain.EscalationLevel) (string, error) {
	var contact string
	switch level {
	case domain.EscalationLevelSupervisor:
		contact = d.cfg.SupervisorContact
	case domain.EscalationLevelManager:
		contact = d.cfg.ManagerContact
	case domain.EscalationLevelDirector:
		contact = d.cfg.DirectorContact
	}
	if contact == "" {
		return "", fmt.Errorf("no contact configured for level %s", level)
	}
	return contact, nil
}
