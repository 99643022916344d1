package workflow

import (
	"sort"

	"github.com/spec-kit/hvac-workflow/internal/domain"
	apperrors "github.com/spec-kit/hvac-workflow/pkg/util/errorutil"
)

var equipmentSkills = map[domain.EquipmentType][]domain.Skill{
	domain.EquipmentAirConditioner:    {domain.SkillRefrigeration, domain.SkillElectrical},
	domain.EquipmentHeatPump:          {domain.SkillRefrigeration, domain.SkillElectrical, domain.SkillControls},
	domain.EquipmentFurnace:           {domain.SkillGasSystems, domain.SkillElectrical},
	domain.EquipmentBoiler:            {domain.SkillHydronicSystems, domain.SkillGasSystems},
	domain.EquipmentVentilationSystem: {domain.SkillAirflow, domain.SkillElectrical},
	domain.EquipmentThermostat:        {domain.SkillControls, domain.SkillElectrical},
	domain.EquipmentDuctwork:          {domain.SkillAirflow, domain.SkillInstallation},
	domain.EquipmentRadiator:          {domain.SkillHydronicSystems},
	domain.EquipmentHeatExchanger:     {domain.SkillRefrigeration, domain.SkillHydronicSystems},
	domain.EquipmentOther:             {domain.SkillGeneralMaintenance},
}

// RequiredSkills derives the skill set a ticket demands from its equipment
// type. HVAC_BASICS is always required; a ticket without equipment needs
// only that.
func RequiredSkills(equipment *domain.EquipmentType) []domain.Skill {
	skills := []domain.Skill{domain.SkillHVACBasics}
	if equipment == nil {
		return skills
	}
	return append(skills, equipmentSkills[*equipment]...)
}

// Scorer ranks a candidate for a set of required skills. Higher is better;
// zero or below means ineligible. Pluggable so deployments can weight in
// travel distance or workload signals.
type Scorer interface {
	Score(candidate *domain.Technician, required []domain.Skill) float64
}

// SkillCoverageScorer is the default scoring strategy: the fraction of
// required skills the candidate possesses.
type SkillCoverageScorer struct{}

func (SkillCoverageScorer) Score(candidate *domain.Technician, required []domain.Skill) float64 {
	if len(required) == 0 {
		return 0
	}
	matched := 0
	for _, skill := range required {
		if candidate.HasSkill(skill) {
			matched++
		}
	}
	return float64(matched) / float64(len(required))
}

// Matcher selects the best available technician for a ticket.
type Matcher struct {
	scorer Scorer
}

// NewMatcher builds a matcher; a nil scorer falls back to skill coverage.
func NewMatcher(scorer Scorer) *Matcher {
	if scorer == nil {
		scorer = SkillCoverageScorer{}
	}
	return &Matcher{scorer: scorer}
}

// FindBestTechnician picks the highest-scoring available candidate, breaking
// ties by lowest current workload and then by id so repeated calls over the
// same pool are deterministic. Candidates matching none of the required
// skills are ineligible; an empty or fully ineligible pool yields
// NO_AVAILABLE_TECHNICIAN.
func (m *Matcher) FindBestTechnician(ticket *domain.ServiceTicket, pool []domain.Technician) (string, error) {
	required := RequiredSkills(ticket.EquipmentType)

	type scored struct {
		tech  *domain.Technician
		score float64
	}
	candidates := make([]scored, 0, len(pool))
	for i := range pool {
		tech := &pool[i]
		if !tech.Available {
			continue
		}
		score := m.scorer.Score(tech, required)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, scored{tech: tech, score: score})
	}

	if len(candidates) == 0 {
		return "", apperrors.NewNoAvailableTechnician(map[string]any{
			"ticket_id":       ticket.ID,
			"required_skills": required,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].tech.CurrentWorkload != candidates[j].tech.CurrentWorkload {
			return candidates[i].tech.CurrentWorkload < candidates[j].tech.CurrentWorkload
		}
		return candidates[i].tech.ID < candidates[j].tech.ID
	})

	return candidates[0].tech.ID, nil
}
