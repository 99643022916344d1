package service

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/hvac-workflow/internal/domain"
	"github.com/spec-kit/hvac-workflow/internal/repository"
	apperrors "github.com/spec-kit/hvac-workflow/pkg/util/errorutil"
)

type memTicketRepo struct {
	tickets map[string]domain.ServiceTicket
	nextID  int
	// failUpdates injects version conflicts for the next N updates.
	failUpdates int
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[string]domain.ServiceTicket{}}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.ServiceTicket) error {
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	ticket.Version = 1
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.ServiceTicket, expectedVersion int64) error {
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return apperrors.NewNotFound("ticket", nil)
	}
	if r.failUpdates > 0 {
		r.failUpdates--
		return apperrors.NewConcurrentModification("ticket", ticket.ID)
	}
	if stored.Version != expectedVersion {
		return apperrors.NewConcurrentModification("ticket", ticket.ID)
	}
	ticket.Version = expectedVersion + 1
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.ServiceTicket, error) {
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (r *memTicketRepo) GetByTicketNumber(_ context.Context, number string) (*domain.ServiceTicket, error) {
	for _, t := range r.tickets {
		if t.TicketNumber == number {
			copied := t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.ServiceTicket, error) {
	var out []domain.ServiceTicket
	for _, t := range r.tickets {
		if filter.CreatedFrom != nil && t.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && t.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *memTicketRepo) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.ServiceTicket, error) {
	return r.ListWithFilter(ctx, repository.TicketFilter{CreatedFrom: &start, CreatedTo: &end})
}

type memTechnicianRepo struct {
	techs map[string]domain.Technician
}

func newMemTechnicianRepo(techs ...domain.Technician) *memTechnicianRepo {
	repo := &memTechnicianRepo{techs: map[string]domain.Technician{}}
	for _, t := range techs {
		repo.techs[t.ID] = t
	}
	return repo
}

func (r *memTechnicianRepo) Create(_ context.Context, tech *domain.Technician) error {
	r.techs[tech.ID] = *tech
	return nil
}

func (r *memTechnicianRepo) Update(_ context.Context, tech *domain.Technician) error {
	if _, ok := r.techs[tech.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.techs[tech.ID] = *tech
	return nil
}

func (r *memTechnicianRepo) GetByID(_ context.Context, id string) (*domain.Technician, error) {
	tech, ok := r.techs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := tech
	return &copied, nil
}

func (r *memTechnicianRepo) List(_ context.Context, filter repository.TechnicianFilter) ([]domain.Technician, error) {
	var out []domain.Technician
	for _, t := range r.techs {
		if filter.AvailableOnly && !t.Available {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *memTechnicianRepo) Reserve(_ context.Context, id string) error {
	tech, ok := r.techs[id]
	if !ok {
		return apperrors.NewNotFound("technician", nil)
	}
	if !tech.Available {
		return apperrors.NewConflict("technician already reserved", nil)
	}
	tech.Available = false
	tech.CurrentWorkload++
	r.techs[id] = tech
	return nil
}

func (r *memTechnicianRepo) Release(_ context.Context, id string) error {
	tech, ok := r.techs[id]
	if !ok {
		return apperrors.NewNotFound("technician", nil)
	}
	tech.Available = true
	if tech.CurrentWorkload > 0 {
		tech.CurrentWorkload--
	}
	r.techs[id] = tech
	return nil
}

type memHistoryRepo struct {
	entries []domain.TicketHistory
}

func (r *memHistoryRepo) Create(_ context.Context, entry *domain.TicketHistory) error {
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memHistoryRepo) ListByTicket(_ context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	var out []domain.TicketHistory
	for _, e := range r.entries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

type failingDirectory struct{}

func (failingDirectory) Resolve(context.Context, domain.EscalationLevel) (string, error) {
	return "", fmt.Errorf("directory unreachable")
}

type staticDirectory struct{ contact string }

func (d staticDirectory) Resolve(context.Context, domain.EscalationLevel) (string, error) {
	return d.contact, nil
}

func newTestService(tickets *memTicketRepo, techs *memTechnicianRepo, directory EscalationDirectory) *WorkflowService {
	return NewWorkflowService(WorkflowDependencies{
		TicketRepo:     tickets,
		TechnicianRepo: techs,
		HistoryRepo:    &memHistoryRepo{},
		Directory:      directory,
	})
}

func TestCreateTicketThenWorkflowStateRoundTrip(t *testing.T) {
	svc := newTestService(newMemTicketRepo(), newMemTechnicianRepo(), nil)

	ticket, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		Title:      "No cooling",
		CustomerID: "cust-1",
		Priority:   domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("new ticket status = %s, want OPEN", ticket.Status)
	}
	if ok, _ := regexp.MatchString(`^HVAC-[0-9A-Z]+-[0-9A-Z]+$`, ticket.TicketNumber); !ok {
		t.Fatalf("bad ticket number format: %s", ticket.TicketNumber)
	}

	state, err := svc.GetWorkflowState(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.CurrentStatus != domain.TicketStatusOpen {
		t.Fatalf("state status = %s", state.CurrentStatus)
	}
	want := map[domain.TicketStatus]bool{
		domain.TicketStatusAssigned:  true,
		domain.TicketStatusScheduled: true,
		domain.TicketStatusCancelled: true,
	}
	if len(state.AllowedTransitions) != len(want) {
		t.Fatalf("allowed transitions = %v", state.AllowedTransitions)
	}
	for _, s := range state.AllowedTransitions {
		if !want[s] {
			t.Fatalf("unexpected allowed transition %s", s)
		}
	}
	if state.EstimatedCompletion == nil {
		t.Fatalf("open ticket should carry an estimated completion")
	}
}

func TestCreateTicketValidation(t *testing.T) {
	svc := newTestService(newMemTicketRepo(), newMemTechnicianRepo(), nil)
	_, err := svc.CreateTicket(context.Background(), CreateTicketInput{CustomerID: "cust-1"})
	if !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}

	// Empty priority defaults to MEDIUM.
	ticket, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		Title: "t", CustomerID: "cust-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Fatalf("default priority = %s", ticket.Priority)
	}
}

func TestTransitionStatusRejectsIllegalMove(t *testing.T) {
	tickets := newMemTicketRepo()
	svc := newTestService(tickets, newMemTechnicianRepo(), nil)

	ticket, err := svc.CreateTicket(context.Background(), CreateTicketInput{Title: "t", CustomerID: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.TransitionStatus(context.Background(), ticket.ID, domain.TicketStatusInProgress, "", nil)
	if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}

	stored, _ := tickets.GetByID(context.Background(), ticket.ID)
	if stored.Status != domain.TicketStatusOpen {
		t.Fatalf("failed transition changed stored status to %s", stored.Status)
	}
}

func TestTransitionStatusUnknownTicket(t *testing.T) {
	svc := newTestService(newMemTicketRepo(), newMemTechnicianRepo(), nil)
	_, err := svc.TransitionStatus(context.Background(), "missing", domain.TicketStatusCancelled, "", nil)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestFullLifecycleStampsTimestamps(t *testing.T) {
	tickets := newMemTicketRepo()
	svc := newTestService(tickets, newMemTechnicianRepo(), nil)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, CreateTicketInput{Title: "t", CustomerID: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, status := range []domain.TicketStatus{
		domain.TicketStatusAssigned,
		domain.TicketStatusInProgress,
		domain.TicketStatusCompleted,
	} {
		if _, err := svc.TransitionStatus(ctx, ticket.ID, status, "", nil); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	stored, _ := tickets.GetByID(ctx, ticket.ID)
	if stored.StartedAt == nil || stored.CompletedDate == nil {
		t.Fatalf("timestamps missing: started=%v completed=%v", stored.StartedAt, stored.CompletedDate)
	}

	// Terminal: nothing more is accepted.
	if _, err := svc.TransitionStatus(ctx, ticket.ID, domain.TicketStatusOnHold, "", nil); err == nil {
		t.Fatalf("transition out of COMPLETED must fail")
	}

	// Completed tickets report no estimated completion.
	state, err := svc.GetWorkflowState(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.EstimatedCompletion != nil {
		t.Fatalf("completed ticket should not carry an estimate")
	}
}

func TestTransitionRetriesOnVersionConflict(t *testing.T) {
	tickets := newMemTicketRepo()
	svc := newTestService(tickets, newMemTechnicianRepo(), nil)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, CreateTicketInput{Title: "t", CustomerID: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tickets.failUpdates = 2
	if _, err := svc.TransitionStatus(ctx, ticket.ID, domain.TicketStatusCancelled, "", nil); err != nil {
		t.Fatalf("expected retry to absorb two conflicts, got %v", err)
	}

	ticket2, err := svc.CreateTicket(ctx, CreateTicketInput{Title: "t2", CustomerID: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tickets.failUpdates = 5
	_, err = svc.TransitionStatus(ctx, ticket2.ID, domain.TicketStatusCancelled, "", nil)
	if !apperrors.HasCode(err, apperrors.CodeConcurrentModification) {
		t.Fatalf("expected CONCURRENT_MODIFICATION after exhausted retries, got %v", err)
	}
}

func TestAssignTechnicianViaMatcher(t *testing.T) {
	equip := domain.EquipmentAirConditioner
	tickets := newMemTicketRepo()
	techs := newMemTechnicianRepo(
		domain.Technician{ID: "tech-basic", Available: true, Skills: []domain.Skill{domain.SkillHVACBasics}},
		domain.Technician{ID: "tech-full", Available: true, Skills: []domain.Skill{
			domain.SkillHVACBasics, domain.SkillRefrigeration, domain.SkillElectrical,
		}},
	)
	svc := newTestService(tickets, techs, nil)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, CreateTicketInput{
		Title: "AC down", CustomerID: "c", EquipmentType: &equip,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	chosen, err := svc.AssignTechnician(ctx, ticket.ID, nil, nil)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if chosen != "tech-full" {
		t.Fatalf("matcher picked %s, want tech-full", chosen)
	}

	stored, _ := tickets.GetByID(ctx, ticket.ID)
	if stored.Status != domain.TicketStatusAssigned {
		t.Fatalf("ticket status = %s, want ASSIGNED", stored.Status)
	}
	if stored.AssignedTechnicianID == nil || *stored.AssignedTechnicianID != "tech-full" {
		t.Fatalf("assignee = %v", stored.AssignedTechnicianID)
	}

	reserved, _ := techs.GetByID(ctx, "tech-full")
	if reserved.Available {
		t.Fatalf("assigned technician should be reserved")
	}
}

func TestAssignTechnicianDirectAndReassign(t *testing.T) {
	tickets := newMemTicketRepo()
	techs := newMemTechnicianRepo(
		domain.Technician{ID: "tech-1", Available: true, Skills: []domain.Skill{domain.SkillHVACBasics}},
		domain.Technician{ID: "tech-2", Available: true, Skills: []domain.Skill{domain.SkillHVACBasics}},
	)
	svc := newTestService(tickets, techs, nil)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, CreateTicketInput{Title: "t", CustomerID: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first := "tech-1"
	if _, err := svc.AssignTechnician(ctx, ticket.ID, &first, nil); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.TransitionStatus(ctx, ticket.ID, domain.TicketStatusInProgress, "", nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Reassignment past ASSIGNED keeps the current status and releases the
	// previous technician.
	second := "tech-2"
	if _, err := svc.AssignTechnician(ctx, ticket.ID, &second, nil); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	stored, _ := tickets.GetByID(ctx, ticket.ID)
	if stored.Status != domain.TicketStatusInProgress {
		t.Fatalf("reassignment changed status to %s", stored.Status)
	}
	released, _ := techs.GetByID(ctx, "tech-1")
	if !released.Available {
		t.Fatalf("previous assignee should be released")
	}
}

func TestAssignTechnicianErrors(t *testing.T) {
	tickets := newMemTicketRepo()
	svc := newTestService(tickets, newMemTechnicianRepo(), nil)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, CreateTicketInput{Title: "t", CustomerID: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	missing := "ghost"
	_, err = svc.AssignTechnician(ctx, ticket.ID, &missing, nil)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("unknown technician: expected NOT_FOUND, got %v", err)
	}

	_, err = svc.AssignTechnician(ctx, ticket.ID, nil, nil)
	if !apperrors.HasCode(err, apperrors.CodeNoAvailableTechnician) {
		t.Fatalf("empty pool: expected NO_AVAILABLE_TECHNICIAN, got %v", err)
	}
}

func TestEscalateTicketPendingOnDirectoryFailure(t *testing.T) {
	tickets := newMemTicketRepo()
	svc := newTestService(tickets, newMemTechnicianRepo(), failingDirectory{})
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, CreateTicketInput{
		Title: "t", CustomerID: "c", Priority: domain.TicketPriorityLow,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	record, err := svc.EscalateTicket(ctx, ticket.ID, domain.EscalationReasonCustomerComplaint, nil)
	if err != nil {
		t.Fatalf("escalation must not fail on directory errors: %v", err)
	}
	if record.EscalatedTo != domain.EscalatedToPending {
		t.Fatalf("EscalatedTo = %s, want pending", record.EscalatedTo)
	}
	if record.EscalationLevel != domain.EscalationLevelManager {
		t.Fatalf("level = %s, want MANAGER", record.EscalationLevel)
	}

	stored, _ := tickets.GetByID(ctx, ticket.ID)
	if stored.Priority != domain.TicketPriorityHigh {
		t.Fatalf("complaint escalation should bump LOW to HIGH, got %s", stored.Priority)
	}
	if stored.Status != domain.TicketStatusOpen {
		t.Fatalf("escalation must not change status, got %s", stored.Status)
	}
}

func TestEscalateTicketResolvesDirectory(t *testing.T) {
	svc := newTestService(newMemTicketRepo(), newMemTechnicianRepo(), staticDirectory{contact: "oncall@example.com"})
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, CreateTicketInput{Title: "t", CustomerID: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	record, err := svc.EscalateTicket(ctx, ticket.ID, domain.EscalationReasonOverdue, nil)
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if record.EscalatedTo != "oncall@example.com" {
		t.Fatalf("EscalatedTo = %s", record.EscalatedTo)
	}
}

func TestGetWorkflowMetrics(t *testing.T) {
	tickets := newMemTicketRepo()
	svc := newTestService(tickets, newMemTechnicianRepo(), nil)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, CreateTicketInput{Title: "t", CustomerID: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, status := range []domain.TicketStatus{
		domain.TicketStatusAssigned, domain.TicketStatusInProgress, domain.TicketStatusCompleted,
	} {
		if _, err := svc.TransitionStatus(ctx, ticket.ID, status, "", nil); err != nil {
			t.Fatalf("transition: %v", err)
		}
	}
	if _, err := svc.CreateTicket(ctx, CreateTicketInput{Title: "t2", CustomerID: "c"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.GetWorkflowMetrics(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if got.TotalTickets != 2 || got.CompletedTickets != 1 {
		t.Fatalf("metrics counts: %+v", got)
	}
	if got.TechnicianEfficiencyPct != 50 {
		t.Fatalf("TechnicianEfficiencyPct = %v, want 50", got.TechnicianEfficiencyPct)
	}

	_, err = svc.GetWorkflowMetrics(ctx, time.Now(), time.Now().Add(-time.Hour))
	if !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("inverted window: expected VALIDATION_FAILED, got %v", err)
	}
}
