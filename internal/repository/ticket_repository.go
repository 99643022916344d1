package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/hvac-workflow/internal/domain"
	apperrors "github.com/spec-kit/hvac-workflow/pkg/util/errorutil"
)

// TicketFilter captures search parameters for ticket listing.
type TicketFilter struct {
	CustomerID   *string
	TechnicianID *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketRepository encapsulates service-ticket persistence. Update enforces
// an optimistic version guard: the write only lands when the stored version
// matches expectedVersion, otherwise CONCURRENT_MODIFICATION is returned.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.ServiceTicket) error
	Update(ctx context.Context, ticket *domain.ServiceTicket, expectedVersion int64) error
	GetByID(ctx context.Context, id string) (*domain.ServiceTicket, error)
	GetByTicketNumber(ctx context.Context, number string) (*domain.ServiceTicket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.ServiceTicket, error)
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.ServiceTicket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, customer_id, equipment_id, equipment_type,
        assigned_technician_id, title, description, status, priority, service_location,
        reported_by, contact_info, version, created_at, updated_at, started_at, completed_date`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.ServiceTicket) error {
	const query = `
        INSERT INTO tickets (ticket_number, customer_id, equipment_id, equipment_type,
            assigned_technician_id, title, description, status, priority, service_location,
            reported_by, contact_info)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.CustomerID,
		ticket.EquipmentID,
		ticket.EquipmentType,
		ticket.AssignedTechnicianID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.ServiceLocation,
		ticket.ReportedBy,
		ticket.ContactInfo,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.ServiceTicket, expectedVersion int64) error {
	const query = `
        UPDATE tickets SET assigned_technician_id=$1, title=$2, description=$3, status=$4,
            priority=$5, service_location=$6, contact_info=$7, started_at=$8, completed_date=$9,
            version=version+1, updated_at=NOW()
        WHERE id=$10 AND version=$11
        RETURNING version, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.AssignedTechnicianID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.ServiceLocation,
		ticket.ContactInfo,
		ticket.StartedAt,
		ticket.CompletedDate,
		ticket.ID,
		expectedVersion,
	).Scan(&ticket.Version, &ticket.UpdatedAt)
	if err == nil {
		return nil
	}
	if err != pgx.ErrNoRows {
		return err
	}

	// Zero rows means either the ticket is gone or someone else won the write.
	var exists bool
	if checkErr := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); checkErr != nil {
		return checkErr
	}
	if !exists {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
	}
	return apperrors.NewConcurrentModification("ticket", ticket.ID)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.ServiceTicket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByTicketNumber(ctx context.Context, number string) (*domain.ServiceTicket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_number=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ServiceTicket, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.ServiceTicket, error) {
	filter := TicketFilter{
		CreatedFrom: &start,
		CreatedTo:   &end,
		Limit:       10000,
	}
	return r.ListWithFilter(ctx, filter)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.ServiceTicket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("assigned_technician_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceTicket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.ServiceTicket, error) {
	var ticket domain.ServiceTicket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.CustomerID,
		&ticket.EquipmentID,
		&ticket.EquipmentType,
		&ticket.AssignedTechnicianID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.ServiceLocation,
		&ticket.ReportedBy,
		&ticket.ContactInfo,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.StartedAt,
		&ticket.CompletedDate,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
