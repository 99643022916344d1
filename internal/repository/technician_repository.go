package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/hvac-workflow/internal/domain"
	apperrors "github.com/spec-kit/hvac-workflow/pkg/util/errorutil"
)

// TechnicianFilter restricts technician listing.
type TechnicianFilter struct {
	AvailableOnly bool
	Skill         *domain.Skill
	Limit         int
	Offset        int
}

// TechnicianRepository encapsulates technician persistence. Reserve performs
// a compare-and-swap on the availability flag so two tickets cannot claim
// the same technician; Release is its inverse.
type TechnicianRepository interface {
	Create(ctx context.Context, tech *domain.Technician) error
	Update(ctx context.Context, tech *domain.Technician) error
	GetByID(ctx context.Context, id string) (*domain.Technician, error)
	List(ctx context.Context, filter TechnicianFilter) ([]domain.Technician, error)
	Reserve(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
}

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository instantiates repository.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

const technicianColumns = `id, name, email, skills, available, current_workload, home_base,
        version, created_at, updated_at`

func (r *technicianRepository) Create(ctx context.Context, tech *domain.Technician) error {
	const query = `
        INSERT INTO technicians (name, email, skills, available, current_workload, home_base)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		tech.Name,
		tech.Email,
		skillsToText(tech.Skills),
		tech.Available,
		tech.CurrentWorkload,
		tech.HomeBase,
	).Scan(&tech.ID, &tech.Version, &tech.CreatedAt, &tech.UpdatedAt)
}

func (r *technicianRepository) Update(ctx context.Context, tech *domain.Technician) error {
	const query = `
        UPDATE technicians SET name=$1, email=$2, skills=$3, available=$4,
            current_workload=$5, home_base=$6, version=version+1, updated_at=NOW()
        WHERE id=$7 AND version=$8
        RETURNING version, updated_at`
	err := r.pool.QueryRow(ctx, query,
		tech.Name,
		tech.Email,
		skillsToText(tech.Skills),
		tech.Available,
		tech.CurrentWorkload,
		tech.HomeBase,
		tech.ID,
		tech.Version,
	).Scan(&tech.Version, &tech.UpdatedAt)
	if err == nil {
		return nil
	}
	if err != pgx.ErrNoRows {
		return err
	}

	var exists bool
	if checkErr := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM technicians WHERE id=$1)`, tech.ID).Scan(&exists); checkErr != nil {
		return checkErr
	}
	if !exists {
		return apperrors.NewNotFound("technician", map[string]any{"technician_id": tech.ID})
	}
	return apperrors.NewConcurrentModification("technician", tech.ID)
}

func (r *technicianRepository) GetByID(ctx context.Context, id string) (*domain.Technician, error) {
	query := `SELECT ` + technicianColumns + ` FROM technicians WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTechnician(row)
}

func (r *technicianRepository) List(ctx context.Context, filter TechnicianFilter) ([]domain.Technician, error) {
	query := `SELECT ` + technicianColumns + ` FROM technicians WHERE 1=1`
	args := []any{}

	if filter.AvailableOnly {
		query += ` AND available`
	}
	if filter.Skill != nil {
		args = append(args, string(*filter.Skill))
		query += ` AND $1 = ANY(skills)`
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(` ORDER BY id LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Technician
	for rows.Next() {
		tech, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tech)
	}
	return result, rows.Err()
}

// Reserve claims the technician for exclusive work. Fails with CONFLICT when
// the flag was already cleared by a concurrent assignment.
func (r *technicianRepository) Reserve(ctx context.Context, id string) error {
	const query = `
        UPDATE technicians SET available=FALSE, current_workload=current_workload+1,
            version=version+1, updated_at=NOW()
        WHERE id=$1 AND available`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewConflict("technician already reserved", map[string]any{"technician_id": id})
	}
	return nil
}

// Release returns the technician to the candidate pool.
func (r *technicianRepository) Release(ctx context.Context, id string) error {
	const query = `
        UPDATE technicians SET available=TRUE,
            current_workload=GREATEST(current_workload-1, 0),
            version=version+1, updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("technician", map[string]any{"technician_id": id})
	}
	return nil
}

func scanTechnician(row pgx.Row) (*domain.Technician, error) {
	var tech domain.Technician
	var skills []string
	if err := row.Scan(
		&tech.ID,
		&tech.Name,
		&tech.Email,
		&skills,
		&tech.Available,
		&tech.CurrentWorkload,
		&tech.HomeBase,
		&tech.Version,
		&tech.CreatedAt,
		&tech.UpdatedAt,
	); err != nil {
		return nil, err
	}
	tech.Skills = make([]domain.Skill, len(skills))
	for i, s := range skills {
		tech.Skills[i] = domain.Skill(s)
	}
	return &tech, nil
}

func skillsToText(skills []domain.Skill) []string {
	out := make([]string, len(skills))
	for i, s := range skills {
		out[i] = string(s)
	}
	return out
}
