package opportunities

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentstage/backend/internal/models"
	"github.com/talentstage/backend/pkg/database"
)

var (
	// ErrNotFound is returned when the referenced opportunity does not exist.
	ErrNotFound = errors.New("opportunity not found")
	// ErrDuplicateApplication is returned when the UNIQUE
	// (opportunity_id, user_id) constraint rejects a second application.
	ErrDuplicateApplication = errors.New("user already applied to this opportunity")
)

const uniqueOpportunityUser = "opportunity_applications_opportunity_id_user_id_key"

// Repository handles opportunity persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an opportunity repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new opportunity.
func (r *Repository) Create(ctx context.Context, o *models.Opportunity) error {
	const q = `INSERT INTO opportunities (title, description, created_by, closes_at)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, o.Title, o.Description, o.CreatedBy, o.ClosesAt).
		Scan(&o.ID, &o.CreatedAt)
}

// GetByID returns an opportunity by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	const q = `SELECT id, title, description, created_by, closes_at, created_at
		FROM opportunities WHERE id = $1`
	var o models.Opportunity
	err := r.pool.QueryRow(ctx, q, id).Scan(&o.ID, &o.Title, &o.Description, &o.CreatedBy, &o.ClosesAt, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// List returns all opportunities, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Opportunity, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, description, created_by, closes_at, created_at
		FROM opportunities ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Opportunity
	for rows.Next() {
		var o models.Opportunity
		if err := rows.Scan(&o.ID, &o.Title, &o.Description, &o.CreatedBy, &o.ClosesAt, &o.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Delete removes an opportunity; applications cascade away with it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM opportunities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Apply inserts an application. One per user per opportunity; the unique
// constraint decides under races, same pattern as contest entries.
func (r *Repository) Apply(ctx context.Context, a *models.Application) error {
	const q = `INSERT INTO opportunity_applications (opportunity_id, user_id, note)
		VALUES ($1, $2, $3) RETURNING id, applied_at`
	err := r.pool.QueryRow(ctx, q, a.OpportunityID, a.UserID, a.Note).Scan(&a.ID, &a.AppliedAt)
	if err != nil {
		if database.IsUniqueViolation(err, uniqueOpportunityUser) {
			return ErrDuplicateApplication
		}
		if database.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListApplications returns an opportunity's applications with applicant names.
func (r *Repository) ListApplications(ctx context.Context, opportunityID uuid.UUID) ([]models.Application, error) {
	const q = `SELECT a.id, a.opportunity_id, a.user_id, a.note, a.applied_at, u.display_name
		FROM opportunity_applications a
		JOIN users u ON u.id = a.user_id
		WHERE a.opportunity_id = $1
		ORDER BY a.applied_at`
	rows, err := r.pool.Query(ctx, q, opportunityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Application
	for rows.Next() {
		var a models.Application
		if err := rows.Scan(&a.ID, &a.OpportunityID, &a.UserID, &a.Note, &a.AppliedAt, &a.ApplicantName); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
