package contests

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentstage/backend/internal/models"
)

// ErrNotFound is returned when the referenced contest does not exist.
var ErrNotFound = errors.New("contest not found")

// Repository handles contest persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a contest repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new contest.
func (r *Repository) Create(ctx context.Context, contest *models.Contest) error {
	const q = `INSERT INTO contests (title, description, starts_at, ends_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, contest.Title, contest.Description, contest.StartsAt, contest.EndsAt, contest.CreatedBy).
		Scan(&contest.ID, &contest.CreatedAt, &contest.UpdatedAt)
}

// GetByID returns a contest by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contest, error) {
	const q = `SELECT id, title, description, starts_at, ends_at, created_by, created_at, updated_at
		FROM contests WHERE id = $1`
	var c models.Contest
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&c.ID, &c.Title, &c.Description, &c.StartsAt, &c.EndsAt, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all contests, newest start first.
func (r *Repository) List(ctx context.Context) ([]models.Contest, error) {
	const q = `SELECT id, title, description, starts_at, ends_at, created_by, created_at, updated_at
		FROM contests ORDER BY starts_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Contest
	for rows.Next() {
		var c models.Contest
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.StartsAt, &c.EndsAt, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Update replaces title, description and the time window.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, description string, startsAt, endsAt time.Time) error {
	const q = `UPDATE contests SET title = $1, description = $2, starts_at = $3, ends_at = $4, updated_at = NOW()
		WHERE id = $5`
	tag, err := r.pool.Exec(ctx, q, title, description, startsAt, endsAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a contest. Entries and their votes go with it via the
// ON DELETE CASCADE foreign keys.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns the entry summary for a contest: entry count, distinct
// submitter count and the latest submission time (nil when no entries).
func (r *Repository) Stats(ctx context.Context, id uuid.UUID) (*models.ContestStats, error) {
	const q = `SELECT COUNT(*), COUNT(DISTINCT user_id), MAX(submitted_at)
		FROM contest_entries WHERE contest_id = $1`
	var s models.ContestStats
	if err := r.pool.QueryRow(ctx, q, id).Scan(&s.TotalEntries, &s.UniqueParticipants, &s.LastEntryAt); err != nil {
		return nil, err
	}
	return &s, nil
}
