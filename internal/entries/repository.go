package entries

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
	// ErrNotFound is returned when the referenced entry does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrDuplicateSubmission is returned when the UNIQUE (contest_id, user_id)
	// constraint rejects a second entry by the same user. The constraint, not
	// the HasSubmitted pre-check, is the authoritative guard under concurrency.
	ErrDuplicateSubmission = errors.New("user already submitted to this contest")
)

const uniqueContestUser = "contest_entries_contest_id_user_id_key"

// Repository handles contest entry persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an entry repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// HasSubmitted reports whether the user already has an entry in the contest.
// Fast pre-check only; Add maps the constraint violation when two
// submissions race past it.
func (r *Repository) HasSubmitted(ctx context.Context, contestID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM contest_entries WHERE contest_id = $1 AND user_id = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, contestID, userID).Scan(&exists)
	return exists, err
}

// Add inserts a new entry. Returns ErrDuplicateSubmission when the user
// already entered the contest, and ErrNotFound when the contest is gone.
func (r *Repository) Add(ctx context.Context, e *models.Entry) error {
	const q = `INSERT INTO contest_entries (contest_id, user_id, media_kind, media_key, title, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_winner, submitted_at`
	err := r.pool.QueryRow(ctx, q, e.ContestID, e.UserID, string(e.Media.Kind), e.Media.Key, e.Title, e.Description).
		Scan(&e.ID, &e.IsWinner, &e.SubmittedAt)
	if err != nil {
		if database.IsUniqueViolation(err, uniqueContestUser) {
			return ErrDuplicateSubmission
		}
		if database.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// GetByID returns an entry by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	const q = `SELECT id, contest_id, user_id, media_kind, media_key, title, description, is_winner, submitted_at
		FROM contest_entries WHERE id = $1`
	var e models.Entry
	var kind string
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&e.ID, &e.ContestID, &e.UserID, &kind, &e.Media.Key, &e.Title, &e.Description, &e.IsWinner, &e.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e.Media.Kind = models.MediaKind(kind)
	return &e, nil
}

// ListByContest returns all entries of a contest joined with the submitter
// display name and per-entry vote counts (zero-filled by the LEFT JOIN).
func (r *Repository) ListByContest(ctx context.Context, contestID uuid.UUID) ([]models.EntryWithSubmitter, error) {
	const q = `SELECT e.id, e.contest_id, e.user_id, e.media_kind, e.media_key, e.title, e.description,
			e.is_winner, e.submitted_at, u.display_name, COUNT(v.id)
		FROM contest_entries e
		JOIN users u ON u.id = e.user_id
		LEFT JOIN votes v ON v.entry_id = e.id
		WHERE e.contest_id = $1
		GROUP BY e.id, u.display_name
		ORDER BY e.submitted_at`
	rows, err := r.pool.Query(ctx, q, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.EntryWithSubmitter
	for rows.Next() {
		var e models.EntryWithSubmitter
		var kind string
		if err := rows.Scan(&e.ID, &e.ContestID, &e.UserID, &kind, &e.Media.Key, &e.Title, &e.Description,
			&e.IsWinner, &e.SubmittedAt, &e.SubmitterName, &e.VoteCount); err != nil {
			return nil, err
		}
		e.Media.Kind = models.MediaKind(kind)
		list = append(list, e)
	}
	return list, rows.Err()
}

// Delete removes an entry; its votes cascade away with it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contest_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeclareWinner sets the winner flag on an entry. The flag is additive:
// declaring a second winner in the same contest leaves both flagged.
func (r *Repository) DeclareWinner(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE contest_entries SET is_winner = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
