package votes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentstage/backend/internal/models"
	"github.com/talentstage/backend/pkg/database"
)

var (
	// ErrDuplicateVote is returned when the UNIQUE (entry_id, user_id)
	// constraint rejects a second vote from the same user.
	ErrDuplicateVote = errors.New("user already voted for this entry")
	// ErrEntryNotFound is returned when the vote references a missing entry.
	ErrEntryNotFound = errors.New("entry not found")
)

const uniqueEntryUser = "votes_entry_id_user_id_key"

// Repository handles vote persistence and aggregation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a vote repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// HasVoted reports whether the user already voted for the entry.
func (r *Repository) HasVoted(ctx context.Context, entryID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM votes WHERE entry_id = $1 AND user_id = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, entryID, userID).Scan(&exists)
	return exists, err
}

// Cast inserts a vote. The insert itself carries both checks: the unique
// constraint yields ErrDuplicateVote, the entry foreign key yields
// ErrEntryNotFound. Votes are immutable; there is no retraction.
func (r *Repository) Cast(ctx context.Context, v *models.Vote) error {
	const q = `INSERT INTO votes (entry_id, user_id) VALUES ($1, $2)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, v.EntryID, v.UserID).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, uniqueEntryUser) {
			return ErrDuplicateVote
		}
		if database.IsForeignKeyViolation(err) {
			return ErrEntryNotFound
		}
		return err
	}
	return nil
}

// TallyByContest returns vote counts grouped by entry for one contest.
// Entries with zero votes are absent from the map; callers zero-fill
// against the entry list when they need complete rows.
func (r *Repository) TallyByContest(ctx context.Context, contestID uuid.UUID) (map[uuid.UUID]int, error) {
	const q = `SELECT v.entry_id, COUNT(*)
		FROM votes v
		JOIN contest_entries e ON e.id = v.entry_id
		WHERE e.contest_id = $1
		GROUP BY v.entry_id`
	rows, err := r.pool.Query(ctx, q, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tally := make(map[uuid.UUID]int)
	for rows.Next() {
		var entryID uuid.UUID
		var n int
		if err := rows.Scan(&entryID, &n); err != nil {
			return nil, err
		}
		tally[entryID] = n
	}
	return tally, rows.Err()
}
