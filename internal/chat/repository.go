package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentstage/backend/internal/models"
)

// Repository handles chat message persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a message repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserts a chat message.
func (r *Repository) Save(ctx context.Context, m *models.Message) error {
	const q = `INSERT INTO messages (community_id, user_id, body)
		VALUES ($1, $2, $3) RETURNING id, sent_at`
	return r.pool.QueryRow(ctx, q, m.CommunityID, m.UserID, m.Body).Scan(&m.ID, &m.SentAt)
}

// History returns the most recent messages of a room, oldest first, capped
// at limit.
func (r *Repository) History(ctx context.Context, communityID uuid.UUID, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `SELECT m.id, m.community_id, m.user_id, m.body, m.sent_at, u.display_name
		FROM (SELECT * FROM messages WHERE community_id = $1 ORDER BY sent_at DESC LIMIT $2) m
		JOIN users u ON u.id = m.user_id
		ORDER BY m.sent_at`
	rows, err := r.pool.Query(ctx, q, communityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.CommunityID, &m.UserID, &m.Body, &m.SentAt, &m.SenderName); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
