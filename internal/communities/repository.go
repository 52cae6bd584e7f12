package communities

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
	// ErrNotFound is returned when the community does not exist.
	ErrNotFound = errors.New("community not found")
	// ErrNotMember is returned when the user is not a member of the community.
	ErrNotMember = errors.New("not a community member")
	// ErrAlreadyMember is returned when joining a community twice.
	ErrAlreadyMember = errors.New("already a community member")
	// ErrNotAdmin is returned when a non-admin attempts an admin-only action.
	ErrNotAdmin = errors.New("not a community admin")
	// ErrAdminMustTransfer is returned when the last admin tries to leave a
	// community that still has other members.
	ErrAdminMustTransfer = errors.New("transfer the admin role before leaving")
)

// Repository handles community and membership persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a community repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a community and makes the creator its admin member in the
// same transaction.
func (r *Repository) Create(ctx context.Context, community *models.Community) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertCommunity = `INSERT INTO communities (name, description, created_by)
		VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertCommunity, community.Name, community.Description, community.CreatedBy).
		Scan(&community.ID, &community.CreatedAt); err != nil {
		return err
	}
	const insertAdmin = `INSERT INTO community_members (community_id, user_id, role)
		VALUES ($1, $2, 'admin')`
	if _, err := tx.Exec(ctx, insertAdmin, community.ID, community.CreatedBy); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns a community by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	const q = `SELECT id, name, description, created_by, created_at FROM communities WHERE id = $1`
	var c models.Community
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all communities, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Community, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_by, created_at
		FROM communities ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Community
	for rows.Next() {
		var c models.Community
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Join adds a user to a community as a regular member.
func (r *Repository) Join(ctx context.Context, communityID, userID uuid.UUID) error {
	const q = `INSERT INTO community_members (community_id, user_id, role) VALUES ($1, $2, 'member')`
	_, err := r.pool.Exec(ctx, q, communityID, userID)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return ErrAlreadyMember
		}
		if database.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// GetMember returns one membership row.
func (r *Repository) GetMember(ctx context.Context, communityID, userID uuid.UUID) (*models.Member, error) {
	const q = `SELECT community_id, user_id, role, joined_at
		FROM community_members WHERE community_id = $1 AND user_id = $2`
	var m models.Member
	err := r.pool.QueryRow(ctx, q, communityID, userID).Scan(&m.CommunityID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotMember
		}
		return nil, err
	}
	return &m, nil
}

// ListMembers returns all members with display names, admins first.
func (r *Repository) ListMembers(ctx context.Context, communityID uuid.UUID) ([]models.Member, error) {
	const q = `SELECT m.community_id, m.user_id, m.role, m.joined_at, u.display_name
		FROM community_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.community_id = $1
		ORDER BY m.role, m.joined_at`
	rows, err := r.pool.Query(ctx, q, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.CommunityID, &m.UserID, &m.Role, &m.JoinedAt, &m.DisplayName); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Leave removes a membership. An admin can only leave once no other member
// depends on them: either they transferred the admin role, or they are the
// community's sole remaining member.
func (r *Repository) Leave(ctx context.Context, communityID, userID uuid.UUID) error {
	members, err := r.ListMembers(ctx, communityID)
	if err != nil {
		return err
	}
	if err := checkLeave(members, userID); err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `DELETE FROM community_members WHERE community_id = $1 AND user_id = $2`,
		communityID, userID)
	return err
}

// TransferAdmin moves the admin role from one member to another in a single
// transaction.
func (r *Repository) TransferAdmin(ctx context.Context, communityID, fromUser, toUser uuid.UUID) error {
	from, err := r.GetMember(ctx, communityID, fromUser)
	if err != nil {
		return err
	}
	if from.Role != models.MemberAdmin {
		return ErrNotAdmin
	}
	if _, err := r.GetMember(ctx, communityID, toUser); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE community_members SET role = 'admin' WHERE community_id = $1 AND user_id = $2`,
		communityID, toUser); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE community_members SET role = 'member' WHERE community_id = $1 AND user_id = $2`,
		communityID, fromUser); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// checkLeave decides whether a member may leave given the current member
// list. The last admin of a populated community must transfer first.
func checkLeave(members []models.Member, leaving uuid.UUID) error {
	var me *models.Member
	admins := 0
	for i := range members {
		if members[i].Role == models.MemberAdmin {
			admins++
		}
		if members[i].UserID == leaving {
			me = &members[i]
		}
	}
	if me == nil {
		return ErrNotMember
	}
	if me.Role == models.MemberAdmin && admins == 1 && len(members) > 1 {
		return ErrAdminMustTransfer
	}
	return nil
}
