package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberRole is a user's role within a community.
type MemberRole string

const (
	MemberAdmin   MemberRole = "admin"
	MemberRegular MemberRole = "member"
)

// Community is a user-created group with its own chat room.
type Community struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Member is a community membership row.
type Member struct {
	CommunityID uuid.UUID  `json:"community_id"`
	UserID      uuid.UUID  `json:"user_id"`
	Role        MemberRole `json:"role"`
	JoinedAt    time.Time  `json:"joined_at"`
	DisplayName string     `json:"display_name,omitempty"`
}
