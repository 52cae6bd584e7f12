package models

import (
	"time"

	"github.com/google/uuid"
)

// Vote is a single user's endorsement of one entry. Votes are immutable
// once cast; at most one per (entry, voter) pair, enforced by the storage
// layer's UNIQUE (entry_id, user_id) constraint.
type Vote struct {
	ID        uuid.UUID `json:"id"`
	EntryID   uuid.UUID `json:"entry_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
