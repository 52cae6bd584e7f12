package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a persisted chat message in a community room.
type Message struct {
	ID          uuid.UUID `json:"id"`
	CommunityID uuid.UUID `json:"community_id"`
	UserID      uuid.UUID `json:"user_id"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
	SenderName  string    `json:"sender_name,omitempty"`
}
