package models

import (
	"time"

	"github.com/google/uuid"
)

// ContestStatus is the derived lifecycle state of a contest. It is computed
// from the time window and never stored.
type ContestStatus string

const (
	ContestUpcoming ContestStatus = "upcoming"
	ContestActive   ContestStatus = "active"
	ContestEnded    ContestStatus = "ended"
)

// Contest is a time-boxed competition accepting one entry per participant.
type Contest struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	StartsAt    time.Time     `json:"starts_at"`
	EndsAt      time.Time     `json:"ends_at"`
	CreatedBy   uuid.UUID     `json:"created_by"`
	Status      ContestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// StatusAt returns the contest status relative to now.
func (c *Contest) StatusAt(now time.Time) ContestStatus {
	switch {
	case now.Before(c.StartsAt):
		return ContestUpcoming
	case now.After(c.EndsAt):
		return ContestEnded
	default:
		return ContestActive
	}
}

// ContestStats is the read-only summary of a contest's entries.
type ContestStats struct {
	TotalEntries       int        `json:"total_entries"`
	UniqueParticipants int        `json:"unique_participants"`
	LastEntryAt        *time.Time `json:"last_entry_at,omitempty"`
}
