package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaKind discriminates the entry media reference.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaImage MediaKind = "image"
)

// MediaRef is a tagged reference to exactly one uploaded media object.
// Modeling kind+key as a single value rules out the "both set" and
// "neither set" states two nullable columns would allow.
type MediaRef struct {
	Kind MediaKind `json:"kind"`
	Key  string    `json:"key"`
}

// Entry is a participant's submission (video or image) to a contest.
// A user may submit at most one entry per contest; the storage layer's
// UNIQUE (contest_id, user_id) constraint is the authoritative guard.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	ContestID   uuid.UUID `json:"contest_id"`
	UserID      uuid.UUID `json:"user_id"`
	Media       MediaRef  `json:"media"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsWinner    bool      `json:"is_winner"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// EntryScore is one leaderboard row: an entry and its vote count.
type EntryScore struct {
	EntryID uuid.UUID `json:"entry_id"`
	Votes   int       `json:"votes"`
}

// EntryWithSubmitter joins an entry with presentation fields: the
// submitter's display name and a resolved media URL.
type EntryWithSubmitter struct {
	Entry
	SubmitterName string `json:"submitter_name"`
	MediaURL      string `json:"media_url,omitempty"`
	VoteCount     int    `json:"vote_count"`
}
