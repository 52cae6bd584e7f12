package models

import (
	"time"

	"github.com/google/uuid"
)

// Opportunity is a posting talents can apply to (casting call, gig, audition).
type Opportunity struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	ClosesAt    *time.Time `json:"closes_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Application is a user's application to an opportunity, at most one per
// (opportunity, user) pair.
type Application struct {
	ID            uuid.UUID `json:"id"`
	OpportunityID uuid.UUID `json:"opportunity_id"`
	UserID        uuid.UUID `json:"user_id"`
	Note          string    `json:"note"`
	AppliedAt     time.Time `json:"applied_at"`
	ApplicantName string    `json:"applicant_name,omitempty"`
}
