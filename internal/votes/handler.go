package votes

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talentstage/backend/internal/middleware"
	"github.com/talentstage/backend/internal/models"
	"github.com/talentstage/backend/pkg/queue"
	"github.com/talentstage/backend/pkg/response"
)

// VoteStore is the persistence surface the handler needs.
type VoteStore interface {
	HasVoted(ctx context.Context, entryID, userID uuid.UUID) (bool, error)
	Cast(ctx context.Context, v *models.Vote) error
}

// EntryResolver looks up the entry being voted on (for its contest id).
type EntryResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Entry, error)
}

// RefreshEnqueuer schedules a leaderboard rebuild for a contest.
type RefreshEnqueuer interface {
	EnqueueLeaderboardRefresh(ctx context.Context, payload queue.LeaderboardRefreshPayload) error
}

// Handler handles vote HTTP endpoints.
type Handler struct {
	store   VoteStore
	entries EntryResolver
	jobs    RefreshEnqueuer
	logger  *zap.Logger
}

// NewHandler creates a vote handler.
func NewHandler(store VoteStore, entries EntryResolver, jobs RefreshEnqueuer, logger *zap.Logger) *Handler {
	return &Handler{store: store, entries: entries, jobs: jobs, logger: logger}
}

// Cast handles POST /entries/:id/votes. One vote per user per entry; the
// second attempt gets 409. A successful cast schedules a leaderboard
// refresh for the entry's contest.
func (h *Handler) Cast(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid entry id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	vote := &models.Vote{EntryID: entryID, UserID: userID}
	if err := h.store.Cast(c.Request.Context(), vote); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateVote):
			response.Conflict(c, "you already voted for this entry")
		case errors.Is(err, ErrEntryNotFound):
			response.NotFound(c, "entry not found")
		default:
			h.logger.Error("cast vote", zap.Error(err))
			response.ServiceUnavailable(c, "vote storage unavailable")
		}
		return
	}

	if entry, err := h.entries.GetByID(c.Request.Context(), entryID); err == nil {
		if err := h.jobs.EnqueueLeaderboardRefresh(c.Request.Context(), queue.LeaderboardRefreshPayload{ContestID: entry.ContestID}); err != nil {
			h.logger.Warn("enqueue leaderboard refresh", zap.Error(err))
		}
	}
	response.Created(c, vote)
}
