package contests

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentstage/backend/internal/middleware"
	"github.com/talentstage/backend/internal/models"
	"github.com/talentstage/backend/pkg/response"
)

// ContestStore is the persistence surface the handler needs.
type ContestStore interface {
	Create(ctx context.Context, contest *models.Contest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contest, error)
	List(ctx context.Context) ([]models.Contest, error)
	Update(ctx context.Context, id uuid.UUID, title, description string, startsAt, endsAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, id uuid.UUID) (*models.ContestStats, error)
}

// LeaderboardSource reads ranked vote counts for a contest.
type LeaderboardSource interface {
	Top(ctx context.Context, contestID uuid.UUID) ([]models.EntryScore, error)
}

// CreateRequest is the body for POST /contests.
type CreateRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required"`
}

// UpdateRequest is the body for PATCH /contests/:id. Omitted fields keep
// their current value.
type UpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

// Handler handles contest HTTP endpoints.
type Handler struct {
	store ContestStore
	board LeaderboardSource
}

// NewHandler creates a contest handler.
func NewHandler(store ContestStore, board LeaderboardSource) *Handler {
	return &Handler{store: store, board: board}
}

// List handles GET /contests.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list contests")
		return
	}
	now := time.Now()
	for i := range list {
		list[i].Status = list[i].StatusAt(now)
	}
	response.OK(c, list)
}

// GetByID handles GET /contests/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contest id")
		return
	}
	contest, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "contest not found")
			return
		}
		response.Internal(c, "failed to load contest")
		return
	}
	contest.Status = contest.StatusAt(time.Now())
	response.OK(c, contest)
}

// Create handles POST /contests (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := validateDateRange(req.StartsAt, req.EndsAt, time.Now(), true); err != nil {
		response.BadRequest(c, "ends_at must be after starts_at and in the future")
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	contest := &models.Contest{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		CreatedBy:   userID,
	}
	if err := h.store.Create(c.Request.Context(), contest); err != nil {
		response.Internal(c, "failed to create contest")
		return
	}
	contest.Status = contest.StatusAt(time.Now())
	response.Created(c, contest)
}

// Update handles PATCH /contests/:id (admin only).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contest id")
		return
	}
	contest, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "contest not found")
			return
		}
		response.Internal(c, "failed to load contest")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	title, description := contest.Title, contest.Description
	startsAt, endsAt := contest.StartsAt, contest.EndsAt
	if req.Title != nil {
		title = *req.Title
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.StartsAt != nil {
		startsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		endsAt = *req.EndsAt
	}
	if err := validateDateRange(startsAt, endsAt, time.Now(), false); err != nil {
		response.BadRequest(c, "ends_at must be after starts_at")
		return
	}

	if err := h.store.Update(c.Request.Context(), id, title, description, startsAt, endsAt); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "contest not found")
			return
		}
		response.Internal(c, "failed to update contest")
		return
	}
	updated, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load contest")
		return
	}
	updated.Status = updated.StatusAt(time.Now())
	response.OK(c, updated)
}

// Delete handles DELETE /contests/:id (admin only). Entries and their
// votes cascade away with the contest.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contest id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "contest not found")
			return
		}
		response.Internal(c, "failed to delete contest")
		return
	}
	response.NoContent(c)
}

// Stats handles GET /contests/:id/stats.
func (h *Handler) Stats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contest id")
		return
	}
	if _, err := h.store.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "contest not found")
			return
		}
		response.Internal(c, "failed to load contest")
		return
	}
	stats, err := h.store.Stats(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to compute stats")
		return
	}
	response.OK(c, stats)
}

// Leaderboard handles GET /contests/:id/leaderboard.
func (h *Handler) Leaderboard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contest id")
		return
	}
	if _, err := h.store.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "contest not found")
			return
		}
		response.Internal(c, "failed to load contest")
		return
	}
	scores, err := h.board.Top(c.Request.Context(), id)
	if err != nil {
		response.ServiceUnavailable(c, "leaderboard unavailable")
		return
	}
	response.OK(c, scores)
}
