package opportunities

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

// OpportunityStore is the persistence surface the handler needs.
type OpportunityStore interface {
	Create(ctx context.Context, o *models.Opportunity) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
	List(ctx context.Context) ([]models.Opportunity, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Apply(ctx context.Context, a *models.Application) error
	ListApplications(ctx context.Context, opportunityID uuid.UUID) ([]models.Application, error)
}

// CreateRequest is the body for POST /opportunities.
type CreateRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	ClosesAt    *time.Time `json:"closes_at"`
}

// ApplyRequest is the body for POST /opportunities/:id/applications.
type ApplyRequest struct {
	Note string `json:"note"`
}

// Handler handles opportunity HTTP endpoints.
type Handler struct {
	store OpportunityStore
}

// NewHandler creates an opportunity handler.
func NewHandler(store OpportunityStore) *Handler {
	return &Handler{store: store}
}

// Create handles POST /opportunities (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	o := &models.Opportunity{
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   userID,
		ClosesAt:    req.ClosesAt,
	}
	if err := h.store.Create(c.Request.Context(), o); err != nil {
		response.Internal(c, "failed to create opportunity")
		return
	}
	response.Created(c, o)
}

// List handles GET /opportunities.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list opportunities")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /opportunities/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid opportunity id")
		return
	}
	o, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "opportunity not found")
			return
		}
		response.Internal(c, "failed to load opportunity")
		return
	}
	response.OK(c, o)
}

// Delete handles DELETE /opportunities/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid opportunity id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "opportunity not found")
			return
		}
		response.Internal(c, "failed to delete opportunity")
		return
	}
	response.NoContent(c)
}

// Apply handles POST /opportunities/:id/applications. Applications close
// with the posting's closes_at when one is set.
func (h *Handler) Apply(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid opportunity id")
		return
	}
	o, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "opportunity not found")
			return
		}
		response.Internal(c, "failed to load opportunity")
		return
	}
	if o.ClosesAt != nil && time.Now().After(*o.ClosesAt) {
		response.BadRequest(c, "opportunity is closed")
		return
	}

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "invalid request")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	a := &models.Application{
		OpportunityID: id,
		UserID:        userID,
		Note:          req.Note,
	}
	if err := h.store.Apply(c.Request.Context(), a); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateApplication):
			response.Conflict(c, "you already applied to this opportunity")
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "opportunity not found")
		default:
			response.Internal(c, "failed to save application")
		}
		return
	}
	response.Created(c, a)
}

// ListApplications handles GET /opportunities/:id/applications (admin only).
func (h *Handler) ListApplications(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid opportunity id")
		return
	}
	list, err := h.store.ListApplications(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list applications")
		return
	}
	response.OK(c, list)
}
