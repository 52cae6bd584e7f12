package communities

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentstage/backend/internal/middleware"
	"github.com/talentstage/backend/internal/models"
	"github.com/talentstage/backend/pkg/response"
)

// CommunityStore is the persistence surface the handler needs.
type CommunityStore interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error)
	List(ctx context.Context) ([]models.Community, error)
	Join(ctx context.Context, communityID, userID uuid.UUID) error
	Leave(ctx context.Context, communityID, userID uuid.UUID) error
	TransferAdmin(ctx context.Context, communityID, fromUser, toUser uuid.UUID) error
	ListMembers(ctx context.Context, communityID uuid.UUID) ([]models.Member, error)
}

// CreateRequest is the body for POST /communities.
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// TransferRequest is the body for POST /communities/:id/transfer-admin.
type TransferRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// Handler handles community HTTP endpoints.
type Handler struct {
	store CommunityStore
}

// NewHandler creates a community handler.
func NewHandler(store CommunityStore) *Handler {
	return &Handler{store: store}
}

// Create handles POST /communities. The creator becomes the community admin.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	community := &models.Community{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   userID,
	}
	if err := h.store.Create(c.Request.Context(), community); err != nil {
		response.Internal(c, "failed to create community")
		return
	}
	response.Created(c, community)
}

// List handles GET /communities.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list communities")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /communities/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid community id")
		return
	}
	community, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "community not found")
			return
		}
		response.Internal(c, "failed to load community")
		return
	}
	response.OK(c, community)
}

// Join handles POST /communities/:id/join.
func (h *Handler) Join(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid community id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.store.Join(c.Request.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyMember):
			response.Conflict(c, "already a member")
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "community not found")
		default:
			response.Internal(c, "failed to join community")
		}
		return
	}
	response.Created(c, gin.H{"community_id": id, "user_id": userID})
}

// Leave handles POST /communities/:id/leave. The last admin of a populated
// community must transfer the role first.
func (h *Handler) Leave(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid community id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.store.Leave(c.Request.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, ErrAdminMustTransfer):
			response.Conflict(c, "transfer the admin role before leaving")
		case errors.Is(err, ErrNotMember):
			response.NotFound(c, "not a member of this community")
		default:
			response.Internal(c, "failed to leave community")
		}
		return
	}
	response.NoContent(c)
}

// TransferAdmin handles POST /communities/:id/transfer-admin.
func (h *Handler) TransferAdmin(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid community id")
		return
	}
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	toUser, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(c, "invalid user_id")
		return
	}
	fromUser := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.store.TransferAdmin(c.Request.Context(), id, fromUser, toUser); err != nil {
		switch {
		case errors.Is(err, ErrNotAdmin):
			response.Forbidden(c, "only the community admin can transfer the role")
		case errors.Is(err, ErrNotMember):
			response.NotFound(c, "target user is not a member")
		default:
			response.Internal(c, "failed to transfer admin role")
		}
		return
	}
	response.OK(c, gin.H{"community_id": id, "admin": toUser})
}

// ListMembers handles GET /communities/:id/members.
func (h *Handler) ListMembers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid community id")
		return
	}
	members, err := h.store.ListMembers(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list members")
		return
	}
	response.OK(c, members)
}
