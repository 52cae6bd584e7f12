package chat

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentstage/backend/internal/models"
	"github.com/talentstage/backend/pkg/response"
)

// MessageStore is the persistence surface the handler needs.
type MessageStore interface {
	History(ctx context.Context, communityID uuid.UUID, limit int) ([]models.Message, error)
}

// Handler handles chat HTTP endpoints (the WebSocket side lives in ServeWs).
type Handler struct {
	store MessageStore
}

// NewHandler creates a chat handler.
func NewHandler(store MessageStore) *Handler {
	return &Handler{store: store}
}

// History handles GET /communities/:id/messages?limit=N.
func (h *Handler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid community id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.store.History(c.Request.Context(), id, limit)
	if err != nil {
		response.Internal(c, "failed to load messages")
		return
	}
	response.OK(c, list)
}
