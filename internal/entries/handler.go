package entries

import (
	"context"
	"errors"
	"io"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talentstage/backend/internal/contests"
	"github.com/talentstage/backend/internal/middleware"
	"github.com/talentstage/backend/internal/models"
	"github.com/talentstage/backend/pkg/queue"
	"github.com/talentstage/backend/pkg/response"
	"github.com/talentstage/backend/pkg/storage"
)

// EntryStore is the persistence surface the handler needs.
type EntryStore interface {
	HasSubmitted(ctx context.Context, contestID, userID uuid.UUID) (bool, error)
	Add(ctx context.Context, e *models.Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	ListByContest(ctx context.Context, contestID uuid.UUID) ([]models.EntryWithSubmitter, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeclareWinner(ctx context.Context, id uuid.UUID) error
}

// ContestGetter resolves contests for submission-window checks.
type ContestGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contest, error)
}

// MediaStore uploads and resolves entry media objects.
type MediaStore interface {
	UploadEntryMedia(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	MediaURL(ctx context.Context, key string) (string, error)
	DeleteEntryMedia(ctx context.Context, key string) error
}

// RefreshEnqueuer schedules a leaderboard rebuild for a contest.
type RefreshEnqueuer interface {
	EnqueueLeaderboardRefresh(ctx context.Context, payload queue.LeaderboardRefreshPayload) error
}

// Handler handles contest entry HTTP endpoints.
type Handler struct {
	store    EntryStore
	contests ContestGetter
	media    MediaStore
	jobs     RefreshEnqueuer
	logger   *zap.Logger
}

// NewHandler creates an entry handler.
func NewHandler(store EntryStore, contestStore ContestGetter, media MediaStore, jobs RefreshEnqueuer, logger *zap.Logger) *Handler {
	return &Handler{store: store, contests: contestStore, media: media, jobs: jobs, logger: logger}
}

// Submit handles POST /contests/:id/entries (multipart: title, description,
// media file). One entry per user per contest.
func (h *Handler) Submit(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contest id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	contest, err := h.contests.GetByID(c.Request.Context(), contestID)
	if err != nil {
		if errors.Is(err, contests.ErrNotFound) {
			response.NotFound(c, "contest not found")
			return
		}
		response.Internal(c, "failed to load contest")
		return
	}
	if contest.StatusAt(time.Now()) != models.ContestActive {
		response.BadRequest(c, "contest is not accepting entries")
		return
	}

	// Fast path rejection; the unique constraint still decides under races.
	already, err := h.store.HasSubmitted(c.Request.Context(), contestID, userID)
	if err != nil {
		response.Internal(c, "failed to check submission")
		return
	}
	if already {
		response.Conflict(c, "you already entered this contest")
		return
	}

	title := c.PostForm("title")
	if title == "" {
		response.BadRequest(c, "title is required")
		return
	}
	description := c.PostForm("description")

	fileHeader, err := c.FormFile("media")
	if err != nil {
		response.BadRequest(c, "media file is required")
		return
	}
	if fileHeader.Size > storage.MaxMediaFileSize {
		response.BadRequest(c, "media file too large")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	kind, ok := storage.KindForUpload(contentType, fileHeader.Filename)
	if !ok {
		response.BadRequest(c, "unsupported media type; upload a video or an image")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(fileHeader.Filename)
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read media file")
		return
	}
	defer file.Close()

	key := storage.EntryKey(contestID.String(), uuid.New().String()+path.Ext(fileHeader.Filename))
	if _, err := h.media.UploadEntryMedia(c.Request.Context(), key, contentType, file, fileHeader.Size); err != nil {
		h.logger.Error("media upload", zap.Error(err))
		response.ServiceUnavailable(c, "media storage unavailable")
		return
	}

	entry := &models.Entry{
		ContestID: contestID,
		UserID:    userID,
		Media: models.MediaRef{
			Kind: models.MediaKind(kind),
			Key:  key,
		},
		Title:       title,
		Description: description,
	}
	if err := h.store.Add(c.Request.Context(), entry); err != nil {
		// The upload is orphaned on failure; remove it so the bucket does not
		// accumulate unreferenced objects.
		_ = h.media.DeleteEntryMedia(c.Request.Context(), key)
		switch {
		case errors.Is(err, ErrDuplicateSubmission):
			response.Conflict(c, "you already entered this contest")
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "contest not found")
		default:
			response.Internal(c, "failed to save entry")
		}
		return
	}
	response.Created(c, entry)
}

// ListByContest handles GET /contests/:id/entries.
func (h *Handler) ListByContest(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contest id")
		return
	}
	if _, err := h.contests.GetByID(c.Request.Context(), contestID); err != nil {
		if errors.Is(err, contests.ErrNotFound) {
			response.NotFound(c, "contest not found")
			return
		}
		response.Internal(c, "failed to load contest")
		return
	}
	list, err := h.store.ListByContest(c.Request.Context(), contestID)
	if err != nil {
		response.Internal(c, "failed to list entries")
		return
	}
	for i := range list {
		url, err := h.media.MediaURL(c.Request.Context(), list[i].Media.Key)
		if err != nil {
			continue // entry stays listed without a resolvable URL
		}
		list[i].MediaURL = url
	}
	response.OK(c, list)
}

// GetByID handles GET /entries/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid entry id")
		return
	}
	entry, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "entry not found")
			return
		}
		response.Internal(c, "failed to load entry")
		return
	}
	response.OK(c, entry)
}

// Delete handles DELETE /entries/:id (admin only). Votes cascade with the
// entry; the leaderboard is refreshed afterwards.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid entry id")
		return
	}
	entry, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "entry not found")
			return
		}
		response.Internal(c, "failed to load entry")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "entry not found")
			return
		}
		response.Internal(c, "failed to delete entry")
		return
	}
	_ = h.media.DeleteEntryMedia(c.Request.Context(), entry.Media.Key)
	if err := h.jobs.EnqueueLeaderboardRefresh(c.Request.Context(), queue.LeaderboardRefreshPayload{ContestID: entry.ContestID}); err != nil {
		h.logger.Warn("enqueue leaderboard refresh", zap.Error(err))
	}
	response.NoContent(c)
}

// DeclareWinner handles POST /entries/:id/winner (admin only). The flag is
// additive; a contest can end up with several flagged winners.
func (h *Handler) DeclareWinner(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid entry id")
		return
	}
	if err := h.store.DeclareWinner(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "entry not found")
			return
		}
		response.Internal(c, "failed to declare winner")
		return
	}
	response.OK(c, gin.H{"id": id, "is_winner": true})
}
