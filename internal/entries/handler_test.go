package entries

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talentstage/backend/internal/contests"
	"github.com/talentstage/backend/internal/middleware"
	"github.com/talentstage/backend/internal/models"
	"github.com/talentstage/backend/pkg/queue"
)

type fakeEntryStore struct {
	entries map[uuid.UUID]*models.Entry
}

func newFakeEntryStore() *fakeEntryStore {
	return &fakeEntryStore{entries: make(map[uuid.UUID]*models.Entry)}
}

func (s *fakeEntryStore) HasSubmitted(_ context.Context, contestID, userID uuid.UUID) (bool, error) {
	for _, e := range s.entries {
		if e.ContestID == contestID && e.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeEntryStore) Add(_ context.Context, e *models.Entry) error {
	for _, existing := range s.entries {
		if existing.ContestID == e.ContestID && existing.UserID == e.UserID {
			return ErrDuplicateSubmission
		}
	}
	e.ID = uuid.New()
	e.SubmittedAt = time.Now()
	s.entries[e.ID] = e
	return nil
}

func (s *fakeEntryStore) GetByID(_ context.Context, id uuid.UUID) (*models.Entry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeEntryStore) ListByContest(_ context.Context, contestID uuid.UUID) ([]models.EntryWithSubmitter, error) {
	var out []models.EntryWithSubmitter
	for _, e := range s.entries {
		if e.ContestID == contestID {
			out = append(out, models.EntryWithSubmitter{Entry: *e, SubmitterName: "someone"})
		}
	}
	return out, nil
}

func (s *fakeEntryStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *fakeEntryStore) DeclareWinner(_ context.Context, id uuid.UUID) error {
	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	e.IsWinner = true
	return nil
}

type fakeContestGetter struct {
	contests map[uuid.UUID]*models.Contest
}

func (g *fakeContestGetter) GetByID(_ context.Context, id uuid.UUID) (*models.Contest, error) {
	contest, ok := g.contests[id]
	if !ok {
		return nil, contests.ErrNotFound
	}
	return contest, nil
}

type fakeMedia struct {
	uploaded map[string]string // key -> content type
	deleted  []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{uploaded: make(map[string]string)}
}

func (m *fakeMedia) UploadEntryMedia(_ context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	io.Copy(io.Discard, body)
	m.uploaded[key] = contentType
	return "https://media.test/" + key, nil
}

func (m *fakeMedia) MediaURL(_ context.Context, key string) (string, error) {
	return "https://media.test/" + key, nil
}

func (m *fakeMedia) DeleteEntryMedia(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.uploaded, key)
	return nil
}

type fakeEnqueuer struct {
	jobs []queue.LeaderboardRefreshPayload
}

func (q *fakeEnqueuer) EnqueueLeaderboardRefresh(_ context.Context, payload queue.LeaderboardRefreshPayload) error {
	q.jobs = append(q.jobs, payload)
	return nil
}

func activeContest(id uuid.UUID) *models.Contest {
	return &models.Contest{
		ID:       id,
		Title:    "Street Dance",
		StartsAt: time.Now().Add(-time.Hour),
		EndsAt:   time.Now().Add(time.Hour),
	}
}

func setupEntryRouter(store EntryStore, getter ContestGetter, media MediaStore, jobs RefreshEnqueuer, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, getter, media, jobs, zap.NewNop())
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
	})
	r.POST("/contests/:id/entries", h.Submit)
	r.GET("/contests/:id/entries", h.ListByContest)
	r.GET("/entries/:id", h.GetByID)
	r.DELETE("/entries/:id", h.Delete)
	r.POST("/entries/:id/winner", h.DeclareWinner)
	return r
}

func submitForm(t *testing.T, title, filename string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if title != "" {
		if err := mw.WriteField("title", title); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("media", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte("fake media bytes"))
	mw.Close()
	return buf, mw.FormDataContentType()
}

func TestSubmitEntry(t *testing.T) {
	contestID := uuid.New()
	store := newFakeEntryStore()
	media := newFakeMedia()
	getter := &fakeContestGetter{contests: map[uuid.UUID]*models.Contest{contestID: activeContest(contestID)}}
	r := setupEntryRouter(store, getter, media, &fakeEnqueuer{}, uuid.New())

	body, contentType := submitForm(t, "My Clip", "clip.mp4")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/contests/"+contestID.String()+"/entries", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(media.uploaded) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(media.uploaded))
	}
	var resp struct {
		Data models.Entry `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Media.Kind != models.MediaVideo {
		t.Fatalf("expected video media kind, got %q", resp.Data.Media.Kind)
	}
	if resp.Data.Media.Key == "" {
		t.Fatalf("expected a media key")
	}
}

func TestSubmitEntryTwiceConflicts(t *testing.T) {
	contestID := uuid.New()
	userID := uuid.New()
	store := newFakeEntryStore()
	getter := &fakeContestGetter{contests: map[uuid.UUID]*models.Contest{contestID: activeContest(contestID)}}
	r := setupEntryRouter(store, getter, newFakeMedia(), &fakeEnqueuer{}, userID)

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		body, contentType := submitForm(t, "Same Person", "photo.png")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/contests/"+contestID.String()+"/entries", body)
		req.Header.Set("Content-Type", contentType)
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("attempt %d: expected %d, got %d: %s", i+1, want, w.Code, w.Body.String())
		}
	}
}

func TestSubmitRejectsInactiveContest(t *testing.T) {
	contestID := uuid.New()
	ended := &models.Contest{
		ID:       contestID,
		StartsAt: time.Now().Add(-48 * time.Hour),
		EndsAt:   time.Now().Add(-time.Hour),
	}
	getter := &fakeContestGetter{contests: map[uuid.UUID]*models.Contest{contestID: ended}}
	r := setupEntryRouter(newFakeEntryStore(), getter, newFakeMedia(), &fakeEnqueuer{}, uuid.New())

	body, contentType := submitForm(t, "Too Late", "clip.mp4")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/contests/"+contestID.String()+"/entries", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSubmitRejectsUnsupportedMedia(t *testing.T) {
	contestID := uuid.New()
	getter := &fakeContestGetter{contests: map[uuid.UUID]*models.Contest{contestID: activeContest(contestID)}}
	media := newFakeMedia()
	r := setupEntryRouter(newFakeEntryStore(), getter, media, &fakeEnqueuer{}, uuid.New())

	body, contentType := submitForm(t, "Nope", "notes.pdf")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/contests/"+contestID.String()+"/entries", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(media.uploaded) != 0 {
		t.Fatalf("rejected upload should not reach storage")
	}
}

func TestDeclareWinnerIsAdditive(t *testing.T) {
	contestID := uuid.New()
	store := newFakeEntryStore()
	first := &models.Entry{ID: uuid.New(), ContestID: contestID, UserID: uuid.New()}
	second := &models.Entry{ID: uuid.New(), ContestID: contestID, UserID: uuid.New()}
	store.entries[first.ID] = first
	store.entries[second.ID] = second
	getter := &fakeContestGetter{contests: map[uuid.UUID]*models.Contest{contestID: activeContest(contestID)}}
	r := setupEntryRouter(store, getter, newFakeMedia(), &fakeEnqueuer{}, uuid.New())

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/entries/"+id.String()+"/winner", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	}
	if !first.IsWinner || !second.IsWinner {
		t.Fatalf("both entries should carry the winner flag")
	}
}

func TestDeclareWinnerNotFound(t *testing.T) {
	getter := &fakeContestGetter{contests: map[uuid.UUID]*models.Contest{}}
	r := setupEntryRouter(newFakeEntryStore(), getter, newFakeMedia(), &fakeEnqueuer{}, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/entries/"+uuid.NewString()+"/winner", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeleteEntryCleansUp(t *testing.T) {
	contestID := uuid.New()
	store := newFakeEntryStore()
	entry := &models.Entry{
		ID:        uuid.New(),
		ContestID: contestID,
		UserID:    uuid.New(),
		Media:     models.MediaRef{Kind: models.MediaImage, Key: "entries/x/pic.png"},
	}
	store.entries[entry.ID] = entry
	media := newFakeMedia()
	jobs := &fakeEnqueuer{}
	getter := &fakeContestGetter{contests: map[uuid.UUID]*models.Contest{contestID: activeContest(contestID)}}
	r := setupEntryRouter(store, getter, media, jobs, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/entries/"+entry.ID.String(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if len(media.deleted) != 1 || media.deleted[0] != entry.Media.Key {
		t.Fatalf("expected media %q deleted, got %v", entry.Media.Key, media.deleted)
	}
	if len(jobs.jobs) != 1 || jobs.jobs[0].ContestID != contestID {
		t.Fatalf("expected leaderboard refresh for contest %s, got %v", contestID, jobs.jobs)
	}
}
