package contests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talentstage/backend/internal/middleware"
	"github.com/talentstage/backend/internal/models"
)

type fakeContestStore struct {
	contests map[uuid.UUID]*models.Contest
	stats    map[uuid.UUID]*models.ContestStats
}

func newFakeContestStore() *fakeContestStore {
	return &fakeContestStore{
		contests: make(map[uuid.UUID]*models.Contest),
		stats:    make(map[uuid.UUID]*models.ContestStats),
	}
}

func (s *fakeContestStore) Create(_ context.Context, contest *models.Contest) error {
	contest.ID = uuid.New()
	contest.CreatedAt = time.Now()
	contest.UpdatedAt = contest.CreatedAt
	s.contests[contest.ID] = contest
	return nil
}

func (s *fakeContestStore) GetByID(_ context.Context, id uuid.UUID) (*models.Contest, error) {
	contest, ok := s.contests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *contest
	return &cp, nil
}

func (s *fakeContestStore) List(_ context.Context) ([]models.Contest, error) {
	out := make([]models.Contest, 0, len(s.contests))
	for _, contest := range s.contests {
		out = append(out, *contest)
	}
	return out, nil
}

func (s *fakeContestStore) Update(_ context.Context, id uuid.UUID, title, description string, startsAt, endsAt time.Time) error {
	contest, ok := s.contests[id]
	if !ok {
		return ErrNotFound
	}
	contest.Title, contest.Description = title, description
	contest.StartsAt, contest.EndsAt = startsAt, endsAt
	return nil
}

func (s *fakeContestStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.contests[id]; !ok {
		return ErrNotFound
	}
	delete(s.contests, id)
	return nil
}

func (s *fakeContestStore) Stats(_ context.Context, id uuid.UUID) (*models.ContestStats, error) {
	if st, ok := s.stats[id]; ok {
		return st, nil
	}
	return &models.ContestStats{}, nil
}

type fakeBoard struct {
	scores []models.EntryScore
}

func (b *fakeBoard) Top(_ context.Context, _ uuid.UUID) ([]models.EntryScore, error) {
	return b.scores, nil
}

func setupContestRouter(store ContestStore, board LeaderboardSource, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, board)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserRole, "admin")
	})
	r.GET("/contests", h.List)
	r.GET("/contests/:id", h.GetByID)
	r.POST("/contests", h.Create)
	r.PATCH("/contests/:id", h.Update)
	r.DELETE("/contests/:id", h.Delete)
	r.GET("/contests/:id/stats", h.Stats)
	r.GET("/contests/:id/leaderboard", h.Leaderboard)
	return r
}

func TestCreateContest(t *testing.T) {
	store := newFakeContestStore()
	r := setupContestRouter(store, &fakeBoard{}, uuid.New())

	body, _ := json.Marshal(gin.H{
		"title":     "Summer Vocals",
		"starts_at": time.Now().Add(time.Hour).Format(time.RFC3339),
		"ends_at":   time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/contests", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.contests) != 1 {
		t.Fatalf("expected 1 stored contest, got %d", len(store.contests))
	}
}

func TestCreateContestRejectsPastWindow(t *testing.T) {
	store := newFakeContestStore()
	r := setupContestRouter(store, &fakeBoard{}, uuid.New())

	body, _ := json.Marshal(gin.H{
		"title":     "Expired",
		"starts_at": "2025-01-01T00:00:00Z",
		"ends_at":   "2025-01-08T00:00:00Z",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/contests", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetContestNotFound(t *testing.T) {
	r := setupContestRouter(newFakeContestStore(), &fakeBoard{}, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/contests/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetContestDerivesStatus(t *testing.T) {
	store := newFakeContestStore()
	id := uuid.New()
	store.contests[id] = &models.Contest{
		ID:       id,
		Title:    "Open Mic",
		StartsAt: time.Now().Add(-time.Hour),
		EndsAt:   time.Now().Add(time.Hour),
	}
	r := setupContestRouter(store, &fakeBoard{}, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/contests/"+id.String(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Data models.Contest `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Status != models.ContestActive {
		t.Fatalf("expected status %q, got %q", models.ContestActive, resp.Data.Status)
	}
}

func TestUpdateContestPartial(t *testing.T) {
	store := newFakeContestStore()
	id := uuid.New()
	store.contests[id] = &models.Contest{
		ID:          id,
		Title:       "Old Title",
		Description: "keep me",
		StartsAt:    time.Now().Add(time.Hour),
		EndsAt:      time.Now().Add(72 * time.Hour),
	}
	r := setupContestRouter(store, &fakeBoard{}, uuid.New())

	body, _ := json.Marshal(gin.H{"title": "New Title"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/contests/"+id.String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if store.contests[id].Title != "New Title" {
		t.Fatalf("title not updated: %q", store.contests[id].Title)
	}
	if store.contests[id].Description != "keep me" {
		t.Fatalf("omitted field overwritten: %q", store.contests[id].Description)
	}
}

func TestContestStats(t *testing.T) {
	store := newFakeContestStore()
	id := uuid.New()
	last := time.Now().Add(-time.Hour)
	store.contests[id] = &models.Contest{ID: id, StartsAt: time.Now().Add(-2 * time.Hour), EndsAt: time.Now().Add(time.Hour)}
	store.stats[id] = &models.ContestStats{TotalEntries: 5, UniqueParticipants: 5, LastEntryAt: &last}
	r := setupContestRouter(store, &fakeBoard{}, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/contests/"+id.String()+"/stats", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Data models.ContestStats `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.TotalEntries != 5 || resp.Data.UniqueParticipants != 5 {
		t.Fatalf("unexpected stats: %+v", resp.Data)
	}
	if resp.Data.LastEntryAt == nil {
		t.Fatalf("expected last_entry_at to be set")
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	store := newFakeContestStore()
	id := uuid.New()
	store.contests[id] = &models.Contest{ID: id, StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour)}
	board := &fakeBoard{scores: []models.EntryScore{
		{EntryID: uuid.New(), Votes: 3},
		{EntryID: uuid.New(), Votes: 1},
	}}
	r := setupContestRouter(store, board, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/contests/"+id.String()+"/leaderboard", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Data []models.EntryScore `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[0].Votes != 3 {
		t.Fatalf("unexpected leaderboard: %+v", resp.Data)
	}
}
