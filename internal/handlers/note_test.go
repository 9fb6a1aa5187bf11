package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"refyn-backend/internal/middleware"
	"refyn-backend/internal/models"
)

type stubNoteRepo struct {
	notes map[uuid.UUID]*models.Note
}

func newStubNoteRepo() *stubNoteRepo {
	return &stubNoteRepo{notes: make(map[uuid.UUID]*models.Note)}
}

func (s *stubNoteRepo) Create(ctx context.Context, n *models.Note) error {
	n.ID = uuid.New()
	s.notes[n.ID] = n
	return nil
}

func (s *stubNoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	n, ok := s.notes[id]
	if !ok {
		return nil, errNotFound
	}
	return n, nil
}

func (s *stubNoteRepo) ListByUser(ctx context.Context, userID uuid.UUID, search, tag string, limit, offset int) ([]*models.Note, int, error) {
	var out []*models.Note
	for _, n := range s.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (s *stubNoteRepo) Update(ctx context.Context, n *models.Note) error {
	s.notes[n.ID] = n
	return nil
}

func (s *stubNoteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.notes, id)
	return nil
}

type stubCritiqueRepo struct {
	critiques map[uuid.UUID]*models.Critique
}

func (s *stubCritiqueRepo) Create(ctx context.Context, c *models.Critique) error {
	c.ID = uuid.New()
	s.critiques[c.ID] = c
	return nil
}

func (s *stubCritiqueRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Critique, error) {
	c, ok := s.critiques[id]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

func (s *stubCritiqueRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Critique, int, error) {
	return nil, 0, nil
}

func (s *stubCritiqueRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.critiques, id)
	return nil
}

func noteRequest(method, path string, userID uuid.UUID, noteID *uuid.UUID, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)

	rctx := chi.NewRouteContext()
	if noteID != nil {
		rctx.URLParams.Add("id", noteID.String())
	}

	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestNoteCreate(t *testing.T) {
	repo := newStubNoteRepo()
	h := NewNoteHandler(repo, &stubCritiqueRepo{critiques: map[uuid.UUID]*models.Critique{}})
	userID := uuid.New()

	rec := httptest.NewRecorder()
	h.Create(rec, noteRequest(http.MethodPost, "/notes", userID, nil, models.CreateNoteRequest{
		Title: "Light studies",
		Body:  "Work on cooler shadows next time.",
		Tags:  []string{"painting", "light"},
	}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var note models.Note
	if err := json.Unmarshal(rec.Body.Bytes(), &note); err != nil {
		t.Fatalf("decoding note: %v", err)
	}
	if note.UserID != userID {
		t.Errorf("Expected note owned by %s, got %s", userID, note.UserID)
	}
	if len(repo.notes) != 1 {
		t.Errorf("Expected 1 stored note, got %d", len(repo.notes))
	}
}

func TestNoteCreate_MissingTitle(t *testing.T) {
	h := NewNoteHandler(newStubNoteRepo(), &stubCritiqueRepo{critiques: map[uuid.UUID]*models.Critique{}})

	rec := httptest.NewRecorder()
	h.Create(rec, noteRequest(http.MethodPost, "/notes", uuid.New(), nil, models.CreateNoteRequest{
		Body: "no title here",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	assertErrorCode(t, rec, "VALIDATION_ERROR")
}

func TestNoteCreate_ForeignCritique(t *testing.T) {
	critiques := &stubCritiqueRepo{critiques: map[uuid.UUID]*models.Critique{}}
	otherUsers := &models.Critique{UserID: uuid.New()}
	critiques.Create(context.Background(), otherUsers)

	h := NewNoteHandler(newStubNoteRepo(), critiques)

	rec := httptest.NewRecorder()
	h.Create(rec, noteRequest(http.MethodPost, "/notes", uuid.New(), nil, models.CreateNoteRequest{
		CritiqueID: &otherUsers.ID,
		Title:      "Linked",
		Body:       "body",
	}))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 linking another user's critique, got %d", rec.Code)
	}
}

func TestNoteUpdate_MergesFields(t *testing.T) {
	repo := newStubNoteRepo()
	h := NewNoteHandler(repo, &stubCritiqueRepo{critiques: map[uuid.UUID]*models.Critique{}})
	userID := uuid.New()

	note := &models.Note{UserID: userID, Title: "Before", Body: "Original body", Tags: []string{"a"}}
	repo.Create(context.Background(), note)

	newTitle := "After"
	pinned := true
	rec := httptest.NewRecorder()
	h.Update(rec, noteRequest(http.MethodPut, "/notes/"+note.ID.String(), userID, &note.ID, models.UpdateNoteRequest{
		Title:    &newTitle,
		IsPinned: &pinned,
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	stored := repo.notes[note.ID]
	if stored.Title != "After" {
		t.Errorf("Expected updated title, got %q", stored.Title)
	}
	if stored.Body != "Original body" {
		t.Errorf("Body must be untouched, got %q", stored.Body)
	}
	if !stored.IsPinned {
		t.Error("Expected note to be pinned")
	}
}

func TestNoteGet_ForeignNote(t *testing.T) {
	repo := newStubNoteRepo()
	h := NewNoteHandler(repo, &stubCritiqueRepo{critiques: map[uuid.UUID]*models.Critique{}})

	note := &models.Note{UserID: uuid.New(), Title: "Private", Body: "body"}
	repo.Create(context.Background(), note)

	rec := httptest.NewRecorder()
	h.Get(rec, noteRequest(http.MethodGet, "/notes/"+note.ID.String(), uuid.New(), &note.ID, nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for another user's note, got %d", rec.Code)
	}
}

func TestNoteDelete(t *testing.T) {
	repo := newStubNoteRepo()
	h := NewNoteHandler(repo, &stubCritiqueRepo{critiques: map[uuid.UUID]*models.Critique{}})
	userID := uuid.New()

	note := &models.Note{UserID: userID, Title: "Gone soon", Body: "body"}
	repo.Create(context.Background(), note)

	rec := httptest.NewRecorder()
	h.Delete(rec, noteRequest(http.MethodDelete, "/notes/"+note.ID.String(), userID, &note.ID, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(repo.notes) != 0 {
		t.Error("Expected note to be removed")
	}
}
