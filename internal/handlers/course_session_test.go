package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"refyn-backend/internal/course"
	"refyn-backend/internal/middleware"
	"refyn-backend/internal/models"
)

var errNotFound = errors.New("not found")

type stubCourseRepo struct {
	courses map[uuid.UUID]*models.Course
}

func (s *stubCourseRepo) Create(ctx context.Context, c *models.Course) error {
	c.ID = uuid.New()
	s.courses[c.ID] = c
	return nil
}

func (s *stubCourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

func (s *stubCourseRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Course, int, error) {
	var out []*models.Course
	for _, c := range s.courses {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (s *stubCourseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.courses, id)
	return nil
}

func readyCourse(userID uuid.UUID) *models.Course {
	parts := []models.Part{
		{
			Title:   "Seeing Value",
			Content: "Value is the relative lightness or darkness of a mark.",
			Quiz: []models.Question{
				{Prompt: "What does value describe?", Options: []string{"Hue", "Lightness", "Texture", "Scale"}, CorrectIndex: 1},
				{Prompt: "Which tool shifts value?", Options: []string{"Eraser", "Ruler", "Compass", "Stencil"}, CorrectIndex: 0},
			},
		},
		{
			Title:   "Edges",
			Content: "Hard and soft edges guide the eye.",
			Quiz: []models.Question{
				{Prompt: "Which edge attracts attention?", Options: []string{"Soft", "Hard", "Lost", "None"}, CorrectIndex: 1},
			},
		},
	}
	partsJSON, _ := json.Marshal(parts)
	assignment, _ := json.Marshal(models.FinalAssignment{
		Title:       "Value Study",
		Description: "Apply what you learned.",
		TaskPrompt:  "Produce a three-value study of a simple still life.",
	})

	return &models.Course{
		ID:             uuid.New(),
		UserID:         userID,
		Status:         models.CourseReady,
		Title:          "Foundations of Value",
		PartsJSON:      partsJSON,
		AssignmentJSON: assignment,
		PartCount:      len(parts),
	}
}

func sessionRequest(method, path string, userID uuid.UUID, courseID uuid.UUID, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", courseID.String())

	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) course.State {
	t.Helper()
	var st course.State
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	return st
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, expected string) {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body.Error.Code != expected {
		t.Errorf("Expected error code %q, got %q", expected, body.Error.Code)
	}
}

func newSessionHandler(c *models.Course) *CourseSessionHandler {
	repo := &stubCourseRepo{courses: map[uuid.UUID]*models.Course{c.ID: c}}
	return NewCourseSessionHandler(repo, course.NewSessionStore())
}

func TestSessionOpen(t *testing.T) {
	userID := uuid.New()
	c := readyCourse(userID)
	h := newSessionHandler(c)

	rec := httptest.NewRecorder()
	h.Open(rec, sessionRequest(http.MethodPost, "/courses/"+c.ID.String()+"/session", userID, c.ID, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	st := decodeState(t, rec)
	if st.CurrentIndex != 0 {
		t.Errorf("Expected to start at part 0, got %d", st.CurrentIndex)
	}
	if st.PartCount != 2 {
		t.Errorf("Expected 2 parts, got %d", st.PartCount)
	}
	if st.AssignmentVisible {
		t.Error("Assignment must not be visible before all quizzes revealed")
	}
	if st.ActivePart == nil || len(st.ActivePart.Questions) != 2 {
		t.Fatal("Expected active part with 2 questions")
	}
	if st.ActivePart.Questions[0].CorrectIndex != nil {
		t.Error("Correct index must be withheld before reveal")
	}
}

func TestSessionOpen_ForeignCourse(t *testing.T) {
	owner := uuid.New()
	c := readyCourse(owner)
	h := newSessionHandler(c)

	rec := httptest.NewRecorder()
	h.Open(rec, sessionRequest(http.MethodPost, "/courses/"+c.ID.String()+"/session", uuid.New(), c.ID, nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for another user's course, got %d", rec.Code)
	}
}

func TestSessionState_NoSession(t *testing.T) {
	userID := uuid.New()
	c := readyCourse(userID)
	h := newSessionHandler(c)

	rec := httptest.NewRecorder()
	h.State(rec, sessionRequest(http.MethodGet, "/courses/"+c.ID.String()+"/session", userID, c.ID, nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without an open session, got %d", rec.Code)
	}
	assertErrorCode(t, rec, "NO_SESSION")
}

func TestSessionFullFlow(t *testing.T) {
	userID := uuid.New()
	c := readyCourse(userID)
	h := newSessionHandler(c)

	open := func() {
		rec := httptest.NewRecorder()
		h.Open(rec, sessionRequest(http.MethodPost, "/s", userID, c.ID, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("open: expected 200, got %d", rec.Code)
		}
	}
	answer := func(part, question, option int) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.Answer(rec, sessionRequest(http.MethodPost, "/s/answer", userID, c.ID,
			map[string]int{"part": part, "question": question, "option": option}))
		return rec
	}
	submit := func(part int) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.Submit(rec, sessionRequest(http.MethodPost, "/s/submit", userID, c.ID,
			map[string]int{"part": part}))
		return rec
	}

	open()

	// Submitting with no answers is rejected
	if rec := submit(0); rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for incomplete quiz, got %d", rec.Code)
	}

	// Answer part 0: one right, one wrong
	if rec := answer(0, 0, 1); rec.Code != http.StatusOK {
		t.Fatalf("answer: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := answer(0, 1, 2); rec.Code != http.StatusOK {
		t.Fatalf("answer: expected 200, got %d", rec.Code)
	}

	rec := submit(0)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var submitResp struct {
		Result course.Result `json:"result"`
		State  course.State  `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &submitResp); err != nil {
		t.Fatalf("decoding submit response: %v", err)
	}
	if submitResp.Result.Correct != 1 || submitResp.Result.Total != 2 {
		t.Errorf("Expected 1/2 correct, got %d/%d", submitResp.Result.Correct, submitResp.Result.Total)
	}

	// Changing a revealed answer is rejected
	if rec := answer(0, 0, 0); rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 when answering a revealed part, got %d", rec.Code)
	}

	// Move to part 1 and finish the course
	advRec := httptest.NewRecorder()
	h.Advance(advRec, sessionRequest(http.MethodPost, "/s/advance", userID, c.ID, nil))
	if st := decodeState(t, advRec); st.CurrentIndex != 1 {
		t.Errorf("Expected index 1 after advance, got %d", st.CurrentIndex)
	}

	answer(1, 0, 1)
	rec = submit(1)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit part 1: expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &submitResp); err != nil {
		t.Fatalf("decoding submit response: %v", err)
	}

	st := submitResp.State
	if !st.AllComplete {
		t.Error("Expected all quizzes complete")
	}
	if !st.AssignmentVisible {
		t.Error("Expected assignment to be unlocked on the last part")
	}
	if st.Assignment == nil || st.Assignment.Title != "Value Study" {
		t.Error("Expected the final assignment in the state")
	}

	// Reopening resets everything
	open()
	stateRec := httptest.NewRecorder()
	h.State(stateRec, sessionRequest(http.MethodGet, "/s", userID, c.ID, nil))
	if st := decodeState(t, stateRec); st.AllComplete {
		t.Error("Reopened session must discard previous results")
	}
}

func TestSessionJump(t *testing.T) {
	userID := uuid.New()
	c := readyCourse(userID)
	h := newSessionHandler(c)

	openRec := httptest.NewRecorder()
	h.Open(openRec, sessionRequest(http.MethodPost, "/s", userID, c.ID, nil))

	rec := httptest.NewRecorder()
	h.Jump(rec, sessionRequest(http.MethodPost, "/s/jump", userID, c.ID, map[string]int{"index": 1}))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if st := decodeState(t, rec); st.CurrentIndex != 1 {
		t.Errorf("Expected index 1, got %d", st.CurrentIndex)
	}

	rec = httptest.NewRecorder()
	h.Jump(rec, sessionRequest(http.MethodPost, "/s/jump", userID, c.ID, map[string]int{"index": 5}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for out-of-range index, got %d", rec.Code)
	}
}

func TestSession_GeneratingCourse(t *testing.T) {
	userID := uuid.New()
	c := readyCourse(userID)
	c.Status = models.CourseGenerating
	h := newSessionHandler(c)

	openRec := httptest.NewRecorder()
	h.Open(openRec, sessionRequest(http.MethodPost, "/s", userID, c.ID, nil))
	if openRec.Code != http.StatusOK {
		t.Fatalf("Expected 200 opening a generating course, got %d", openRec.Code)
	}

	rec := httptest.NewRecorder()
	h.Advance(rec, sessionRequest(http.MethodPost, "/s/advance", userID, c.ID, nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 advancing a generating course, got %d", rec.Code)
	}
	assertErrorCode(t, rec, "COURSE_NOT_READY")
}

func TestSessionClose(t *testing.T) {
	userID := uuid.New()
	c := readyCourse(userID)
	h := newSessionHandler(c)

	openRec := httptest.NewRecorder()
	h.Open(openRec, sessionRequest(http.MethodPost, "/s", userID, c.ID, nil))

	closeRec := httptest.NewRecorder()
	h.Close(closeRec, sessionRequest(http.MethodDelete, "/s", userID, c.ID, nil))
	if closeRec.Code != http.StatusOK {
		t.Fatalf("Expected 200 closing session, got %d", closeRec.Code)
	}

	stateRec := httptest.NewRecorder()
	h.State(stateRec, sessionRequest(http.MethodGet, "/s", userID, c.ID, nil))
	if stateRec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after close, got %d", stateRec.Code)
	}
}
