package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"refyn-backend/internal/course"
	"refyn-backend/internal/middleware"
)

// CourseSessionHandler drives the interactive course viewer. All viewer
// state (current part, selections, revealed results) lives in the
// in-memory session store; only the course itself comes from the
// database.
type CourseSessionHandler struct {
	courseRepo courseRepository
	sessions   *course.SessionStore
}

func NewCourseSessionHandler(courseRepo courseRepository, sessions *course.SessionStore) *CourseSessionHandler {
	return &CourseSessionHandler{courseRepo: courseRepo, sessions: sessions}
}

// Open starts (or restarts) a viewing session. Reopening discards any
// previous selections for the same course.
func (h *CourseSessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	c, err := h.courseRepo.GetByID(r.Context(), courseID)
	if err != nil || c.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found", r))
		return
	}

	s := h.sessions.Open(userID, c)
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *CourseSessionHandler) State(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *CourseSessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Advance(); err != nil {
		h.sessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *CourseSessionHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Retreat(); err != nil {
		h.sessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *CourseSessionHandler) Jump(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := s.JumpTo(req.Index); err != nil {
		h.sessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *CourseSessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Part     int `json:"part"`
		Question int `json:"question"`
		Option   int `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := s.SelectAnswer(req.Part, req.Question, req.Option); err != nil {
		h.sessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *CourseSessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Part int `json:"part"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := s.Submit(req.Part)
	if err != nil {
		h.sessionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": result,
		"state":  s.Snapshot(),
	})
}

func (h *CourseSessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}

	h.sessions.Close(middleware.GetUserID(r.Context()), courseID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session closed"})
}

func (h *CourseSessionHandler) session(w http.ResponseWriter, r *http.Request) (*course.Session, bool) {
	courseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return nil, false
	}

	s, ok := h.sessions.Get(middleware.GetUserID(r.Context()), courseID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("NO_SESSION", "No open session for this course", r))
		return nil, false
	}
	return s, true
}

func (h *CourseSessionHandler) sessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, course.ErrCourseNotReady):
		writeJSON(w, http.StatusConflict, errorResp("COURSE_NOT_READY", "Course is not ready for viewing", r))
	case errors.Is(err, course.ErrInvalidIndex):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Index out of range", r))
	case errors.Is(err, course.ErrInvalidOption):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Selected option out of range", r))
	case errors.Is(err, course.ErrAlreadyRevealed):
		writeJSON(w, http.StatusConflict, errorResp("ALREADY_REVEALED", "Quiz already submitted for this part", r))
	case errors.Is(err, course.ErrNoQuestions):
		writeJSON(w, http.StatusConflict, errorResp("NO_QUESTIONS", "This part has no quiz to submit", r))
	case errors.Is(err, course.ErrIncompleteQuiz):
		writeJSON(w, http.StatusConflict, errorResp("INCOMPLETE_QUIZ", "Answer every question before submitting", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
