package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"refyn-backend/internal/middleware"
	"refyn-backend/internal/models"
	"refyn-backend/internal/validate"
)

type NoteHandler struct {
	noteRepo     noteRepository
	critiqueRepo critiqueRepository
}

type noteRepository interface {
	Create(ctx context.Context, n *models.Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Note, error)
	ListByUser(ctx context.Context, userID uuid.UUID, search, tag string, limit, offset int) ([]*models.Note, int, error)
	Update(ctx context.Context, n *models.Note) error
	Delete(ctx context.Context, id uuid.UUID) error
}

func NewNoteHandler(noteRepo noteRepository, critiqueRepo critiqueRepository) *NoteHandler {
	return &NoteHandler{noteRepo: noteRepo, critiqueRepo: critiqueRepo}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	// A linked critique must exist and be the user's own
	if req.CritiqueID != nil {
		critique, err := h.critiqueRepo.GetByID(r.Context(), *req.CritiqueID)
		if err != nil || critique.UserID != userID {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Critique not found", r))
			return
		}
	}

	note := &models.Note{
		UserID:     userID,
		CritiqueID: req.CritiqueID,
		Title:      req.Title,
		Body:       req.Body,
		Tags:       req.Tags,
	}
	if err := h.noteRepo.Create(r.Context(), note); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create note", r))
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	search := r.URL.Query().Get("search")
	tag := r.URL.Query().Get("tag")
	limit, offset := paginationParams(r)

	notes, total, err := h.noteRepo.ListByUser(r.Context(), userID, search, tag, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list notes", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notes":  notes,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownedNote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownedNote(w, r)
	if !ok {
		return
	}

	var req models.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Body != nil {
		note.Body = *req.Body
	}
	if req.Tags != nil {
		note.Tags = req.Tags
	}
	if req.IsPinned != nil {
		note.IsPinned = *req.IsPinned
	}

	if err := h.noteRepo.Update(r.Context(), note); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update note", r))
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownedNote(w, r)
	if !ok {
		return
	}

	if err := h.noteRepo.Delete(r.Context(), note.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete note", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}

func (h *NoteHandler) ownedNote(w http.ResponseWriter, r *http.Request) (*models.Note, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid note ID", r))
		return nil, false
	}

	note, err := h.noteRepo.GetByID(r.Context(), id)
	if err != nil || note.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Note not found", r))
		return nil, false
	}
	return note, true
}
