package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"refyn-backend/internal/middleware"
	"refyn-backend/internal/models"
	"refyn-backend/internal/repository"
)

type JobHandler struct {
	jobRepo *repository.JobRepo
}

func NewJobHandler(jobRepo *repository.JobRepo) *JobHandler {
	return &JobHandler{jobRepo: jobRepo}
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil || job.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// CancelJob marks a pending job cancelled. Jobs already picked up by a
// worker run to completion; cancellation only prevents a pending pickup.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil || job.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return
	}

	if job.Status != models.JobPending {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Only pending jobs can be cancelled", r))
		return
	}

	if err := h.jobRepo.UpdateStatus(r.Context(), job.ID, models.JobCancelled); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to cancel job", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Job cancelled"})
}
