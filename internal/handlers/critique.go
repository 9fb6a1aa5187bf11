package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"refyn-backend/internal/middleware"
	"refyn-backend/internal/models"
	"refyn-backend/internal/repository"
	"refyn-backend/internal/services"
	"refyn-backend/internal/validate"
)

type CritiqueHandler struct {
	critiqueRepo critiqueRepository
	mediaRepo    mediaRepository
	userRepo     *repository.UserRepo
	jobRepo      *repository.JobRepo
	plans        *services.PlanService
	gemini       *services.GeminiService
	redis        *redis.Client
}

type critiqueRepository interface {
	Create(ctx context.Context, c *models.Critique) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Critique, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Critique, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

func NewCritiqueHandler(
	critiqueRepo critiqueRepository,
	mediaRepo mediaRepository,
	userRepo *repository.UserRepo,
	jobRepo *repository.JobRepo,
	plans *services.PlanService,
	gemini *services.GeminiService,
	redisClient *redis.Client,
) *CritiqueHandler {
	return &CritiqueHandler{
		critiqueRepo: critiqueRepo,
		mediaRepo:    mediaRepo,
		userRepo:     userRepo,
		jobRepo:      jobRepo,
		plans:        plans,
		gemini:       gemini,
		redis:        redisClient,
	}
}

func (h *CritiqueHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req models.RequestCritiqueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	// Verify media exists and belongs to user
	media, err := h.mediaRepo.GetByID(r.Context(), req.MediaID)
	if err != nil || media.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Media not found", r))
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load user", r))
		return
	}
	if err := h.plans.CheckCritiqueAllowed(r.Context(), user); err != nil {
		handleServiceError(w, r, err)
		return
	}

	if req.Focus == "" {
		req.Focus = "general"
	}
	if req.Depth == "" {
		req.Depth = "standard"
	}
	title := req.Title
	if title == "" {
		title = media.Title
	}

	configBytes, _ := json.Marshal(req)

	critique := &models.Critique{
		UserID:     userID,
		MediaID:    media.ID,
		Title:      title,
		Focus:      req.Focus,
		Depth:      req.Depth,
		ConfigJSON: configBytes,
	}
	if err := h.critiqueRepo.Create(r.Context(), critique); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create critique", r))
		return
	}

	// Create and queue job
	job := &models.Job{
		UserID:      userID,
		Type:        models.JobTypeCritique,
		ReferenceID: critique.ID,
		ConfigJSON:  configBytes,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.redis.LPush(r.Context(), models.QueueName(job.Type), string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue critique-generation job %s: %v", job.ID, err)
		_ = h.jobRepo.UpdateStatus(r.Context(), job.ID, models.JobFailed)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue critique job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":      job.ID,
		"critique_id": critique.ID,
	})
}

func (h *CritiqueHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, offset := paginationParams(r)

	critiques, total, err := h.critiqueRepo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list critiques", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"critiques": critiques,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *CritiqueHandler) Get(w http.ResponseWriter, r *http.Request) {
	critique, ok := h.ownedCritique(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, critique)
}

func (h *CritiqueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	critique, ok := h.ownedCritique(w, r)
	if !ok {
		return
	}

	if err := h.critiqueRepo.Delete(r.Context(), critique.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete critique", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Critique deleted"})
}

// Chat answers a follow-up question about a ready critique.
func (h *CritiqueHandler) Chat(w http.ResponseWriter, r *http.Request) {
	critique, ok := h.ownedCritique(w, r)
	if !ok {
		return
	}

	if critique.Status != models.CritiqueReady {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Critique is not ready yet", r))
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	reply, err := h.gemini.ChatAboutCritique(r.Context(), critique, req.History, req.Message)
	if err != nil {
		log.Printf("critique chat failed for %s: %v", critique.ID, err)
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", "The assistant is unavailable right now", r))
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}

func (h *CritiqueHandler) ownedCritique(w http.ResponseWriter, r *http.Request) (*models.Critique, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid critique ID", r))
		return nil, false
	}

	critique, err := h.critiqueRepo.GetByID(r.Context(), id)
	if err != nil || critique.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Critique not found", r))
		return nil, false
	}
	return critique, true
}
