package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"refyn-backend/internal/course"
	"refyn-backend/internal/middleware"
	"refyn-backend/internal/models"
	"refyn-backend/internal/repository"
	"refyn-backend/internal/services"
	"refyn-backend/internal/validate"
)

type CourseHandler struct {
	courseRepo courseRepository
	noteRepo   courseNoteRepository
	userRepo   *repository.UserRepo
	jobRepo    *repository.JobRepo
	plans      *services.PlanService
	sessions   *course.SessionStore
	redis      *redis.Client
}

type courseRepository interface {
	Create(ctx context.Context, c *models.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Course, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type courseNoteRepository interface {
	GetManyByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Note, error)
}

func NewCourseHandler(
	courseRepo courseRepository,
	noteRepo courseNoteRepository,
	userRepo *repository.UserRepo,
	jobRepo *repository.JobRepo,
	plans *services.PlanService,
	sessions *course.SessionStore,
	redisClient *redis.Client,
) *CourseHandler {
	return &CourseHandler{
		courseRepo: courseRepo,
		noteRepo:   noteRepo,
		userRepo:   userRepo,
		jobRepo:    jobRepo,
		plans:      plans,
		sessions:   sessions,
		redis:      redisClient,
	}
}

func (h *CourseHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load user", r))
		return
	}
	if err := h.plans.CheckCourseAllowed(r.Context(), user); err != nil {
		handleServiceError(w, r, err)
		return
	}

	// All source notes must exist and belong to the user
	notes, err := h.noteRepo.GetManyByIDs(r.Context(), req.NoteIDs)
	if err != nil || len(notes) != len(req.NoteIDs) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "One or more notes were not found", r))
		return
	}
	for _, n := range notes {
		if n.UserID != userID {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "One or more notes were not found", r))
			return
		}
	}

	configBytes, _ := json.Marshal(req)

	title := req.Title
	if title == "" {
		title = "Course from " + notes[0].Title
	}

	c := &models.Course{
		UserID:     userID,
		Title:      title,
		ConfigJSON: configBytes,
	}
	if err := h.courseRepo.Create(r.Context(), c); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create course", r))
		return
	}

	job := &models.Job{
		UserID:      userID,
		Type:        models.JobTypeCourse,
		ReferenceID: c.ID,
		ConfigJSON:  configBytes,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.redis.LPush(r.Context(), models.QueueName(job.Type), string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue course-generation job %s: %v", job.ID, err)
		_ = h.jobRepo.UpdateStatus(r.Context(), job.ID, models.JobFailed)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue course job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":    job.ID,
		"course_id": c.ID,
	})
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, offset := paginationParams(r)

	courses, total, err := h.courseRepo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list courses", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedCourse(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedCourse(w, r)
	if !ok {
		return
	}

	// Any open viewer session dies with the course
	h.sessions.Close(middleware.GetUserID(r.Context()), c.ID)

	if err := h.courseRepo.Delete(r.Context(), c.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete course", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Course deleted"})
}

func (h *CourseHandler) ownedCourse(w http.ResponseWriter, r *http.Request) (*models.Course, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return nil, false
	}

	c, err := h.courseRepo.GetByID(r.Context(), id)
	if err != nil || c.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found", r))
		return nil, false
	}
	return c, true
}
