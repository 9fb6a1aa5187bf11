package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"refyn-backend/internal/models"
	"refyn-backend/internal/repository"
	"refyn-backend/internal/validate"
)

type AdminHandler struct {
	pool     *pgxpool.Pool
	userRepo *repository.UserRepo
}

func NewAdminHandler(pool *pgxpool.Pool, userRepo *repository.UserRepo) *AdminHandler {
	return &AdminHandler{pool: pool, userRepo: userRepo}
}

// Stats aggregates platform-wide counts for the admin dashboard.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var userCount, activeUserCount, mediaCount, critiqueCount, courseCount int
	var weeklySignups, weeklyCritiques, weeklyCourses int
	var failedJobs int

	h.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&userCount)
	h.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE is_active = TRUE").Scan(&activeUserCount)
	h.pool.QueryRow(ctx, "SELECT COUNT(*) FROM media_files").Scan(&mediaCount)
	h.pool.QueryRow(ctx, "SELECT COUNT(*) FROM critiques").Scan(&critiqueCount)
	h.pool.QueryRow(ctx, "SELECT COUNT(*) FROM courses").Scan(&courseCount)

	h.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM users
		WHERE created_at >= NOW() - INTERVAL '7 days'
	`).Scan(&weeklySignups)

	h.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM critiques
		WHERE created_at >= NOW() - INTERVAL '7 days'
	`).Scan(&weeklyCritiques)

	h.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM courses
		WHERE created_at >= NOW() - INTERVAL '7 days'
	`).Scan(&weeklyCourses)

	h.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM jobs
		WHERE status = 'failed'
		  AND created_at >= NOW() - INTERVAL '7 days'
	`).Scan(&failedJobs)

	plans := map[string]int{}
	rows, err := h.pool.Query(ctx, "SELECT plan, COUNT(*) FROM users GROUP BY plan")
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var plan string
			var count int
			if rows.Scan(&plan, &count) == nil {
				plans[plan] = count
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": map[string]interface{}{
			"total":          userCount,
			"active":         activeUserCount,
			"weekly_signups": weeklySignups,
			"by_plan":        plans,
		},
		"content": map[string]interface{}{
			"media":     mediaCount,
			"critiques": critiqueCount,
			"courses":   courseCount,
		},
		"weekly": map[string]interface{}{
			"critiques": weeklyCritiques,
			"courses":   weeklyCourses,
		},
		"jobs": map[string]interface{}{
			"failed_7d": failedJobs,
		},
	})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	limit, offset := paginationParams(r)

	users, total, err := h.userRepo.List(r.Context(), search, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list users", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":  users,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// SetPlan moves a user to a different subscription tier. Billing runs
// out of band; this endpoint records the outcome.
func (h *AdminHandler) SetPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return
	}

	var req models.SetPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	if _, err := h.userRepo.GetByID(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	if err := h.userRepo.SetPlan(r.Context(), userID, req.Plan); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update plan", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Plan updated"})
}

func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return
	}

	if err := h.userRepo.Deactivate(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to deactivate user", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deactivated"})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return
	}

	if err := h.userRepo.Delete(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete user", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}
