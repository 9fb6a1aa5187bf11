package handlers

import (
	"encoding/json"
	"net/http"

	"refyn-backend/internal/middleware"
	"refyn-backend/internal/models"
	"refyn-backend/internal/repository"
	"refyn-backend/internal/services"
	"refyn-backend/internal/validate"
)

type UserHandler struct {
	userRepo    *repository.UserRepo
	authService *services.AuthService
	plans       *services.PlanService
}

func NewUserHandler(userRepo *repository.UserRepo, authService *services.AuthService, plans *services.PlanService) *UserHandler {
	return &UserHandler{userRepo: userRepo, authService: authService, plans: plans}
}

// GetMe returns the profile together with the plan's limits and the
// rolling-window usage against them.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	usage, err := h.plans.CurrentUsage(r.Context(), user)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load usage", r))
		return
	}

	limits := services.LimitsFor(user.Plan)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"usage": usage,
		"limits": map[string]interface{}{
			"max_upload_bytes":  limits.MaxUploadBytes,
			"monthly_uploads":   limits.MonthlyUploads,
			"monthly_critiques": limits.MonthlyCritiques,
			"monthly_courses":   limits.MonthlyCourses,
		},
	})
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
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
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.Discipline != nil {
		user.Discipline = req.Discipline
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}

	if err := h.userRepo.UpdateProfile(r.Context(), user); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update profile", r))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.authService.ChangePassword(r.Context(), middleware.GetUserID(r.Context()), req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed"})
}

// DeleteMe deactivates the account. Data removal is a separate,
// irreversible admin operation.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.userRepo.Deactivate(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to deactivate account", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deactivated"})
}
