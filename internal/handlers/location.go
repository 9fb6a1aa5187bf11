package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"refyn-backend/internal/middleware"
	"refyn-backend/internal/models"
	"refyn-backend/internal/services"
	"refyn-backend/internal/validate"
)

type LocationHandler struct {
	locationRepo locationRepository
	places       *services.PlacesService
}

type locationRepository interface {
	CreateFavorite(ctx context.Context, l *models.Location) error
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]*models.Location, error)
	GetFavorite(ctx context.Context, id uuid.UUID) (*models.Location, error)
	DeleteFavorite(ctx context.Context, id uuid.UUID) error
}

func NewLocationHandler(locationRepo locationRepository, places *services.PlacesService) *LocationHandler {
	return &LocationHandler{locationRepo: locationRepo, places: places}
}

func (h *LocationHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Valid lat and lng are required", r))
		return
	}

	radius := queryInt(r, "radius", 5000)
	category := q.Get("category")
	if category != "" && !services.ValidCategory(category) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown place category", r))
		return
	}

	results, err := h.places.SearchNearby(r.Context(), lat, lng, radius, category)
	if err != nil {
		if errors.Is(err, services.ErrPlacesDisabled) {
			writeJSON(w, http.StatusServiceUnavailable, errorResp("PLACES_UNAVAILABLE", "Location search is not available", r))
			return
		}
		log.Printf("nearby places lookup failed: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", "Location search failed", r))
		return
	}

	places := make([]models.NearbyPlace, 0, len(results))
	for _, p := range results {
		places = append(places, models.NearbyPlace{
			PlaceID:   p.PlaceID,
			Name:      p.Name,
			Address:   p.Address,
			Category:  p.Category,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Rating:    p.Rating,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"places": places})
}

func (h *LocationHandler) SaveFavorite(w http.ResponseWriter, r *http.Request) {
	var req models.SaveFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	loc := &models.Location{
		UserID:    middleware.GetUserID(r.Context()),
		PlaceID:   req.PlaceID,
		Name:      req.Name,
		Address:   req.Address,
		Category:  req.Category,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := h.locationRepo.CreateFavorite(r.Context(), loc); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save favorite", r))
		return
	}

	writeJSON(w, http.StatusCreated, loc)
}

func (h *LocationHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.locationRepo.ListFavorites(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list favorites", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"favorites": favorites})
}

func (h *LocationHandler) DeleteFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid favorite ID", r))
		return
	}

	fav, err := h.locationRepo.GetFavorite(r.Context(), id)
	if err != nil || fav.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Favorite not found", r))
		return
	}

	if err := h.locationRepo.DeleteFavorite(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete favorite", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Favorite removed"})
}
