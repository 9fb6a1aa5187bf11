package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a cultural place returned by the places provider. Only
// favorites are persisted; nearby results are passed through as-is.
type Location struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	PlaceID   string    `json:"place_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Category  string    `json:"category"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

type NearbyPlace struct {
	PlaceID   string   `json:"place_id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Category  string   `json:"category"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Rating    *float64 `json:"rating,omitempty"`
}

type SaveFavoriteRequest struct {
	PlaceID   string  `json:"place_id" validate:"required,max=200"`
	Name      string  `json:"name" validate:"required,max=200"`
	Address   string  `json:"address" validate:"max=300"`
	Category  string  `json:"category" validate:"max=80"`
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}
