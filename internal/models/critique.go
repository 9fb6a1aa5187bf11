package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Critique lifecycle, mirroring the course one.
const (
	CritiqueGenerating = "generating"
	CritiqueReady      = "ready"
	CritiqueFailed     = "failed"
)

type Critique struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	MediaID     uuid.UUID       `json:"media_id"`
	Status      string          `json:"status"` // "generating" | "ready" | "failed"
	Title       string          `json:"title"`
	Focus       string          `json:"focus"` // "technique" | "composition" | "narrative" | "general"
	Depth       string          `json:"depth"` // "quick" | "standard" | "detailed"
	ConfigJSON  json.RawMessage `json:"config"`
	Body        *string         `json:"body"`
	Strengths   *string         `json:"strengths"`
	Improvement *string         `json:"improvements"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"created_at"`
}

type RequestCritiqueRequest struct {
	MediaID uuid.UUID `json:"media_id" validate:"required"`
	Title   string    `json:"title" validate:"omitempty,max=200"`
	Focus   string    `json:"focus" validate:"omitempty,oneof=technique composition narrative general"`
	Depth   string    `json:"depth" validate:"omitempty,oneof=quick standard detailed"`
	Prompt  string    `json:"prompt" validate:"omitempty,max=2000"`
}

type ChatTurn struct {
	Role    string `json:"role"` // "user" | "model"
	Message string `json:"message"`
}

type ChatRequest struct {
	Message string     `json:"message" validate:"required,max=4000"`
	History []ChatTurn `json:"history" validate:"max=40,dive"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
