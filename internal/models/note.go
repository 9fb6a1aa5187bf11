package models

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	CritiqueID *uuid.UUID `json:"critique_id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Tags       []string   `json:"tags"`
	IsPinned   bool       `json:"is_pinned"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CreateNoteRequest struct {
	CritiqueID *uuid.UUID `json:"critique_id"`
	Title      string     `json:"title" validate:"required,min=1,max=200"`
	Body       string     `json:"body" validate:"required,max=20000"`
	Tags       []string   `json:"tags" validate:"max=10,dive,max=40"`
}

type UpdateNoteRequest struct {
	Title    *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Body     *string  `json:"body" validate:"omitempty,max=20000"`
	Tags     []string `json:"tags" validate:"omitempty,max=10,dive,max=40"`
	IsPinned *bool    `json:"is_pinned"`
}
