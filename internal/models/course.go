package models

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
)

// Course lifecycle. A course is created in "generating" and flips to
// "ready" or "failed" by the course-generation worker. Once ready it is
// immutable; the viewer only reads it.
const (
	CourseGenerating = "generating"
	CourseReady      = "ready"
	CourseFailed     = "failed"
)

type Course struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Status         string          `json:"status"`
	Title          string          `json:"title"`
	Description    *string         `json:"description"`
	ConfigJSON     json.RawMessage `json:"config"`
	PartsJSON      json.RawMessage `json:"parts"`
	AssignmentJSON json.RawMessage `json:"final_assignment"`
	PartCount      int             `json:"part_count"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Part is one sequential unit of a micro-course. Parts have no identity
// outside their course; they are addressed by position.
type Part struct {
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	ImageRef string     `json:"image_ref,omitempty"`
	Quiz     []Question `json:"quiz"`
}

type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation,omitempty"`
}

type FinalAssignment struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TaskPrompt  string `json:"task_prompt"`
}

// Parts decodes the stored parts payload. A ready course always carries a
// valid array; a row that fails to decode is logged and rendered as having
// no parts rather than taking the caller down.
func (c *Course) Parts() []Part {
	if len(c.PartsJSON) == 0 {
		return nil
	}

	var parts []Part
	if err := json.Unmarshal(c.PartsJSON, &parts); err != nil {
		log.Printf("course %s: corrupt parts payload: %v", c.ID, err)
		return nil
	}
	return parts
}

func (c *Course) Assignment() *FinalAssignment {
	if len(c.AssignmentJSON) == 0 || string(c.AssignmentJSON) == "null" {
		return nil
	}
	var fa FinalAssignment
	if err := json.Unmarshal(c.AssignmentJSON, &fa); err != nil {
		return nil
	}
	return &fa
}

type GenerateCourseRequest struct {
	NoteIDs   []uuid.UUID `json:"note_ids" validate:"required,min=1,max=20"`
	Title     string      `json:"title" validate:"omitempty,max=200"`
	NumParts  int         `json:"num_parts" validate:"omitempty,min=1,max=10"`
	Level     string      `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	WithFinal bool        `json:"with_final_assignment"`
}
