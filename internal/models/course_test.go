package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestCourseParts_Decodes(t *testing.T) {
	c := &Course{
		ID:        uuid.New(),
		PartsJSON: json.RawMessage(`[{"title":"Line","content":"Gesture first.","quiz":[]}]`),
	}

	parts := c.Parts()
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if parts[0].Title != "Line" {
		t.Errorf("unexpected part title %q", parts[0].Title)
	}
}

func TestCourseParts_EmptyPayload(t *testing.T) {
	c := &Course{ID: uuid.New()}
	if parts := c.Parts(); parts != nil {
		t.Fatalf("expected nil parts for empty payload, got %v", parts)
	}
}

func TestCourseParts_CorruptPayload(t *testing.T) {
	c := &Course{
		ID:        uuid.New(),
		PartsJSON: json.RawMessage(`{"not":"an array"`),
	}
	if parts := c.Parts(); parts != nil {
		t.Fatalf("expected nil parts for corrupt payload, got %v", parts)
	}
}

func TestCourseAssignment(t *testing.T) {
	c := &Course{ID: uuid.New()}
	if c.Assignment() != nil {
		t.Error("expected nil assignment for empty payload")
	}

	c.AssignmentJSON = json.RawMessage(`null`)
	if c.Assignment() != nil {
		t.Error("expected nil assignment for null payload")
	}

	c.AssignmentJSON = json.RawMessage(`{"title":"Value Study","description":"Paint it.","task_prompt":"Go."}`)
	fa := c.Assignment()
	if fa == nil {
		t.Fatal("expected assignment")
	}
	if fa.Title != "Value Study" {
		t.Errorf("unexpected assignment title %q", fa.Title)
	}
}
