package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestQueueName(t *testing.T) {
	if got := QueueName(JobTypeCritique); got != "queue:critique-generation" {
		t.Errorf("critique queue = %q", got)
	}
	if got := QueueName(JobTypeCourse); got != "queue:course-generation" {
		t.Errorf("course queue = %q", got)
	}
	if got := QueueName("mystery"); got != "" {
		t.Errorf("expected empty queue for unknown type, got %q", got)
	}
}

func TestJobTerminal(t *testing.T) {
	for _, status := range []string{JobCompleted, JobFailed, JobCancelled} {
		j := &Job{Status: status}
		if !j.Terminal() {
			t.Errorf("status %q should be terminal", status)
		}
	}
	for _, status := range []string{JobPending, JobProcessing} {
		j := &Job{Status: status}
		if j.Terminal() {
			t.Errorf("status %q should not be terminal", status)
		}
	}
}

func TestUserEventChannel(t *testing.T) {
	id := uuid.New()
	want := "user-events:" + id.String()
	if got := UserEventChannel(id); got != want {
		t.Errorf("channel = %q, want %q", got, want)
	}
}
