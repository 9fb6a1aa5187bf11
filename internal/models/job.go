package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job types, one per generation queue.
const (
	JobTypeCritique = "critique-generation"
	JobTypeCourse   = "course-generation"
)

// Job lifecycle. Pending jobs sit on a redis queue; a worker moves them
// to processing and finishes in completed or failed. Cancellation only
// applies while pending.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
	JobCancelled  = "cancelled"
)

// JobMaxRetries is how many delivery attempts a job gets before it is
// marked failed for good.
const JobMaxRetries = 3

// Job is one queued generation request. ReferenceID points at the
// critique or course row the job will fill in.
type Job struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         string          `json:"type"`
	ReferenceID  uuid.UUID       `json:"reference_id"`
	ConfigJSON   json.RawMessage `json:"config"`
	Status       string          `json:"status"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed || j.Status == JobCancelled
}

// QueueName returns the redis list a job type is delivered on, or ""
// for unknown types.
func QueueName(jobType string) string {
	switch jobType {
	case JobTypeCritique:
		return "queue:" + JobTypeCritique
	case JobTypeCourse:
		return "queue:" + JobTypeCourse
	default:
		return ""
	}
}
