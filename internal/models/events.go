package models

import "github.com/google/uuid"

// UserEventChannel is the per-user redis pub/sub channel progress events
// travel on between the workers and the websocket hub.
func UserEventChannel(userID uuid.UUID) string {
	return "user-events:" + userID.String()
}

// WSMessage is the envelope for everything pushed over the websocket.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StatusUpdate reports generation progress for a running job.
type StatusUpdate struct {
	JobID                     uuid.UUID `json:"job_id"`
	Step                      int       `json:"step"`
	StepName                  string    `json:"step_name"`
	EstimatedSecondsRemaining int       `json:"estimated_seconds_remaining"`
}

type CompletedEvent struct {
	JobID      uuid.UUID `json:"job_id"`
	ResultID   uuid.UUID `json:"result_id"`
	ResultType string    `json:"result_type"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// APIError is the error envelope every non-2xx response carries.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
