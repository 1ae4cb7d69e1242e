package models

import "github.com/google/uuid"

// UserUpdatesChannel is the Redis pub/sub channel carrying a user's socket events.
func UserUpdatesChannel(userID uuid.UUID) string {
	return "user_updates:" + userID.String()
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatusUpdate struct {
	Topic    string `json:"topic"`
	Step     int    `json:"step"`
	StepName string `json:"step_name"`
	Total    int    `json:"total_steps"`
}

type CompletedEvent struct {
	ResultID   string `json:"result_id"`
	ResultType string `json:"result_type"`
}

type ErrorEvent struct {
	Topic        string `json:"topic"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
