package models

import "time"

// ErrorResponse is the uniform body returned when metrics cannot be retrieved.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// NewErrorResponse builds an ErrorResponse with the given client-facing message.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: true, Message: message}
}

// StatusHealthy is the only status the health endpoint reports.
const StatusHealthy = "healthy"

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
