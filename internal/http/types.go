package http

import (
	"github.com/fyrsmithlabs/voicetask/internal/service"
	"github.com/fyrsmithlabs/voicetask/internal/telemetry"
)

// ProcessInputRequest is the request body for POST /api/v1/nlp/process-input.
type ProcessInputRequest struct {
	InputText string `json:"inputText"`
	Source    string `json:"source,omitempty"` // "voice" or "typed"
	Title     string `json:"title,omitempty"`
}

// ProcessInputResponse is the success body for POST /api/v1/nlp/process-input.
type ProcessInputResponse = service.Response

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error             string   `json:"error"`
	Errors            []string `json:"errors,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	RetryAfterSeconds int      `json:"retryAfterSeconds,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string                  `json:"status"` // "ok" or "degraded"
	Version   string                  `json:"version,omitempty"`
	Telemetry *telemetry.HealthStatus `json:"telemetry,omitempty"`
}
