package handlers

import (
	"net/http"

	"github.com/jmylchreest/kindred-api/internal/service"
	"github.com/jmylchreest/kindred-api/internal/usage"
)

// MessageLimitError is the 403 body returned when the monthly message cap
// is hit. The client renders it directly, so the keys are part of the API
// contract.
type MessageLimitError struct {
	Message        string  `json:"error"`
	MessagesSent   int64   `json:"messagesSent"`
	MaxMessages    int64   `json:"maxMessages"`
	IsLimitReached bool    `json:"isLimitReached"`
	Percentage     float64 `json:"percentage"`
}

func (e *MessageLimitError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *MessageLimitError) GetStatus() int { return http.StatusForbidden }

// ContentType implements huma.ContentTypeFilter so the body is served as
// plain JSON rather than problem+json.
func (e *MessageLimitError) ContentType(string) string { return "application/json" }

// VoiceLimitError is the 403 body for the voice minute cap.
type VoiceLimitError struct {
	Message        string  `json:"error"`
	MinutesUsed    float64 `json:"minutesUsed"`
	MaxMinutes     float64 `json:"maxMinutes"`
	IsLimitReached bool    `json:"isLimitReached"`
	Percentage     float64 `json:"percentage"`
}

func (e *VoiceLimitError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *VoiceLimitError) GetStatus() int { return http.StatusForbidden }

// ContentType implements huma.ContentTypeFilter.
func (e *VoiceLimitError) ContentType(string) string { return "application/json" }

// SessionLimitError is the 403 body for the voice session cap.
type SessionLimitError struct {
	Message        string  `json:"error"`
	SessionsUsed   int64   `json:"sessionsUsed"`
	MaxSessions    int64   `json:"maxSessions"`
	IsLimitReached bool    `json:"isLimitReached"`
	Percentage     float64 `json:"percentage"`
}

func (e *SessionLimitError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *SessionLimitError) GetStatus() int { return http.StatusForbidden }

// ContentType implements huma.ContentTypeFilter.
func (e *SessionLimitError) ContentType(string) string { return "application/json" }

// limitError converts a *service.LimitError into the resource's contract
// payload. Callers must have already checked errors.As.
func limitError(le *service.LimitError) error {
	switch le.Resource {
	case usage.ResourceVoiceMinutes:
		return &VoiceLimitError{
			Message:        "Monthly voice limit reached. Upgrade to Pro for unlimited voice.",
			MinutesUsed:    le.Decision.Amount.Value(usage.ResourceVoiceMinutes),
			MaxMinutes:     le.Decision.Max.Value(usage.ResourceVoiceMinutes),
			IsLimitReached: true,
			Percentage:     100,
		}
	case usage.ResourceVoiceSessions:
		return &SessionLimitError{
			Message:        "Monthly voice session limit reached. Upgrade to Pro for unlimited voice.",
			SessionsUsed:   int64(le.Decision.Amount),
			MaxSessions:    int64(le.Decision.Max),
			IsLimitReached: true,
			Percentage:     100,
		}
	default:
		return &MessageLimitError{
			Message:        "Monthly message limit reached. Upgrade to Pro for unlimited messages.",
			MessagesSent:   int64(le.Decision.Amount),
			MaxMessages:    int64(le.Decision.Max),
			IsLimitReached: true,
			Percentage:     100,
		}
	}
}
