package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/service"
)

// VoiceHandler handles voice session and speech endpoints.
type VoiceHandler struct {
	voiceSvc *service.VoiceService
}

// NewVoiceHandler creates a new voice handler.
func NewVoiceHandler(voiceSvc *service.VoiceService) *VoiceHandler {
	return &VoiceHandler{voiceSvc: voiceSvc}
}

// StartVoiceSessionInput represents a session start request.
type StartVoiceSessionInput struct {
	Body struct {
		EventID string `json:"eventId,omitempty" maxLength:"128" doc:"Idempotency key for safe retries"`
	}
}

// StartVoiceSessionOutput represents the session grant.
type StartVoiceSessionOutput struct {
	Body struct {
		SessionID         string `json:"sessionId"`
		MaxSessionSeconds int    `json:"maxSessionSeconds" doc:"Single-session cap in seconds, 0 when uncapped"`
		SessionsUsed      int64  `json:"sessionsUsed"`
		MaxSessions       int64  `json:"maxSessions" doc:"Monthly session cap, 0 when uncapped"`
	}
}

// StartVoiceSession consumes one session from the monthly cap and issues a
// grant the client presents when completing the session.
func (h *VoiceHandler) StartVoiceSession(ctx context.Context, input *StartVoiceSessionInput) (*StartVoiceSessionOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	grant, err := h.voiceSvc.StartSession(ctx, userID, input.Body.EventID)
	if err != nil {
		var le *service.LimitError
		if errors.As(err, &le) {
			return nil, limitError(le)
		}
		return nil, huma.Error500InternalServerError("failed to start voice session")
	}

	out := &StartVoiceSessionOutput{}
	out.Body.SessionID = grant.SessionID
	out.Body.MaxSessionSeconds = grant.MaxSessionSeconds
	out.Body.SessionsUsed = int64(grant.Usage.Decision.Amount)
	out.Body.MaxSessions = int64(grant.Usage.Decision.Max)
	return out, nil
}

// CompleteVoiceSessionInput represents a session completion request.
type CompleteVoiceSessionInput struct {
	Body struct {
		SessionID       string `json:"sessionId" minLength:"1" doc:"Grant from the session start"`
		Kind            string `json:"kind" enum:"transcription,synthesis" doc:"Session type"`
		DurationSeconds int    `json:"durationSeconds" minimum:"1" doc:"Actual session length"`
		Audio           []byte `json:"audio,omitempty" doc:"Session audio, stored when object storage is configured"`
		ContentType     string `json:"contentType,omitempty" doc:"Audio MIME type"`
	}
}

// CompleteVoiceSessionOutput represents the completed session and minute
// charge.
type CompleteVoiceSessionOutput struct {
	Body struct {
		Session *models.VoiceSession `json:"session"`
		Usage   VoiceUsageBody       `json:"usage"`
	}
}

// CompleteVoiceSession records a finished session and meters its minutes.
// Retrying a completion with the same session ID never double-bills.
func (h *VoiceHandler) CompleteVoiceSession(ctx context.Context, input *CompleteVoiceSessionInput) (*CompleteVoiceSessionOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	result, err := h.voiceSvc.CompleteSession(
		ctx,
		userID,
		input.Body.SessionID,
		models.VoiceSessionKind(input.Body.Kind),
		input.Body.DurationSeconds,
		input.Body.Audio,
		input.Body.ContentType,
	)
	if err != nil {
		var le *service.LimitError
		switch {
		case errors.As(err, &le):
			return nil, limitError(le)
		case errors.Is(err, service.ErrInvalidDuration):
			return nil, huma.Error422UnprocessableEntity("duration must be positive")
		case errors.Is(err, service.ErrSessionTooLong):
			return nil, huma.Error422UnprocessableEntity("session exceeds maximum duration")
		default:
			return nil, huma.Error500InternalServerError("failed to complete voice session")
		}
	}

	out := &CompleteVoiceSessionOutput{}
	out.Body.Session = result.Session
	out.Body.Usage = voiceUsageBody(result.Minutes)
	return out, nil
}

// TranscribeInput represents a speech-to-text request.
type TranscribeInput struct {
	Body struct {
		Audio       []byte `json:"audio" doc:"Audio to transcribe"`
		ContentType string `json:"contentType,omitempty" doc:"Audio MIME type"`
	}
}

// TranscribeOutput represents the transcription response.
type TranscribeOutput struct {
	Body struct {
		Text string `json:"text"`
	}
}

// Transcribe converts audio to text via the speech backend.
func (h *VoiceHandler) Transcribe(ctx context.Context, input *TranscribeInput) (*TranscribeOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}
	if len(input.Body.Audio) == 0 {
		return nil, huma.Error422UnprocessableEntity("audio is empty")
	}

	text, err := h.voiceSvc.Transcribe(ctx, input.Body.Audio, input.Body.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrSpeechNotConfigured) {
			return nil, huma.Error503ServiceUnavailable("speech service not configured")
		}
		return nil, huma.Error500InternalServerError("transcription failed")
	}

	out := &TranscribeOutput{}
	out.Body.Text = text
	return out, nil
}

// SynthesizeInput represents a text-to-speech request.
type SynthesizeInput struct {
	Body struct {
		Text  string `json:"text" minLength:"1" maxLength:"4000" doc:"Text to speak"`
		Voice string `json:"voice,omitempty" doc:"Voice preset"`
	}
}

// SynthesizeOutput represents the synthesized audio.
type SynthesizeOutput struct {
	Body struct {
		Audio       []byte `json:"audio"`
		ContentType string `json:"contentType"`
	}
}

// Synthesize converts companion text to audio via the speech backend.
func (h *VoiceHandler) Synthesize(ctx context.Context, input *SynthesizeInput) (*SynthesizeOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	audio, contentType, err := h.voiceSvc.Synthesize(ctx, input.Body.Text, input.Body.Voice)
	if err != nil {
		if errors.Is(err, service.ErrSpeechNotConfigured) {
			return nil, huma.Error503ServiceUnavailable("speech service not configured")
		}
		return nil, huma.Error500InternalServerError("synthesis failed")
	}

	out := &SynthesizeOutput{}
	out.Body.Audio = audio
	out.Body.ContentType = contentType
	return out, nil
}

// ListVoiceSessionsInput represents a session history request.
type ListVoiceSessionsInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Page size"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// ListVoiceSessionsOutput represents the session history response.
type ListVoiceSessionsOutput struct {
	Body struct {
		Sessions []*models.VoiceSession `json:"sessions"`
	}
}

// ListVoiceSessions returns the user's voice session history, newest first.
func (h *VoiceHandler) ListVoiceSessions(ctx context.Context, input *ListVoiceSessionsInput) (*ListVoiceSessionsOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	sessions, err := h.voiceSvc.ListSessions(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list voice sessions")
	}
	if sessions == nil {
		sessions = []*models.VoiceSession{}
	}

	out := &ListVoiceSessionsOutput{}
	out.Body.Sessions = sessions
	return out, nil
}
