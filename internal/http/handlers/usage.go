package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/kindred-api/internal/service"
	"github.com/jmylchreest/kindred-api/internal/usage"
)

// UsageHandler handles usage endpoints.
type UsageHandler struct {
	usageSvc *service.UsageService
}

// NewUsageHandler creates a new usage handler.
func NewUsageHandler(usageSvc *service.UsageService) *UsageHandler {
	return &UsageHandler{usageSvc: usageSvc}
}

// MessageUsageBody is the message counter state. Keys are part of the
// client contract. maxMessages of 0 means unlimited.
type MessageUsageBody struct {
	MessagesSent      int64   `json:"messagesSent"`
	MaxMessages       int64   `json:"maxMessages"`
	RemainingMessages int64   `json:"remainingMessages"`
	IsLimitReached    bool    `json:"isLimitReached"`
	Percentage        float64 `json:"percentage"`
	MonthYear         string  `json:"monthYear"`
}

// VoiceUsageBody is the voice minute counter state, in minutes.
type VoiceUsageBody struct {
	MinutesUsed      float64 `json:"minutesUsed"`
	MaxMinutes       float64 `json:"maxMinutes"`
	RemainingMinutes float64 `json:"remainingMinutes"`
	IsLimitReached   bool    `json:"isLimitReached"`
	Percentage       float64 `json:"percentage"`
	MonthYear        string  `json:"monthYear"`
}

func messageUsageBody(r *service.ConsumeResult) MessageUsageBody {
	return MessageUsageBody{
		MessagesSent:      int64(r.Decision.Amount),
		MaxMessages:       int64(r.Decision.Max),
		RemainingMessages: int64(r.Decision.Remaining),
		IsLimitReached:    r.Decision.LimitReached,
		Percentage:        r.Decision.Percentage,
		MonthYear:         r.Period,
	}
}

func voiceUsageBody(r *service.ConsumeResult) VoiceUsageBody {
	return VoiceUsageBody{
		MinutesUsed:      r.Decision.Amount.Value(usage.ResourceVoiceMinutes),
		MaxMinutes:       r.Decision.Max.Value(usage.ResourceVoiceMinutes),
		RemainingMinutes: r.Decision.Remaining.Value(usage.ResourceVoiceMinutes),
		IsLimitReached:   r.Decision.LimitReached,
		Percentage:       r.Decision.Percentage,
		MonthYear:        r.Period,
	}
}

// GetMessageUsageOutput represents the message usage response.
type GetMessageUsageOutput struct {
	Body MessageUsageBody
}

// GetMessageUsage returns the current period's message counter.
func (h *UsageHandler) GetMessageUsage(ctx context.Context, input *struct{}) (*GetMessageUsageOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	result, err := h.usageSvc.Status(ctx, userID, usage.ResourceMessages)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get usage")
	}
	return &GetMessageUsageOutput{Body: messageUsageBody(result)}, nil
}

// ConsumeMessagesInput represents a message usage increment.
type ConsumeMessagesInput struct {
	Body struct {
		Count   int64  `json:"count,omitempty" minimum:"1" maximum:"1000" doc:"Messages to record, defaults to 1"`
		EventID string `json:"eventId,omitempty" maxLength:"128" doc:"Idempotency key for safe retries"`
	}
}

// ConsumeMessagesOutput represents the post-increment counter state.
type ConsumeMessagesOutput struct {
	Body MessageUsageBody
}

// ConsumeMessages applies a message increment against the monthly cap.
// Returns 403 with the counter state when the cap would be exceeded.
func (h *UsageHandler) ConsumeMessages(ctx context.Context, input *ConsumeMessagesInput) (*ConsumeMessagesOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	count := input.Body.Count
	if count == 0 {
		count = 1
	}

	result, err := h.usageSvc.Consume(ctx, userID, usage.ResourceMessages, usage.Units(count), input.Body.EventID)
	if err != nil {
		var le *service.LimitError
		if errors.As(err, &le) {
			return nil, limitError(le)
		}
		if errors.Is(err, usage.ErrInvalidDelta) {
			return nil, huma.Error422UnprocessableEntity("count must be positive")
		}
		return nil, huma.Error500InternalServerError("failed to record usage")
	}
	return &ConsumeMessagesOutput{Body: messageUsageBody(result)}, nil
}

// GetVoiceUsageOutput represents the voice usage response.
type GetVoiceUsageOutput struct {
	Body VoiceUsageBody
}

// GetVoiceUsage returns the current period's voice minute counter.
func (h *UsageHandler) GetVoiceUsage(ctx context.Context, input *struct{}) (*GetVoiceUsageOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	result, err := h.usageSvc.Status(ctx, userID, usage.ResourceVoiceMinutes)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get usage")
	}
	return &GetVoiceUsageOutput{Body: voiceUsageBody(result)}, nil
}

// ConsumeVoiceInput represents a voice minute increment.
type ConsumeVoiceInput struct {
	Body struct {
		Minutes float64 `json:"minutes" minimum:"0" maximum:"1440" doc:"Voice minutes to record, rounded to tenths"`
		EventID string  `json:"eventId,omitempty" maxLength:"128" doc:"Idempotency key for safe retries"`
	}
}

// ConsumeVoiceOutput represents the post-increment counter state.
type ConsumeVoiceOutput struct {
	Body VoiceUsageBody
}

// ConsumeVoice applies a voice minute increment against the monthly cap.
func (h *UsageHandler) ConsumeVoice(ctx context.Context, input *ConsumeVoiceInput) (*ConsumeVoiceOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	delta := usage.UnitsFromValue(usage.ResourceVoiceMinutes, input.Body.Minutes)
	if delta <= 0 {
		return nil, huma.Error422UnprocessableEntity("minutes must be at least 0.1")
	}

	result, err := h.usageSvc.Consume(ctx, userID, usage.ResourceVoiceMinutes, delta, input.Body.EventID)
	if err != nil {
		var le *service.LimitError
		if errors.As(err, &le) {
			return nil, limitError(le)
		}
		return nil, huma.Error500InternalServerError("failed to record usage")
	}
	return &ConsumeVoiceOutput{Body: voiceUsageBody(result)}, nil
}
