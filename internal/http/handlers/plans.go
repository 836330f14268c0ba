package handlers

import (
	"context"

	"github.com/jmylchreest/kindred-api/internal/config"
	"github.com/jmylchreest/kindred-api/internal/models"
)

// PlansHandler serves the public plan listing for the pricing page.
type PlansHandler struct {
	limits config.PlanLimits
}

// NewPlansHandler creates a new plans handler.
func NewPlansHandler(limits config.PlanLimits) *PlansHandler {
	return &PlansHandler{limits: limits}
}

// PlanView is one plan's caps. Zero means unlimited.
type PlanView struct {
	Plan                  string  `json:"plan"`
	MessagesPerMonth      int64   `json:"messagesPerMonth"`
	VoiceMinutesPerMonth  float64 `json:"voiceMinutesPerMonth"`
	VoiceSessionsPerMonth int64   `json:"voiceSessionsPerMonth"`
	MaxSessionSeconds     int     `json:"maxSessionSeconds"`
}

// ListPlansOutput represents the plan listing response.
type ListPlansOutput struct {
	Body struct {
		Plans []PlanView `json:"plans"`
	}
}

// ListPlans returns the per-plan caps.
func (h *PlansHandler) ListPlans(ctx context.Context, input *struct{}) (*ListPlansOutput, error) {
	out := &ListPlansOutput{}
	for _, plan := range []models.Plan{models.PlanFree, models.PlanPro} {
		l := h.limits.For(plan)
		out.Body.Plans = append(out.Body.Plans, PlanView{
			Plan:                  string(plan),
			MessagesPerMonth:      l.MessagesPerMonth,
			VoiceMinutesPerMonth:  l.VoiceMinutesPerMonth,
			VoiceSessionsPerMonth: l.VoiceSessionsPerMonth,
			MaxSessionSeconds:     l.MaxSessionSeconds,
		})
	}
	return out, nil
}
