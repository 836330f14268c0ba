package config

import (
	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/usage"
)

// Limits holds the per-plan caps for one plan. Zero means unlimited.
type Limits struct {
	MessagesPerMonth      int64   // Chat messages per monthly period
	VoiceMinutesPerMonth  float64 // Voice minutes per monthly period
	VoiceSessionsPerMonth int64   // Voice sessions started per monthly period
	MaxSessionSeconds     int     // Cap on a single voice session
}

// PlanLimits maps each plan to its caps.
type PlanLimits map[models.Plan]Limits

// loadPlanLimits reads the per-plan caps, with env overrides for the free
// plan so limits can be tuned without a deploy. Pro is uncapped.
func loadPlanLimits() PlanLimits {
	return PlanLimits{
		models.PlanFree: {
			MessagesPerMonth:      int64(getEnvInt("FREE_MESSAGES_PER_MONTH", 120)),
			VoiceMinutesPerMonth:  float64(getEnvInt("FREE_VOICE_MINUTES_PER_MONTH", 500)),
			VoiceSessionsPerMonth: int64(getEnvInt("FREE_VOICE_SESSIONS_PER_MONTH", 50)),
			MaxSessionSeconds:     getEnvInt("FREE_MAX_SESSION_SECONDS", 600),
		},
		models.PlanPro: {
			MaxSessionSeconds: getEnvInt("PRO_MAX_SESSION_SECONDS", 0),
		},
	}
}

// For returns the caps for a plan, falling back to free for unknown plans.
func (p PlanLimits) For(plan models.Plan) Limits {
	if l, ok := p[plan]; ok {
		return l
	}
	return p[models.PlanFree]
}

// MaxUnits returns the cap for a resource in counter units. Zero means
// unlimited.
func (l Limits) MaxUnits(r usage.Resource) usage.Units {
	switch r {
	case usage.ResourceMessages:
		return usage.Units(l.MessagesPerMonth)
	case usage.ResourceVoiceMinutes:
		return usage.UnitsFromValue(r, l.VoiceMinutesPerMonth)
	case usage.ResourceVoiceSessions:
		return usage.Units(l.VoiceSessionsPerMonth)
	}
	return 0
}
