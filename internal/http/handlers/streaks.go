package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/kindred-api/internal/service"
	"github.com/jmylchreest/kindred-api/internal/streak"
)

// StreakHandler handles streak endpoints.
type StreakHandler struct {
	streakSvc *service.StreakService
}

// NewStreakHandler creates a new streak handler.
func NewStreakHandler(streakSvc *service.StreakService) *StreakHandler {
	return &StreakHandler{streakSvc: streakSvc}
}

// RecordStreakInput represents a streak activity record request.
type RecordStreakInput struct {
	Body struct {
		Action string `json:"action" enum:"chat,journal" doc:"Qualifying activity type"`
	}
}

// RecordStreakOutput represents the streak transition. Optional fields are
// omitted when they don't apply to the transition taken.
type RecordStreakOutput struct {
	Body struct {
		Success        bool `json:"success"`
		Streak         int  `json:"streak"`
		Longest        int  `json:"longest"`
		IsNewRecord    bool `json:"isNewRecord"`
		IsFirstTime    bool `json:"isFirstTime,omitempty"`
		AlreadyUpdated bool `json:"alreadyUpdated,omitempty"`
		StreakBroken   bool `json:"streakBroken,omitempty"`
		PreviousStreak int  `json:"previousStreak,omitempty"`
		Milestone      int  `json:"milestone,omitempty"`
	}
}

// RecordStreak records one qualifying activity dated today. Same-day
// repeats return alreadyUpdated without changing anything.
func (h *StreakHandler) RecordStreak(ctx context.Context, input *RecordStreakInput) (*RecordStreakOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	activity := streak.Activity(input.Body.Action)
	if !activity.Valid() {
		return nil, huma.Error422UnprocessableEntity("action must be chat or journal")
	}

	result, err := h.streakSvc.RecordActivity(ctx, userID, activity)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to record streak")
	}

	out := &RecordStreakOutput{}
	out.Body.Success = true
	out.Body.Streak = result.Streak
	out.Body.Longest = result.Longest
	out.Body.IsNewRecord = result.IsNewRecord
	out.Body.IsFirstTime = result.IsFirstTime
	out.Body.AlreadyUpdated = result.AlreadyUpdated
	out.Body.StreakBroken = result.StreakBroken
	out.Body.PreviousStreak = result.PreviousStreak
	out.Body.Milestone = result.Milestone
	return out, nil
}

// StreakView is the read-side view of one activity streak.
type StreakView struct {
	Activity              string `json:"activity"`
	Current               int    `json:"current"`
	Longest               int    `json:"longest"`
	LastActivity          string `json:"lastActivity,omitempty"`
	DaysSinceLastActivity int    `json:"daysSinceLastActivity"`
	IsAtRisk              bool   `json:"isAtRisk"`
	Milestones            []int  `json:"milestones"`
}

// GetStreaksOutput represents the streak overview response.
type GetStreaksOutput struct {
	Body struct {
		Streaks []StreakView `json:"streaks"`
	}
}

// GetStreaks returns the user's streak state for every activity. Users
// with no activity get zeroed entries, not an error.
func (h *StreakHandler) GetStreaks(ctx context.Context, input *struct{}) (*GetStreaksOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	statuses, err := h.streakSvc.GetAll(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get streaks")
	}

	out := &GetStreaksOutput{}
	out.Body.Streaks = make([]StreakView, 0, len(statuses))
	for _, s := range statuses {
		out.Body.Streaks = append(out.Body.Streaks, StreakView{
			Activity:              string(s.Activity),
			Current:               s.Current,
			Longest:               s.Longest,
			LastActivity:          s.LastActivity,
			DaysSinceLastActivity: s.DaysSince,
			IsAtRisk:              s.AtRisk,
			Milestones:            s.Milestones,
		})
	}
	return out, nil
}
