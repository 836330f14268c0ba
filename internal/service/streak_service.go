package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/kindred-api/internal/repository"
	"github.com/jmylchreest/kindred-api/internal/streak"
)

// StreakStatus is the read-side view of one activity streak.
type StreakStatus struct {
	Activity     streak.Activity
	Current      int
	Longest      int
	LastActivity string // YYYY-MM-DD, empty for a fresh record
	DaysSince    int    // Days since last activity, -1 for a fresh record
	AtRisk       bool
	Milestones   []int
}

// StreakService records qualifying activities and reads streak state.
// Day boundaries come from the injected clock, truncated to UTC dates.
type StreakService struct {
	repo   repository.StreakRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewStreakService creates a new streak service.
func NewStreakService(repos *repository.Repositories, logger *slog.Logger) *StreakService {
	return &StreakService{
		repo:   repos.Streak,
		logger: logger,
		now:    time.Now,
	}
}

// RecordActivity applies one qualifying activity dated today and persists
// the transition. Same-day repeats are no-ops.
func (s *StreakService) RecordActivity(ctx context.Context, userID string, activity streak.Activity) (streak.Result, error) {
	if !activity.Valid() {
		return streak.Result{}, fmt.Errorf("unknown activity %q", activity)
	}

	rec, err := s.repo.Get(ctx, userID, activity)
	if err != nil {
		return streak.Result{}, err
	}
	if rec == nil {
		rec = &streak.Record{UserID: userID, Activity: activity}
	}

	result := rec.Advance(streak.DateOf(s.now()))
	if result.AlreadyUpdated {
		return result, nil
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return streak.Result{}, err
	}

	if result.Milestone > 0 {
		s.logger.Info("streak milestone reached",
			"user_id", userID,
			"activity", string(activity),
			"milestone", result.Milestone,
		)
	}
	return result, nil
}

// Get returns the streak status for one activity. A user with no record
// gets a zeroed status, not an error.
func (s *StreakService) Get(ctx context.Context, userID string, activity streak.Activity) (*StreakStatus, error) {
	if !activity.Valid() {
		return nil, fmt.Errorf("unknown activity %q", activity)
	}
	rec, err := s.repo.Get(ctx, userID, activity)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &streak.Record{UserID: userID, Activity: activity}
	}
	return s.status(rec), nil
}

// GetAll returns streak status for every activity, including zeroed
// entries for activities the user has never done.
func (s *StreakService) GetAll(ctx context.Context, userID string) ([]*StreakStatus, error) {
	records, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	byActivity := make(map[streak.Activity]*streak.Record, len(records))
	for _, rec := range records {
		byActivity[rec.Activity] = rec
	}

	var out []*StreakStatus
	for _, activity := range []streak.Activity{streak.ActivityChat, streak.ActivityJournal} {
		rec, ok := byActivity[activity]
		if !ok {
			rec = &streak.Record{UserID: userID, Activity: activity}
		}
		out = append(out, s.status(rec))
	}
	return out, nil
}

func (s *StreakService) status(rec *streak.Record) *StreakStatus {
	today := streak.DateOf(s.now())
	status := &StreakStatus{
		Activity:   rec.Activity,
		Current:    rec.Current,
		Longest:    rec.Longest,
		DaysSince:  rec.DaysSince(today),
		AtRisk:     rec.AtRisk(today),
		Milestones: streak.Milestones(),
	}
	if !rec.LastActivity.IsZero() {
		status.LastActivity = rec.LastActivity.String()
		// A streak that lapsed reads as zero even before the next write.
		if status.DaysSince > 1 {
			status.Current = 0
		}
	}
	return status
}
