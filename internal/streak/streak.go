// Package streak contains the pure consecutive-day streak core. All
// transitions take the caller's idea of "today" so the clock never leaks
// into the decision logic and tests can replay arbitrary calendars.
package streak

import (
	"fmt"
	"time"
)

// Activity identifies a streak-qualifying activity type.
type Activity string

const (
	ActivityChat    Activity = "chat"
	ActivityJournal Activity = "journal"
)

// Valid reports whether a is a known activity type.
func (a Activity) Valid() bool {
	return a == ActivityChat || a == ActivityJournal
}

// Date is a calendar date with no time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates a point in time to its UTC calendar date.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return Date{Year: u.Year(), Month: u.Month(), Day: u.Day()}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero date (no activity recorded).
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the number of calendar days from d to other.
// Negative when other precedes d.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time().Sub(d.Time()).Hours() / 24)
}

// Record is the persistent streak state for one (user, activity) pair.
type Record struct {
	UserID       string
	Activity     Activity
	Current      int
	Longest      int
	LastActivity Date
	UpdatedAt    time.Time
}

// Result describes what a transition did, for user-facing messaging.
type Result struct {
	Streak         int
	Longest        int
	IsFirstTime    bool
	AlreadyUpdated bool
	StreakBroken   bool
	PreviousStreak int
	IsNewRecord    bool
	Milestone      int // 0 when no milestone was crossed
}

// Advance applies one qualifying activity dated today, mutating r.
// Transitions:
//   - fresh record: streak starts at 1
//   - same day: idempotent no-op
//   - next day: streak continues
//   - gap of 2+ days: streak resets to 1, the activity itself is day one
//
// Longest is raised to Current whenever Current exceeds it, so
// Longest >= Current always holds afterwards.
func (r *Record) Advance(today Date) Result {
	if r.LastActivity.IsZero() {
		r.Current = 1
		r.LastActivity = today
		res := Result{Streak: 1, IsFirstTime: true}
		r.raiseLongest(&res)
		res.Milestone = milestoneCrossed(r.Current)
		return res
	}

	switch days := r.LastActivity.DaysUntil(today); {
	case days <= 0:
		// Same day (or a clock that went backwards): no-op.
		return Result{Streak: r.Current, Longest: r.Longest, AlreadyUpdated: true}
	case days == 1:
		r.Current++
		r.LastActivity = today
		res := Result{Streak: r.Current}
		r.raiseLongest(&res)
		res.Milestone = milestoneCrossed(r.Current)
		return res
	default:
		prev := r.Current
		r.Current = 1
		r.LastActivity = today
		res := Result{Streak: 1, StreakBroken: true, PreviousStreak: prev}
		r.raiseLongest(&res)
		return res
	}
}

func (r *Record) raiseLongest(res *Result) {
	if r.Current > r.Longest {
		r.Longest = r.Current
		res.IsNewRecord = true
	}
	res.Longest = r.Longest
}

// DaysSince returns calendar days from the last activity to today.
// Returns -1 for a fresh record.
func (r *Record) DaysSince(today Date) int {
	if r.LastActivity.IsZero() {
		return -1
	}
	return r.LastActivity.DaysUntil(today)
}

// AtRisk reports whether the streak lapses unless the user acts today:
// the last activity was exactly yesterday. A record touched today is
// safe, and a record older than a day is already broken, not at risk.
// Derived on every read, never stored.
func (r *Record) AtRisk(today Date) bool {
	return r.Current > 0 && r.DaysSince(today) == 1
}

// milestones are the celebrated streak lengths, ascending.
var milestones = [...]int{7, 14, 30, 50, 100, 200, 365}

// milestoneCrossed returns n when n is exactly a milestone, else 0.
// One-time celebration state is the caller's concern.
func milestoneCrossed(n int) int {
	for _, m := range milestones {
		if n == m {
			return m
		}
	}
	return 0
}

// Milestones returns the celebrated streak lengths.
func Milestones() []int {
	out := make([]int, len(milestones))
	copy(out, milestones[:])
	return out
}
