package streak

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) Date {
	return Date{Year: y, Month: m, Day: d}
}

func TestDateOfUsesUTC(t *testing.T) {
	// 23:30 on the 14th in UTC-5 is already the 15th in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	got := DateOf(time.Date(2026, 8, 14, 23, 30, 0, 0, loc))
	want := date(2026, 8, 15)
	if got != want {
		t.Errorf("DateOf() = %v, want %v", got, want)
	}
}

func TestDaysUntilCrossesMonthBoundary(t *testing.T) {
	if got := date(2026, 8, 31).DaysUntil(date(2026, 9, 1)); got != 1 {
		t.Errorf("DaysUntil = %d, want 1", got)
	}
	if got := date(2026, 2, 28).DaysUntil(date(2026, 3, 2)); got != 2 {
		t.Errorf("DaysUntil = %d, want 2", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-08-28")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != date(2026, 8, 28) {
		t.Errorf("ParseDate = %v", d)
	}
	if _, err := ParseDate("not-a-date"); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestAdvanceFirstActivity(t *testing.T) {
	rec := &Record{UserID: "user_1", Activity: ActivityChat}
	res := rec.Advance(date(2026, 8, 28))

	if !res.IsFirstTime {
		t.Error("expected IsFirstTime")
	}
	if res.Streak != 1 || rec.Current != 1 {
		t.Errorf("streak = %d/%d, want 1", res.Streak, rec.Current)
	}
	if !res.IsNewRecord || rec.Longest != 1 {
		t.Errorf("longest = %d, IsNewRecord = %v, want 1/true", rec.Longest, res.IsNewRecord)
	}
}

func TestAdvanceSameDayIsIdempotent(t *testing.T) {
	today := date(2026, 8, 28)
	rec := &Record{Current: 5, Longest: 9, LastActivity: today}

	res := rec.Advance(today)
	if !res.AlreadyUpdated {
		t.Error("expected AlreadyUpdated on same-day repeat")
	}
	if res.Streak != 5 || rec.Current != 5 {
		t.Errorf("streak changed on same-day call: %d", rec.Current)
	}
	if res.StreakBroken || res.IsFirstTime || res.IsNewRecord {
		t.Errorf("unexpected flags on no-op: %+v", res)
	}
}

func TestAdvanceNextDayContinues(t *testing.T) {
	// Scenario: currentStreak=5, last activity yesterday -> 6 today.
	rec := &Record{Current: 5, Longest: 5, LastActivity: date(2026, 8, 27)}

	res := rec.Advance(date(2026, 8, 28))
	if res.Streak != 6 {
		t.Errorf("Streak = %d, want 6", res.Streak)
	}
	if !res.IsNewRecord {
		t.Error("6 > previous longest 5, expected IsNewRecord")
	}
	if rec.Longest != 6 {
		t.Errorf("Longest = %d, want 6", rec.Longest)
	}
}

func TestAdvanceNextDayBelowLongest(t *testing.T) {
	rec := &Record{Current: 2, Longest: 10, LastActivity: date(2026, 8, 27)}

	res := rec.Advance(date(2026, 8, 28))
	if res.Streak != 3 {
		t.Errorf("Streak = %d, want 3", res.Streak)
	}
	if res.IsNewRecord {
		t.Error("3 < longest 10, IsNewRecord must be false")
	}
	if rec.Longest != 10 {
		t.Errorf("Longest = %d, want 10", rec.Longest)
	}
}

func TestAdvanceGapResets(t *testing.T) {
	// Scenario: last activity 4 days ago with streak 10 -> reset to 1.
	rec := &Record{Current: 10, Longest: 10, LastActivity: date(2026, 8, 24)}

	res := rec.Advance(date(2026, 8, 28))
	if !res.StreakBroken {
		t.Error("expected StreakBroken")
	}
	if res.PreviousStreak != 10 {
		t.Errorf("PreviousStreak = %d, want 10", res.PreviousStreak)
	}
	if res.Streak != 1 || rec.Current != 1 {
		t.Errorf("Streak = %d, want 1 (activity counts as day one)", res.Streak)
	}
	if rec.Longest != 10 {
		t.Errorf("Longest = %d, want 10 preserved", rec.Longest)
	}
}

func TestAdvanceTwoDayGapBreaks(t *testing.T) {
	// Exactly two days since last activity is already a break.
	rec := &Record{Current: 3, Longest: 3, LastActivity: date(2026, 8, 26)}
	res := rec.Advance(date(2026, 8, 28))
	if !res.StreakBroken || res.Streak != 1 {
		t.Errorf("gap of 2 days: got %+v, want broken reset", res)
	}
}

func TestLongestNeverBelowCurrent(t *testing.T) {
	rec := &Record{}
	base := date(2026, 1, 1)
	for i := 0; i < 400; i++ {
		rec.Advance(DateOf(base.Time().AddDate(0, 0, i)))
		if rec.Longest < rec.Current {
			t.Fatalf("day %d: longest %d < current %d", i, rec.Longest, rec.Current)
		}
	}
}

func TestAtRisk(t *testing.T) {
	today := date(2026, 8, 28)
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{"active today is safe", Record{Current: 4, LastActivity: today}, false},
		{"yesterday is at risk", Record{Current: 4, LastActivity: date(2026, 8, 27)}, true},
		{"two days ago already broken", Record{Current: 4, LastActivity: date(2026, 8, 26)}, false},
		{"zero streak never at risk", Record{Current: 0, LastActivity: date(2026, 8, 27)}, false},
		{"fresh record", Record{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.AtRisk(today); got != tt.want {
				t.Errorf("AtRisk = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDaysSince(t *testing.T) {
	today := date(2026, 8, 28)
	rec := Record{LastActivity: date(2026, 8, 25)}
	if got := rec.DaysSince(today); got != 3 {
		t.Errorf("DaysSince = %d, want 3", got)
	}
	fresh := Record{}
	if got := fresh.DaysSince(today); got != -1 {
		t.Errorf("fresh DaysSince = %d, want -1", got)
	}
}

func TestMilestoneCrossed(t *testing.T) {
	for _, m := range []int{7, 14, 30, 50, 100, 200, 365} {
		rec := &Record{Current: m - 1, Longest: m - 1, LastActivity: date(2026, 8, 27)}
		res := rec.Advance(date(2026, 8, 28))
		if res.Milestone != m {
			t.Errorf("streak %d: Milestone = %d, want %d", m, res.Milestone, m)
		}
	}
	rec := &Record{Current: 7, Longest: 7, LastActivity: date(2026, 8, 27)}
	res := rec.Advance(date(2026, 8, 28))
	if res.Milestone != 0 {
		t.Errorf("streak 8: Milestone = %d, want 0", res.Milestone)
	}
}
