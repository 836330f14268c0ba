package usage

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodKey(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"mid month", time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC), "2026-08"},
		{"single digit month padded", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "2026-03"},
		{"december", time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), "2025-12"},
		// Local time ahead of UTC still buckets by the UTC month.
		{"timezone normalized", time.Date(2026, 9, 1, 3, 0, 0, 0, time.FixedZone("UTC+10", 10*3600)), "2026-08"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodKey(tt.in); got != tt.want {
				t.Errorf("PeriodKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPeriodBefore(t *testing.T) {
	base := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	if got := PeriodBefore(base, 3); got != "2025-11" {
		t.Errorf("PeriodBefore(3) = %q, want %q", got, "2025-11")
	}
	if got := PeriodBefore(base, 0); got != "2026-02" {
		t.Errorf("PeriodBefore(0) = %q, want %q", got, "2026-02")
	}
}

func TestResourceScale(t *testing.T) {
	if got := ResourceMessages.Scale(); got != 1 {
		t.Errorf("messages scale = %d, want 1", got)
	}
	if got := ResourceVoiceMinutes.Scale(); got != 10 {
		t.Errorf("voice minutes scale = %d, want 10", got)
	}
}

func TestUnitsRoundTrip(t *testing.T) {
	u := UnitsFromValue(ResourceVoiceMinutes, 2.5)
	if u != 25 {
		t.Fatalf("UnitsFromValue(2.5 min) = %d, want 25", u)
	}
	if got := u.Value(ResourceVoiceMinutes); got != 2.5 {
		t.Errorf("Value() = %v, want 2.5", got)
	}
	// Sub-tenth noise rounds to the nearest tenth.
	if got := UnitsFromValue(ResourceVoiceMinutes, 0.04); got != 0 {
		t.Errorf("UnitsFromValue(0.04) = %d, want 0", got)
	}
	if got := UnitsFromValue(ResourceVoiceMinutes, 0.05); got != 1 {
		t.Errorf("UnitsFromValue(0.05) = %d, want 1", got)
	}
}

func TestEvaluateRejectsNonPositiveDelta(t *testing.T) {
	for _, delta := range []Units{0, -1} {
		if _, err := Evaluate(5, delta, 120); !errors.Is(err, ErrInvalidDelta) {
			t.Errorf("Evaluate(delta=%d) error = %v, want ErrInvalidDelta", delta, err)
		}
	}
}

func TestEvaluateFirstIncrement(t *testing.T) {
	// Fresh user sends their first message: 1/120.
	d, err := Evaluate(0, 1, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed {
		t.Fatal("expected allowed")
	}
	if d.Amount != 1 {
		t.Errorf("Amount = %d, want 1", d.Amount)
	}
	if d.Remaining != 119 {
		t.Errorf("Remaining = %d, want 119", d.Remaining)
	}
	if d.Percentage != 0.8 {
		t.Errorf("Percentage = %v, want 0.8", d.Percentage)
	}
	if d.LimitReached {
		t.Error("LimitReached = true, want false")
	}
}

func TestEvaluateDeniesAtLimit(t *testing.T) {
	// User at 120/120: increment denied, amount unchanged.
	d, err := Evaluate(120, 1, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected denied")
	}
	if d.Amount != 120 {
		t.Errorf("Amount = %d, want 120 (unchanged)", d.Amount)
	}
	if !d.LimitReached {
		t.Error("LimitReached = false, want true")
	}
	if d.Percentage != 100 {
		t.Errorf("Percentage = %v, want 100", d.Percentage)
	}
	if d.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", d.Remaining)
	}
}

func TestEvaluateExactFill(t *testing.T) {
	d, err := Evaluate(119, 1, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed {
		t.Fatal("119+1 should be allowed at max 120")
	}
	if !d.LimitReached {
		t.Error("filling to max should report LimitReached")
	}
	if d.Percentage != 100 {
		t.Errorf("Percentage = %v, want 100", d.Percentage)
	}
}

func TestEvaluateOvershootDenied(t *testing.T) {
	// Partial room left but delta overshoots: deny, report honest state.
	d, err := Evaluate(118, 5, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("118+5 must not be allowed at max 120")
	}
	if d.Amount != 118 {
		t.Errorf("Amount = %d, want 118", d.Amount)
	}
	if d.Remaining != 2 {
		t.Errorf("Remaining = %d, want 2", d.Remaining)
	}
}

func TestEvaluateUnlimited(t *testing.T) {
	d, err := Evaluate(1_000_000, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed {
		t.Fatal("max=0 means unlimited")
	}
	if d.LimitReached {
		t.Error("unlimited never reports LimitReached")
	}
}

func TestEvaluateBounds(t *testing.T) {
	// Property sweep: never allow amount+delta > max; remaining in [0,max];
	// percentage in [0,100].
	const max = Units(50)
	for current := Units(0); current <= max+5; current++ {
		for delta := Units(1); delta <= 10; delta++ {
			d, err := Evaluate(current, delta, max)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Allowed && current+delta > max {
				t.Fatalf("allowed %d+%d over max %d", current, delta, max)
			}
			if d.Remaining < 0 || d.Remaining > max {
				t.Fatalf("remaining %d out of [0,%d]", d.Remaining, max)
			}
			if d.Percentage < 0 || d.Percentage > 100 {
				t.Fatalf("percentage %v out of [0,100]", d.Percentage)
			}
		}
	}
}

func TestStatusVoiceMinutes(t *testing.T) {
	// 123.4 of 500 minutes, stored in tenths.
	amount := UnitsFromValue(ResourceVoiceMinutes, 123.4)
	max := UnitsFromValue(ResourceVoiceMinutes, 500)
	d := Status(amount, max)
	if got := d.Amount.Value(ResourceVoiceMinutes); got != 123.4 {
		t.Errorf("amount value = %v, want 123.4", got)
	}
	if got := d.Remaining.Value(ResourceVoiceMinutes); got != 376.6 {
		t.Errorf("remaining value = %v, want 376.6", got)
	}
	if d.Percentage != 24.7 {
		t.Errorf("Percentage = %v, want 24.7", d.Percentage)
	}
}

func TestStatusZeroUsage(t *testing.T) {
	d := Status(0, 120)
	if d.Percentage != 0 || d.Remaining != 120 || d.LimitReached {
		t.Errorf("Status(0,120) = %+v, want zeroed percentage and full remaining", d)
	}
}
