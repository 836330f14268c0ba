package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jmylchreest/kindred-api/internal/usage"
)

func TestUsageRepository_GetMissingRowIsZero(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	amount, err := repos.Usage.Get(ctx, "user_1", usage.ResourceMessages, "2026-08")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if amount != 0 {
		t.Errorf("amount = %d, want 0 for missing row", amount)
	}
}

func TestUsageRepository_IncrementCreatesAndAccumulates(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	amount, err := repos.Usage.Increment(ctx, "user_1", usage.ResourceMessages, "2026-08", 1)
	if err != nil {
		t.Fatalf("first increment failed: %v", err)
	}
	if amount != 1 {
		t.Errorf("amount = %d, want 1", amount)
	}

	amount, err = repos.Usage.Increment(ctx, "user_1", usage.ResourceMessages, "2026-08", 4)
	if err != nil {
		t.Fatalf("second increment failed: %v", err)
	}
	if amount != 5 {
		t.Errorf("amount = %d, want 5", amount)
	}

	got, err := repos.Usage.Get(ctx, "user_1", usage.ResourceMessages, "2026-08")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 5 {
		t.Errorf("Get = %d, want 5", got)
	}
}

func TestUsageRepository_IncrementIsolatesKeys(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	if _, err := repos.Usage.Increment(ctx, "user_1", usage.ResourceMessages, "2026-08", 3); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if _, err := repos.Usage.Increment(ctx, "user_1", usage.ResourceVoiceMinutes, "2026-08", 25); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if _, err := repos.Usage.Increment(ctx, "user_1", usage.ResourceMessages, "2026-09", 1); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if _, err := repos.Usage.Increment(ctx, "user_2", usage.ResourceMessages, "2026-08", 7); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	counters, err := repos.Usage.GetAll(ctx, "user_1", "2026-08")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if counters[usage.ResourceMessages] != 3 {
		t.Errorf("messages = %d, want 3", counters[usage.ResourceMessages])
	}
	if counters[usage.ResourceVoiceMinutes] != 25 {
		t.Errorf("voice minutes = %d, want 25", counters[usage.ResourceVoiceMinutes])
	}
	if len(counters) != 2 {
		t.Errorf("counters = %v, want exactly 2 rows for the period", counters)
	}
}

func TestUsageRepository_ConsumeEventAppliesOnce(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	event := &UsageEvent{
		UserID:    "user_1",
		EventID:   "evt_abc",
		Resource:  usage.ResourceMessages,
		Period:    "2026-08",
		Amount:    1,
		CreatedAt: time.Now(),
	}

	amount, applied, err := repos.Usage.ConsumeEvent(ctx, event)
	if err != nil {
		t.Fatalf("ConsumeEvent failed: %v", err)
	}
	if !applied {
		t.Fatal("first ConsumeEvent should apply")
	}
	if amount != 1 {
		t.Errorf("amount = %d, want 1", amount)
	}

	amount, applied, err = repos.Usage.ConsumeEvent(ctx, event)
	if err != nil {
		t.Fatalf("duplicate ConsumeEvent failed: %v", err)
	}
	if applied {
		t.Error("duplicate ConsumeEvent should report not applied")
	}
	if amount != 1 {
		t.Errorf("duplicate must not move the counter: amount = %d, want 1", amount)
	}

	got, err := repos.Usage.Get(ctx, "user_1", usage.ResourceMessages, "2026-08")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 1 {
		t.Errorf("counter = %d, want 1 after replay", got)
	}

	rec, err := repos.Usage.GetEvent(ctx, "user_1", "evt_abc", "2026-08")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if rec == nil || rec.Resource != usage.ResourceMessages || rec.Amount != 1 {
		t.Errorf("GetEvent = %+v", rec)
	}

	// Same event ID under another user is a distinct event.
	other := *event
	other.UserID = "user_2"
	if _, applied, err = repos.Usage.ConsumeEvent(ctx, &other); err != nil {
		t.Fatalf("ConsumeEvent failed: %v", err)
	} else if !applied {
		t.Error("event IDs are scoped per user")
	}

	// Dedup is scoped to the period: the same ID next month applies again.
	nextMonth := *event
	nextMonth.Period = "2026-09"
	amount, applied, err = repos.Usage.ConsumeEvent(ctx, &nextMonth)
	if err != nil {
		t.Fatalf("ConsumeEvent failed: %v", err)
	}
	if !applied {
		t.Error("event IDs are scoped per period")
	}
	if amount != 1 {
		t.Errorf("new period starts its own counter: amount = %d, want 1", amount)
	}
}

func TestUsageRepository_Reset(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	if _, err := repos.Usage.Increment(ctx, "user_1", usage.ResourceMessages, "2026-08", 42); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := repos.Usage.Reset(ctx, "user_1", usage.ResourceMessages, "2026-08"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	amount, err := repos.Usage.Get(ctx, "user_1", usage.ResourceMessages, "2026-08")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if amount != 0 {
		t.Errorf("amount after reset = %d, want 0", amount)
	}
}

func TestUsageRepository_DeletePeriodsBefore(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	for _, period := range []string{"2025-06", "2025-12", "2026-08"} {
		if _, _, err := repos.Usage.ConsumeEvent(ctx, &UsageEvent{
			UserID: "user_1", EventID: "evt_" + period,
			Resource: usage.ResourceMessages, Period: period, Amount: 1, CreatedAt: time.Now(),
		}); err != nil {
			t.Fatalf("ConsumeEvent failed: %v", err)
		}
	}

	deleted, err := repos.Usage.DeletePeriodsBefore(ctx, "2026-01")
	if err != nil {
		t.Fatalf("DeletePeriodsBefore failed: %v", err)
	}
	// Two counters plus two events.
	if deleted != 4 {
		t.Errorf("deleted = %d, want 4", deleted)
	}

	amount, err := repos.Usage.Get(ctx, "user_1", usage.ResourceMessages, "2026-08")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if amount != 1 {
		t.Errorf("current period counter should survive, got %d", amount)
	}
	amount, err = repos.Usage.Get(ctx, "user_1", usage.ResourceMessages, "2025-12")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if amount != 0 {
		t.Errorf("old period counter should be gone, got %d", amount)
	}
}

func TestUsageRepository_DeletePeriodsBeforeRejectsBadCutoff(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	if _, err := repos.Usage.Increment(ctx, "user_1", usage.ResourceMessages, "2025-06", 1); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	deleted, err := repos.Usage.DeletePeriodsBefore(ctx, "garbage")
	if err != nil {
		t.Fatalf("DeletePeriodsBefore failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("malformed cutoff must delete nothing, got %d", deleted)
	}
}
