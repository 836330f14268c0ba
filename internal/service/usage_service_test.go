package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmylchreest/kindred-api/internal/config"
	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
	"github.com/jmylchreest/kindred-api/internal/usage"
)

func testLimits() config.PlanLimits {
	return config.PlanLimits{
		models.PlanFree: {
			MessagesPerMonth:      120,
			VoiceMinutesPerMonth:  500,
			VoiceSessionsPerMonth: 50,
			MaxSessionSeconds:     600,
		},
		models.PlanPro: {},
	}
}

func newTestUsageService(ent Entitlement) (*UsageService, *mockUsageRepository) {
	repo := newMockUsageRepository()
	svc := NewUsageService(
		&repository.Repositories{Usage: repo},
		staticResolver{ent: ent},
		testLimits(),
		testLogger(),
	)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

func TestConsumeIncrementsCounter(t *testing.T) {
	svc, _ := newTestUsageService(Entitlement{Plan: models.PlanFree})

	result, err := svc.Consume(context.Background(), "user_1", usage.ResourceMessages, 1, "")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if result.Decision.Amount != 1 {
		t.Errorf("expected amount 1, got %d", result.Decision.Amount)
	}
	if result.Period != "2026-03" {
		t.Errorf("expected period 2026-03, got %s", result.Period)
	}
	if result.Decision.Remaining != 119 {
		t.Errorf("expected 119 remaining, got %d", result.Decision.Remaining)
	}
}

func TestConsumeDeniedAtLimit(t *testing.T) {
	svc, repo := newTestUsageService(Entitlement{Plan: models.PlanFree})
	ctx := context.Background()

	if _, err := repo.Increment(ctx, "user_1", usage.ResourceMessages, "2026-03", 120); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err := svc.Consume(ctx, "user_1", usage.ResourceMessages, 1, "")
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}
	if limitErr.Decision.Amount != 120 {
		t.Errorf("denied decision should report current amount 120, got %d", limitErr.Decision.Amount)
	}
	if !limitErr.Decision.LimitReached {
		t.Error("expected LimitReached on denial")
	}

	// Counter must be untouched after a denial.
	amount, _ := repo.Get(ctx, "user_1", usage.ResourceMessages, "2026-03")
	if amount != 120 {
		t.Errorf("counter changed on denial: %d", amount)
	}
}

func TestConsumeDeniedWhenDeltaWouldOverflow(t *testing.T) {
	svc, repo := newTestUsageService(Entitlement{Plan: models.PlanFree})
	ctx := context.Background()

	if _, err := repo.Increment(ctx, "user_1", usage.ResourceMessages, "2026-03", 118); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// 118 + 5 > 120: denied even though some headroom remains.
	_, err := svc.Consume(ctx, "user_1", usage.ResourceMessages, 5, "")
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}

	amount, _ := repo.Get(ctx, "user_1", usage.ResourceMessages, "2026-03")
	if amount != 118 {
		t.Errorf("counter changed on denial: %d", amount)
	}
}

func TestConsumeEventIDIsIdempotent(t *testing.T) {
	svc, repo := newTestUsageService(Entitlement{Plan: models.PlanFree})
	ctx := context.Background()

	first, err := svc.Consume(ctx, "user_1", usage.ResourceMessages, 1, "evt_1")
	if err != nil {
		t.Fatalf("first Consume failed: %v", err)
	}
	if first.AlreadyApplied {
		t.Error("first consume should not report AlreadyApplied")
	}

	second, err := svc.Consume(ctx, "user_1", usage.ResourceMessages, 1, "evt_1")
	if err != nil {
		t.Fatalf("replayed Consume failed: %v", err)
	}
	if !second.AlreadyApplied {
		t.Error("replay should report AlreadyApplied")
	}
	if second.Decision.Amount != 1 {
		t.Errorf("replay must not re-increment: got %d", second.Decision.Amount)
	}

	amount, _ := repo.Get(ctx, "user_1", usage.ResourceMessages, "2026-03")
	if amount != 1 {
		t.Errorf("expected counter 1 after replay, got %d", amount)
	}
}

func TestConsumeRetryAfterStoreFailureAppliesDelta(t *testing.T) {
	svc, repo := newTestUsageService(Entitlement{Plan: models.PlanFree})
	ctx := context.Background()

	repo.consumeEventErr = errors.New("disk I/O error")
	if _, err := svc.Consume(ctx, "user_1", usage.ResourceMessages, 1, "evt_1"); err == nil {
		t.Fatal("expected first Consume to fail")
	}

	// The failed attempt left no idempotency marker, so the retry must
	// actually charge rather than replay an increment that never landed.
	result, err := svc.Consume(ctx, "user_1", usage.ResourceMessages, 1, "evt_1")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if result.AlreadyApplied {
		t.Error("retry after a failed write must apply, not replay")
	}
	if result.Decision.Amount != 1 {
		t.Errorf("retry amount = %d, want 1", result.Decision.Amount)
	}

	amount, _ := repo.Get(ctx, "user_1", usage.ResourceMessages, "2026-03")
	if amount != 1 {
		t.Errorf("counter = %d, want 1 after successful retry", amount)
	}
}

func TestConsumeProIsUnlimited(t *testing.T) {
	svc, _ := newTestUsageService(Entitlement{Plan: models.PlanPro})
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		if _, err := svc.Consume(ctx, "user_1", usage.ResourceMessages, 1, ""); err != nil {
			t.Fatalf("pro consume %d denied: %v", i, err)
		}
	}
}

func TestConsumeAdminIsUnmetered(t *testing.T) {
	svc, repo := newTestUsageService(Entitlement{Plan: models.PlanFree, IsAdmin: true})
	ctx := context.Background()

	if _, err := repo.Increment(ctx, "admin_1", usage.ResourceMessages, "2026-03", 10000); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := svc.Consume(ctx, "admin_1", usage.ResourceMessages, 1, ""); err != nil {
		t.Fatalf("admin consume denied: %v", err)
	}
}

func TestConsumeRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestUsageService(Entitlement{Plan: models.PlanFree})
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "user_1", "bogus", 1, ""); err == nil {
		t.Error("expected error for unknown resource")
	}
	if _, err := svc.Consume(ctx, "user_1", usage.ResourceMessages, 0, ""); err == nil {
		t.Error("expected error for zero delta")
	}
	if _, err := svc.Consume(ctx, "user_1", usage.ResourceMessages, -3, ""); err == nil {
		t.Error("expected error for negative delta")
	}
}

func TestStatusVoiceMinutesUsesTenths(t *testing.T) {
	svc, repo := newTestUsageService(Entitlement{Plan: models.PlanFree})
	ctx := context.Background()

	// 123.4 minutes = 1234 tenths
	if _, err := repo.Increment(ctx, "user_1", usage.ResourceVoiceMinutes, "2026-03", 1234); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	status, err := svc.Status(ctx, "user_1", usage.ResourceVoiceMinutes)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if got := status.Decision.Amount.Value(usage.ResourceVoiceMinutes); got != 123.4 {
		t.Errorf("expected 123.4 minutes, got %v", got)
	}
	if status.Decision.Percentage != 24.7 {
		t.Errorf("expected 24.7%%, got %v", status.Decision.Percentage)
	}
}

func TestStatusAllCoversEveryResource(t *testing.T) {
	svc, _ := newTestUsageService(Entitlement{Plan: models.PlanFree})

	all, err := svc.StatusAll(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("StatusAll failed: %v", err)
	}
	for _, r := range []usage.Resource{usage.ResourceMessages, usage.ResourceVoiceMinutes, usage.ResourceVoiceSessions} {
		status, ok := all[r]
		if !ok {
			t.Fatalf("missing status for %s", r)
		}
		if status.Decision.Amount != 0 {
			t.Errorf("fresh user should have zero %s usage", r)
		}
	}
}

func TestResetZeroesCounter(t *testing.T) {
	svc, repo := newTestUsageService(Entitlement{Plan: models.PlanFree})
	ctx := context.Background()

	if _, err := repo.Increment(ctx, "user_1", usage.ResourceMessages, "2026-03", 50); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := svc.Reset(ctx, "user_1", usage.ResourceMessages); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	amount, _ := repo.Get(ctx, "user_1", usage.ResourceMessages, "2026-03")
	if amount != 0 {
		t.Errorf("expected 0 after reset, got %d", amount)
	}
}
