package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
)

func newTestEntitlementService(ttl time.Duration) (*EntitlementService, *mockUserRepository, *mockSubscriptionRepository) {
	users := newMockUserRepository()
	subs := newMockSubscriptionRepository()
	svc := NewEntitlementService(&repository.Repositories{User: users, Subscription: subs}, ttl, testLogger())
	return svc, users, subs
}

func activeSub(userID, subID string) *models.Subscription {
	return &models.Subscription{
		ID:                   "sub_row_" + subID,
		UserID:               userID,
		StripeSubscriptionID: subID,
		Plan:                 models.PlanPro,
		Status:               models.SubscriptionActive,
		CurrentPeriodEnd:     time.Now().Add(30 * 24 * time.Hour),
	}
}

func TestResolveDefaultsToFree(t *testing.T) {
	svc, _, _ := newTestEntitlementService(0)

	ent, err := svc.Resolve(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ent.Plan != models.PlanFree {
		t.Errorf("expected free plan, got %s", ent.Plan)
	}
	if ent.IsAdmin {
		t.Error("unknown user should not be admin")
	}
}

func TestResolveActiveSubscriptionGrantsPro(t *testing.T) {
	svc, _, subs := newTestEntitlementService(0)
	ctx := context.Background()

	if err := subs.Upsert(ctx, activeSub("user_1", "sub_1")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	ent, err := svc.Resolve(ctx, "user_1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ent.Plan != models.PlanPro {
		t.Errorf("expected pro plan, got %s", ent.Plan)
	}
}

func TestResolveCanceledSubscriptionIsFree(t *testing.T) {
	svc, _, subs := newTestEntitlementService(0)
	ctx := context.Background()

	sub := activeSub("user_1", "sub_1")
	sub.Status = models.SubscriptionCanceled
	if err := subs.Upsert(ctx, sub); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	ent, err := svc.Resolve(ctx, "user_1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ent.Plan != models.PlanFree {
		t.Errorf("canceled subscription should resolve free, got %s", ent.Plan)
	}
}

func TestResolvePlanOverrideWinsOverSubscription(t *testing.T) {
	svc, users, subs := newTestEntitlementService(0)
	ctx := context.Background()

	if err := users.Create(ctx, &models.User{ID: "user_1", PlanOverride: models.PlanFree}); err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	if err := subs.Upsert(ctx, activeSub("user_1", "sub_1")); err != nil {
		t.Fatalf("seed sub failed: %v", err)
	}

	// Override pins the user to free even with an active pro subscription.
	ent, err := svc.Resolve(ctx, "user_1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ent.Plan != models.PlanFree {
		t.Errorf("override should win, got %s", ent.Plan)
	}
}

func TestResolveCarriesAdminFlag(t *testing.T) {
	svc, users, _ := newTestEntitlementService(0)
	ctx := context.Background()

	if err := users.Create(ctx, &models.User{ID: "user_1", IsAdmin: true}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	ent, err := svc.Resolve(ctx, "user_1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !ent.IsAdmin {
		t.Error("expected admin flag")
	}
}

func TestResolveCachesUntilInvalidated(t *testing.T) {
	svc, _, subs := newTestEntitlementService(time.Minute)
	ctx := context.Background()

	ent, err := svc.Resolve(ctx, "user_1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ent.Plan != models.PlanFree {
		t.Fatalf("expected free, got %s", ent.Plan)
	}

	// A subscription lands; the cached free result still serves.
	if err := subs.Upsert(ctx, activeSub("user_1", "sub_1")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	ent, _ = svc.Resolve(ctx, "user_1")
	if ent.Plan != models.PlanFree {
		t.Errorf("expected cached free before invalidation, got %s", ent.Plan)
	}

	svc.Invalidate("user_1")
	ent, _ = svc.Resolve(ctx, "user_1")
	if ent.Plan != models.PlanPro {
		t.Errorf("expected pro after invalidation, got %s", ent.Plan)
	}
}

func TestAuthorizeRequiresPlan(t *testing.T) {
	svc, users, subs := newTestEntitlementService(0)
	ctx := context.Background()

	if _, err := svc.Authorize(ctx, "free_user", models.PlanPro); !errors.Is(err, ErrNotEntitled) {
		t.Errorf("free user should not pass a pro gate, got %v", err)
	}
	if _, err := svc.Authorize(ctx, "free_user", models.PlanFree); err != nil {
		t.Errorf("free user should pass a free gate: %v", err)
	}

	if err := subs.Upsert(ctx, activeSub("pro_user", "sub_1")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := svc.Authorize(ctx, "pro_user", models.PlanPro); err != nil {
		t.Errorf("pro user should pass a pro gate: %v", err)
	}

	if err := users.Create(ctx, &models.User{ID: "admin_1", IsAdmin: true}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := svc.Authorize(ctx, "admin_1", models.PlanPro); err != nil {
		t.Errorf("admin should pass any gate: %v", err)
	}
}
