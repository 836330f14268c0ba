package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
)

// mockReferralRepository implements repository.ReferralRepository for testing
type mockReferralRepository struct {
	mu          sync.Mutex
	redemptions []*models.ReferralRedemption
}

func newMockReferralRepository() *mockReferralRepository {
	return &mockReferralRepository{}
}

func (m *mockReferralRepository) CreateRedemption(ctx context.Context, redemption *models.ReferralRedemption) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.redemptions {
		if r.ReferredID == redemption.ReferredID {
			return false, nil
		}
	}
	cp := *redemption
	m.redemptions = append(m.redemptions, &cp)
	return true, nil
}

func (m *mockReferralRepository) GetByReferredID(ctx context.Context, referredID string) (*models.ReferralRedemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.redemptions {
		if r.ReferredID == referredID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockReferralRepository) CountByReferrerID(ctx context.Context, referrerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.redemptions {
		if r.ReferrerID == referrerID {
			n++
		}
	}
	return n, nil
}

func (m *mockReferralRepository) ListByReferrerID(ctx context.Context, referrerID string, limit, offset int) ([]*models.ReferralRedemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ReferralRedemption
	for _, r := range m.redemptions {
		if r.ReferrerID == referrerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func newTestReferralService(t *testing.T) (*ReferralService, *mockUserRepository) {
	t.Helper()
	users := newMockUserRepository()
	referrals := newMockReferralRepository()
	svc := NewReferralService(&repository.Repositories{User: users, Referral: referrals}, testLogger())
	return svc, users
}

func TestGetOrCreateCodeIsStable(t *testing.T) {
	svc, users := newTestReferralService(t)
	ctx := context.Background()

	if err := users.Create(ctx, &models.User{ID: "user_1"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	code, err := svc.GetOrCreateCode(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetOrCreateCode failed: %v", err)
	}
	if len(code) != referralCodeLen {
		t.Errorf("expected %d-char code, got %q", referralCodeLen, code)
	}

	again, err := svc.GetOrCreateCode(ctx, "user_1")
	if err != nil {
		t.Fatalf("second GetOrCreateCode failed: %v", err)
	}
	if again != code {
		t.Errorf("code changed between calls: %q vs %q", code, again)
	}
}

func TestRedeemReferralCode(t *testing.T) {
	svc, users := newTestReferralService(t)
	ctx := context.Background()

	if err := users.Create(ctx, &models.User{ID: "referrer"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := users.Create(ctx, &models.User{ID: "friend"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	code, err := svc.GetOrCreateCode(ctx, "referrer")
	if err != nil {
		t.Fatalf("GetOrCreateCode failed: %v", err)
	}

	redemption, err := svc.Redeem(ctx, "friend", code)
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if redemption.ReferrerID != "referrer" {
		t.Errorf("wrong referrer: %s", redemption.ReferrerID)
	}

	stats, err := svc.Stats(ctx, "referrer")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Redemptions != 1 {
		t.Errorf("expected 1 redemption, got %d", stats.Redemptions)
	}
}

func TestRedeemRejectsSelfAndRepeats(t *testing.T) {
	svc, users := newTestReferralService(t)
	ctx := context.Background()

	if err := users.Create(ctx, &models.User{ID: "referrer"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := users.Create(ctx, &models.User{ID: "friend"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	code, _ := svc.GetOrCreateCode(ctx, "referrer")

	if _, err := svc.Redeem(ctx, "referrer", code); !errors.Is(err, ErrSelfReferral) {
		t.Errorf("expected ErrSelfReferral, got %v", err)
	}
	if _, err := svc.Redeem(ctx, "friend", "NOPE1234"); !errors.Is(err, ErrUnknownReferralCode) {
		t.Errorf("expected ErrUnknownReferralCode, got %v", err)
	}

	if _, err := svc.Redeem(ctx, "friend", code); err != nil {
		t.Fatalf("first redemption failed: %v", err)
	}
	if _, err := svc.Redeem(ctx, "friend", code); !errors.Is(err, ErrAlreadyReferred) {
		t.Errorf("expected ErrAlreadyReferred on repeat, got %v", err)
	}
}
