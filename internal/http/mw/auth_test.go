package mw

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
	"github.com/jmylchreest/kindred-api/internal/service"
)

type stubResolver struct {
	ent service.Entitlement
}

func (s stubResolver) Resolve(ctx context.Context, userID string) (service.Entitlement, error) {
	return s.ent, nil
}

func withClaims(r *http.Request, claims *UserClaims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserClaimsKey, claims))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAdminRejectsUnauthenticated(t *testing.T) {
	handler := RequireAdmin(stubResolver{})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAdminRejectsNonAdmin(t *testing.T) {
	handler := RequireAdmin(stubResolver{ent: service.Entitlement{Plan: models.PlanPro}})(okHandler())

	rec := httptest.NewRecorder()
	req := withClaims(httptest.NewRequest(http.MethodGet, "/admin/users", nil), &UserClaims{UserID: "user_1"})
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestRequireAdminPassesAdmin(t *testing.T) {
	handler := RequireAdmin(stubResolver{ent: service.Entitlement{IsAdmin: true}})(okHandler())

	rec := httptest.NewRecorder()
	req := withClaims(httptest.NewRequest(http.MethodGet, "/admin/users", nil), &UserClaims{UserID: "admin_1"})
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

// stub repositories for building a real entitlement service

type stubUserRepo struct {
	user *models.User
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error  { return nil }
func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.user, nil
}
func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}
func (s *stubUserRepo) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return nil, nil
}
func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error { return nil }
func (s *stubUserRepo) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	return nil
}
func (s *stubUserRepo) SetPlanOverride(ctx context.Context, id string, plan models.Plan) error {
	return nil
}
func (s *stubUserRepo) SetAdmin(ctx context.Context, id string, isAdmin bool) error { return nil }
func (s *stubUserRepo) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return nil, nil
}
func (s *stubUserRepo) Count(ctx context.Context) (int, error) { return 0, nil }

type stubSubRepo struct {
	sub *models.Subscription
}

func (s *stubSubRepo) Upsert(ctx context.Context, sub *models.Subscription) error { return nil }
func (s *stubSubRepo) GetActiveByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	return s.sub, nil
}
func (s *stubSubRepo) GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*models.Subscription, error) {
	return nil, nil
}
func (s *stubSubRepo) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Subscription, error) {
	return nil, nil
}
func (s *stubSubRepo) UpdateStatus(ctx context.Context, stripeSubID string, status models.SubscriptionStatus) error {
	return nil
}

func newStubEntitlements(user *models.User, sub *models.Subscription) *service.EntitlementService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := &repository.Repositories{
		User:         &stubUserRepo{user: user},
		Subscription: &stubSubRepo{sub: sub},
	}
	return service.NewEntitlementService(repos, 0, logger)
}

func TestRequirePlanRejectsFreeUser(t *testing.T) {
	entitlements := newStubEntitlements(nil, nil)
	handler := RequirePlan(entitlements, models.PlanPro)(okHandler())

	rec := httptest.NewRecorder()
	req := withClaims(httptest.NewRequest(http.MethodGet, "/music/suggestions", nil), &UserClaims{UserID: "user_1"})
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error payload, got %s", ct)
	}
}

func TestRequirePlanPassesProUser(t *testing.T) {
	sub := &models.Subscription{
		UserID: "user_1",
		Plan:   models.PlanPro,
		Status: models.SubscriptionActive,
	}
	entitlements := newStubEntitlements(nil, sub)
	handler := RequirePlan(entitlements, models.PlanPro)(okHandler())

	rec := httptest.NewRecorder()
	req := withClaims(httptest.NewRequest(http.MethodGet, "/music/suggestions", nil), &UserClaims{UserID: "user_1"})
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
