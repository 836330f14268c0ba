package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
)

// ErrNotEntitled is returned when an operation requires a higher plan than
// the user holds.
var ErrNotEntitled = errors.New("plan does not include this feature")

// Entitlement is a user's resolved access level.
type Entitlement struct {
	Plan    models.Plan
	IsAdmin bool
}

// EntitlementService resolves a user's effective plan. Resolution order:
//  1. users.plan_override (support-granted access)
//  2. an active or trialing Stripe subscription
//  3. free
//
// Results are cached briefly; billing webhooks and admin changes call
// Invalidate so plan changes take effect promptly.
type EntitlementService struct {
	users  repository.UserRepository
	subs   repository.SubscriptionRepository
	ttl    time.Duration
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]cachedEntitlement

	now func() time.Time
}

type cachedEntitlement struct {
	ent       Entitlement
	expiresAt time.Time
}

// NewEntitlementService creates a new entitlement service.
func NewEntitlementService(repos *repository.Repositories, ttl time.Duration, logger *slog.Logger) *EntitlementService {
	return &EntitlementService{
		users:  repos.User,
		subs:   repos.Subscription,
		ttl:    ttl,
		logger: logger,
		cache:  make(map[string]cachedEntitlement),
		now:    time.Now,
	}
}

// Resolve returns the user's effective entitlement.
func (s *EntitlementService) Resolve(ctx context.Context, userID string) (Entitlement, error) {
	s.mu.RLock()
	if c, ok := s.cache[userID]; ok && s.now().Before(c.expiresAt) {
		s.mu.RUnlock()
		return c.ent, nil
	}
	s.mu.RUnlock()

	ent, err := s.resolve(ctx, userID)
	if err != nil {
		return Entitlement{}, err
	}

	if s.ttl > 0 {
		s.mu.Lock()
		s.cache[userID] = cachedEntitlement{ent: ent, expiresAt: s.now().Add(s.ttl)}
		s.mu.Unlock()
	}
	return ent, nil
}

func (s *EntitlementService) resolve(ctx context.Context, userID string) (Entitlement, error) {
	ent := Entitlement{Plan: models.PlanFree}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Entitlement{}, err
	}
	if user != nil {
		ent.IsAdmin = user.IsAdmin
		if user.PlanOverride.Valid() {
			ent.Plan = user.PlanOverride
			return ent, nil
		}
	}

	sub, err := s.subs.GetActiveByUserID(ctx, userID)
	if err != nil {
		return Entitlement{}, err
	}
	if sub != nil && sub.Status.Entitled() {
		ent.Plan = sub.Plan
	}
	return ent, nil
}

// Authorize checks the user holds at least the required plan. Admins
// always pass.
func (s *EntitlementService) Authorize(ctx context.Context, userID string, required models.Plan) (Entitlement, error) {
	ent, err := s.Resolve(ctx, userID)
	if err != nil {
		return Entitlement{}, err
	}
	if ent.IsAdmin {
		return ent, nil
	}
	if planRank(ent.Plan) < planRank(required) {
		return ent, ErrNotEntitled
	}
	return ent, nil
}

func planRank(p models.Plan) int {
	if p == models.PlanPro {
		return 1
	}
	return 0
}

// Invalidate drops the cached entitlement for a user.
func (s *EntitlementService) Invalidate(userID string) {
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()
	s.logger.Debug("entitlement cache invalidated", "user_id", userID)
}
