package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/kindred-api/internal/config"
	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
	"github.com/jmylchreest/kindred-api/internal/usage"
)

// LimitError is returned when an increment would exceed the user's plan
// cap. It carries the full counter state so handlers can render an
// actionable response.
type LimitError struct {
	Resource usage.Resource
	Plan     models.Plan
	Decision usage.Decision
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s limit reached for plan %s (%d/%d)", e.Resource, e.Plan, e.Decision.Amount, e.Decision.Max)
}

// ConsumeResult describes an applied (or replayed) increment.
type ConsumeResult struct {
	Resource       usage.Resource
	Plan           models.Plan
	Period         string
	Decision       usage.Decision
	AlreadyApplied bool // Replayed event ID, counter untouched
}

// planResolver is the slice of EntitlementService the usage service needs.
type planResolver interface {
	Resolve(ctx context.Context, userID string) (Entitlement, error)
}

// UsageService meters resource consumption against monthly plan caps.
// All period math happens in UTC through the usage package.
type UsageService struct {
	repo        repository.UsageRepository
	entitlement planResolver
	limits      config.PlanLimits
	logger      *slog.Logger
	now         func() time.Time
}

// NewUsageService creates a new usage service.
func NewUsageService(repos *repository.Repositories, entitlement planResolver, limits config.PlanLimits, logger *slog.Logger) *UsageService {
	return &UsageService{
		repo:        repos.Usage,
		entitlement: entitlement,
		limits:      limits,
		logger:      logger,
		now:         time.Now,
	}
}

// Consume applies delta units of a resource for the current period.
// eventID, when non-empty, makes the call idempotent: a replayed ID
// returns the current state without touching the counter. Returns a
// *LimitError when the plan cap would be exceeded.
func (s *UsageService) Consume(ctx context.Context, userID string, resource usage.Resource, delta usage.Units, eventID string) (*ConsumeResult, error) {
	if !resource.Valid() {
		return nil, fmt.Errorf("unknown resource %q", resource)
	}

	ent, err := s.entitlement.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entitlement: %w", err)
	}

	period := usage.PeriodKey(s.now())
	max := s.maxFor(ent, resource)

	if eventID != "" {
		event, err := s.repo.GetEvent(ctx, userID, eventID, period)
		if err != nil {
			return nil, err
		}
		if event != nil {
			return s.replay(ctx, userID, resource, ent.Plan, period, max)
		}
	}

	current, err := s.repo.Get(ctx, userID, resource, period)
	if err != nil {
		return nil, err
	}

	decision, err := usage.Evaluate(current, delta, max)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &LimitError{Resource: resource, Plan: ent.Plan, Decision: decision}
	}

	var amount usage.Units
	if eventID != "" {
		// Dedup marker and counter move together in one transaction, so a
		// store failure here leaves no marker and a retry can apply cleanly.
		var applied bool
		amount, applied, err = s.repo.ConsumeEvent(ctx, &repository.UsageEvent{
			UserID:    userID,
			EventID:   eventID,
			Resource:  resource,
			Period:    period,
			Amount:    delta,
			CreatedAt: s.now(),
		})
		if err != nil {
			return nil, err
		}
		// Lost the race with a concurrent retry carrying the same ID.
		if !applied {
			return &ConsumeResult{
				Resource:       resource,
				Plan:           ent.Plan,
				Period:         period,
				Decision:       usage.Status(amount, max),
				AlreadyApplied: true,
			}, nil
		}
	} else {
		amount, err = s.repo.Increment(ctx, userID, resource, period, delta)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Debug("usage consumed",
		"user_id", userID,
		"resource", string(resource),
		"period", period,
		"delta", int64(delta),
		"amount", int64(amount),
	)

	return &ConsumeResult{
		Resource: resource,
		Plan:     ent.Plan,
		Period:   period,
		Decision: usage.Status(amount, max),
	}, nil
}

func (s *UsageService) replay(ctx context.Context, userID string, resource usage.Resource, plan models.Plan, period string, max usage.Units) (*ConsumeResult, error) {
	amount, err := s.repo.Get(ctx, userID, resource, period)
	if err != nil {
		return nil, err
	}
	return &ConsumeResult{
		Resource:       resource,
		Plan:           plan,
		Period:         period,
		Decision:       usage.Status(amount, max),
		AlreadyApplied: true,
	}, nil
}

// Status returns the counter state for a resource in the current period
// without consuming anything.
func (s *UsageService) Status(ctx context.Context, userID string, resource usage.Resource) (*ConsumeResult, error) {
	if !resource.Valid() {
		return nil, fmt.Errorf("unknown resource %q", resource)
	}

	ent, err := s.entitlement.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entitlement: %w", err)
	}

	period := usage.PeriodKey(s.now())
	amount, err := s.repo.Get(ctx, userID, resource, period)
	if err != nil {
		return nil, err
	}

	return &ConsumeResult{
		Resource: resource,
		Plan:     ent.Plan,
		Period:   period,
		Decision: usage.Status(amount, s.maxFor(ent, resource)),
	}, nil
}

// StatusAll returns counter state for every metered resource.
func (s *UsageService) StatusAll(ctx context.Context, userID string) (map[usage.Resource]*ConsumeResult, error) {
	ent, err := s.entitlement.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entitlement: %w", err)
	}

	period := usage.PeriodKey(s.now())
	counters, err := s.repo.GetAll(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	out := make(map[usage.Resource]*ConsumeResult)
	for _, resource := range []usage.Resource{usage.ResourceMessages, usage.ResourceVoiceMinutes, usage.ResourceVoiceSessions} {
		out[resource] = &ConsumeResult{
			Resource: resource,
			Plan:     ent.Plan,
			Period:   period,
			Decision: usage.Status(counters[resource], s.maxFor(ent, resource)),
		}
	}
	return out, nil
}

// Reset zeroes a counter for the current period. Admin use only.
func (s *UsageService) Reset(ctx context.Context, userID string, resource usage.Resource) error {
	if !resource.Valid() {
		return fmt.Errorf("unknown resource %q", resource)
	}
	period := usage.PeriodKey(s.now())
	s.logger.Info("usage counter reset", "user_id", userID, "resource", string(resource), "period", period)
	return s.repo.Reset(ctx, userID, resource, period)
}

// maxFor returns the cap in counter units. Admins are never metered.
func (s *UsageService) maxFor(ent Entitlement, resource usage.Resource) usage.Units {
	if ent.IsAdmin {
		return 0
	}
	return s.limits.For(ent.Plan).MaxUnits(resource)
}

// MaxSessionSeconds returns the single-session duration cap for a user,
// 0 when uncapped.
func (s *UsageService) MaxSessionSeconds(ctx context.Context, userID string) (int, error) {
	ent, err := s.entitlement.Resolve(ctx, userID)
	if err != nil {
		return 0, err
	}
	if ent.IsAdmin {
		return 0, nil
	}
	return s.limits.For(ent.Plan).MaxSessionSeconds, nil
}
