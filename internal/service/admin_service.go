package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
	"github.com/jmylchreest/kindred-api/internal/usage"
)

var ErrUserNotFound = errors.New("user not found")

// AdminService handles admin operations: user listing, plan overrides,
// admin flags, and usage resets.
type AdminService struct {
	repos        *repository.Repositories
	entitlements *EntitlementService
	usageSvc     *UsageService
	logger       *slog.Logger
	now          func() time.Time
}

// NewAdminService creates a new admin service.
func NewAdminService(repos *repository.Repositories, entitlements *EntitlementService, usageSvc *UsageService, logger *slog.Logger) *AdminService {
	return &AdminService{
		repos:        repos,
		entitlements: entitlements,
		usageSvc:     usageSvc,
		logger:       logger,
		now:          time.Now,
	}
}

// AdminUserView is a user row with their resolved entitlement attached.
type AdminUserView struct {
	User        *models.User `json:"user"`
	Plan        models.Plan  `json:"plan"`
	IsUnmetered bool         `json:"isUnmetered"`
}

// ListUsers returns a page of users with resolved plans.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]*AdminUserView, int, error) {
	users, err := s.repos.User.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.User.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*AdminUserView, 0, len(users))
	for _, u := range users {
		ent, err := s.entitlements.Resolve(ctx, u.ID)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, &AdminUserView{
			User:        u,
			Plan:        ent.Plan,
			IsUnmetered: ent.IsAdmin,
		})
	}
	return views, total, nil
}

// GetUser returns one user with resolved entitlement and current usage.
func (s *AdminService) GetUser(ctx context.Context, userID string) (*AdminUserView, map[usage.Resource]*ConsumeResult, error) {
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	ent, err := s.entitlements.Resolve(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	statuses, err := s.usageSvc.StatusAll(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return &AdminUserView{User: user, Plan: ent.Plan, IsUnmetered: ent.IsAdmin}, statuses, nil
}

// SetPlanOverride forces a user onto a plan regardless of their Stripe
// state. An empty plan clears the override.
func (s *AdminService) SetPlanOverride(ctx context.Context, userID string, plan models.Plan) error {
	if plan != "" && !plan.Valid() {
		return fmt.Errorf("unknown plan %q", plan)
	}
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.repos.User.SetPlanOverride(ctx, userID, plan); err != nil {
		return err
	}
	s.entitlements.Invalidate(userID)

	s.logger.Info("plan override set", "user_id", userID, "plan", plan)
	return nil
}

// SetAdmin grants or revokes the admin flag. Admins are unmetered.
func (s *AdminService) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.repos.User.SetAdmin(ctx, userID, isAdmin); err != nil {
		return err
	}
	s.entitlements.Invalidate(userID)

	s.logger.Info("admin flag set", "user_id", userID, "is_admin", isAdmin)
	return nil
}

// ResetUsage zeroes a user's counter for one resource in the current
// period. Support tool for billing disputes.
func (s *AdminService) ResetUsage(ctx context.Context, userID string, resource usage.Resource) error {
	if !resource.Valid() {
		return fmt.Errorf("unknown resource %q", resource)
	}
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.usageSvc.Reset(ctx, userID, resource); err != nil {
		return err
	}
	s.logger.Info("usage reset", "user_id", userID, "resource", resource)
	return nil
}
