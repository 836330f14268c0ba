package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
)

// UserService mirrors Clerk accounts into the local users table and
// manages the profile fields Kindred owns (companion name).
type UserService struct {
	users        repository.UserRepository
	entitlements *EntitlementService
	logger       *slog.Logger
	now          func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(repos *repository.Repositories, entitlements *EntitlementService, logger *slog.Logger) *UserService {
	return &UserService{
		users:        repos.User,
		entitlements: entitlements,
		logger:       logger,
		now:          time.Now,
	}
}

// SyncFromClerk creates or updates the local row for a Clerk account.
// Called from user.created and user.updated webhook events; idempotent.
func (s *UserService) SyncFromClerk(ctx context.Context, clerkUserID, email, displayName string) (*models.User, error) {
	now := s.now().UTC()

	existing, err := s.users.GetByID(ctx, clerkUserID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		user := &models.User{
			ID:          clerkUserID,
			Email:       email,
			DisplayName: displayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("user created from clerk", "user_id", clerkUserID)
		return user, nil
	}

	existing.Email = email
	existing.DisplayName = displayName
	existing.UpdatedAt = now
	if err := s.users.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete soft-deletes the local row when the Clerk account is removed.
func (s *UserService) Delete(ctx context.Context, clerkUserID string) error {
	user, err := s.users.GetByID(ctx, clerkUserID)
	if err != nil {
		return err
	}
	if user == nil {
		return nil // Already gone, webhook replay
	}
	if err := s.users.SoftDelete(ctx, clerkUserID, s.now().UTC()); err != nil {
		return err
	}
	s.entitlements.Invalidate(clerkUserID)
	s.logger.Info("user soft-deleted from clerk", "user_id", clerkUserID)
	return nil
}

// Get returns the local user row, or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// SetCompanionName updates the user's companion persona name.
func (s *UserService) SetCompanionName(ctx context.Context, userID, name string) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.CompanionName = name
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
