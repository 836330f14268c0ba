package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/service"
	"github.com/jmylchreest/kindred-api/internal/usage"
)

// AdminHandler handles admin endpoints. Routes using it must sit behind
// the admin middleware.
type AdminHandler struct {
	adminSvc *service.AdminService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(adminSvc *service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// ListUsersInput represents an admin user listing request.
type ListUsersInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Page size"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// ListUsersOutput represents the user listing response.
type ListUsersOutput struct {
	Body struct {
		Users []*service.AdminUserView `json:"users"`
		Total int                      `json:"total"`
	}
}

// ListUsers returns a page of users with resolved plans.
func (h *AdminHandler) ListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	users, total, err := h.adminSvc.ListUsers(ctx, input.Limit, input.Offset)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list users")
	}

	out := &ListUsersOutput{}
	out.Body.Users = users
	out.Body.Total = total
	return out, nil
}

// AdminUsageView is one resource counter in an admin user detail.
type AdminUsageView struct {
	Used         float64 `json:"used"`
	Max          float64 `json:"max"`
	Remaining    float64 `json:"remaining"`
	Percentage   float64 `json:"percentage"`
	LimitReached bool    `json:"limitReached"`
}

// GetAdminUserInput represents an admin user detail request.
type GetAdminUserInput struct {
	ID string `path:"id" doc:"User ID"`
}

// GetAdminUserOutput represents the user detail response.
type GetAdminUserOutput struct {
	Body struct {
		User        *models.User              `json:"user"`
		Plan        string                    `json:"plan"`
		IsUnmetered bool                      `json:"isUnmetered"`
		Usage       map[string]AdminUsageView `json:"usage"`
	}
}

// GetUser returns one user with resolved entitlement and current usage.
func (h *AdminHandler) GetUser(ctx context.Context, input *GetAdminUserInput) (*GetAdminUserOutput, error) {
	view, statuses, err := h.adminSvc.GetUser(ctx, input.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, huma.Error404NotFound("user not found")
		}
		return nil, huma.Error500InternalServerError("failed to get user")
	}

	out := &GetAdminUserOutput{}
	out.Body.User = view.User
	out.Body.Plan = string(view.Plan)
	out.Body.IsUnmetered = view.IsUnmetered
	out.Body.Usage = make(map[string]AdminUsageView, len(statuses))
	for resource, status := range statuses {
		out.Body.Usage[string(resource)] = AdminUsageView{
			Used:         status.Decision.Amount.Value(resource),
			Max:          status.Decision.Max.Value(resource),
			Remaining:    status.Decision.Remaining.Value(resource),
			Percentage:   status.Decision.Percentage,
			LimitReached: status.Decision.LimitReached,
		}
	}
	return out, nil
}

// SetPlanOverrideInput represents a plan override request.
type SetPlanOverrideInput struct {
	ID   string `path:"id" doc:"User ID"`
	Body struct {
		Plan string `json:"plan" doc:"Forced plan (free or pro); empty clears the override"`
	}
}

// SetPlanOverrideOutput represents the override response.
type SetPlanOverrideOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// SetPlanOverride forces a user onto a plan regardless of their Stripe
// state.
func (h *AdminHandler) SetPlanOverride(ctx context.Context, input *SetPlanOverrideInput) (*SetPlanOverrideOutput, error) {
	if err := h.adminSvc.SetPlanOverride(ctx, input.ID, models.Plan(input.Body.Plan)); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, huma.Error404NotFound("user not found")
		}
		return nil, huma.Error500InternalServerError("failed to set plan override")
	}

	out := &SetPlanOverrideOutput{}
	out.Body.Success = true
	return out, nil
}

// SetAdminInput represents an admin flag change request.
type SetAdminInput struct {
	ID   string `path:"id" doc:"User ID"`
	Body struct {
		IsAdmin bool `json:"isAdmin"`
	}
}

// SetAdminOutput represents the admin flag response.
type SetAdminOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// SetAdmin grants or revokes the admin flag. Admins are unmetered.
func (h *AdminHandler) SetAdmin(ctx context.Context, input *SetAdminInput) (*SetAdminOutput, error) {
	if err := h.adminSvc.SetAdmin(ctx, input.ID, input.Body.IsAdmin); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, huma.Error404NotFound("user not found")
		}
		return nil, huma.Error500InternalServerError("failed to set admin flag")
	}

	out := &SetAdminOutput{}
	out.Body.Success = true
	return out, nil
}

// ResetUsageInput represents a usage reset request.
type ResetUsageInput struct {
	ID   string `path:"id" doc:"User ID"`
	Body struct {
		Resource string `json:"resource" enum:"messages,voice_minutes,voice_sessions" doc:"Counter to zero"`
	}
}

// ResetUsageOutput represents the reset response.
type ResetUsageOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// ResetUsage zeroes a user's counter for the current period. Support tool
// for billing disputes.
func (h *AdminHandler) ResetUsage(ctx context.Context, input *ResetUsageInput) (*ResetUsageOutput, error) {
	resource := usage.Resource(input.Body.Resource)
	if !resource.Valid() {
		return nil, huma.Error422UnprocessableEntity("unknown resource")
	}

	if err := h.adminSvc.ResetUsage(ctx, input.ID, resource); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, huma.Error404NotFound("user not found")
		}
		return nil, huma.Error500InternalServerError("failed to reset usage")
	}

	out := &ResetUsageOutput{}
	out.Body.Success = true
	return out, nil
}
