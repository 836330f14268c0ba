package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/service"
)

// UserHandler handles the current user's profile endpoints.
type UserHandler struct {
	userSvc        *service.UserService
	entitlementSvc *service.EntitlementService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userSvc *service.UserService, entitlementSvc *service.EntitlementService) *UserHandler {
	return &UserHandler{userSvc: userSvc, entitlementSvc: entitlementSvc}
}

// GetMeOutput represents the current user's profile with their resolved
// plan.
type GetMeOutput struct {
	Body struct {
		User    *models.User `json:"user"`
		Plan    string       `json:"plan"`
		IsAdmin bool         `json:"isAdmin"`
	}
}

// GetMe returns the calling user's profile and effective plan.
func (h *UserHandler) GetMe(ctx context.Context, input *struct{}) (*GetMeOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	user, err := h.userSvc.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, huma.Error404NotFound("user not found")
		}
		return nil, huma.Error500InternalServerError("failed to get profile")
	}

	ent, err := h.entitlementSvc.Resolve(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to resolve plan")
	}

	out := &GetMeOutput{}
	out.Body.User = user
	out.Body.Plan = string(ent.Plan)
	out.Body.IsAdmin = ent.IsAdmin
	return out, nil
}

// SetCompanionNameInput represents a companion rename request.
type SetCompanionNameInput struct {
	Body struct {
		CompanionName string `json:"companionName" minLength:"1" maxLength:"60" doc:"The companion's display name"`
	}
}

// SetCompanionNameOutput represents the rename response.
type SetCompanionNameOutput struct {
	Body struct {
		User *models.User `json:"user"`
	}
}

// SetCompanionName updates the user's companion persona name.
func (h *UserHandler) SetCompanionName(ctx context.Context, input *SetCompanionNameInput) (*SetCompanionNameOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	user, err := h.userSvc.SetCompanionName(ctx, userID, input.Body.CompanionName)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, huma.Error404NotFound("user not found")
		}
		return nil, huma.Error500InternalServerError("failed to update companion name")
	}

	out := &SetCompanionNameOutput{}
	out.Body.User = user
	return out, nil
}
