package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/service"
)

// ReferralHandler handles referral endpoints.
type ReferralHandler struct {
	referralSvc *service.ReferralService
}

// NewReferralHandler creates a new referral handler.
func NewReferralHandler(referralSvc *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralSvc: referralSvc}
}

// GetReferralsOutput represents the user's referral stats.
type GetReferralsOutput struct {
	Body struct {
		Code        string                       `json:"code"`
		Redemptions int                          `json:"redemptions"`
		Recent      []*models.ReferralRedemption `json:"recent,omitempty"`
	}
}

// GetReferrals returns the user's referral code and redemption stats,
// minting a code on first use.
func (h *ReferralHandler) GetReferrals(ctx context.Context, input *struct{}) (*GetReferralsOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	stats, err := h.referralSvc.Stats(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get referral stats")
	}

	out := &GetReferralsOutput{}
	out.Body.Code = stats.Code
	out.Body.Redemptions = stats.Redemptions
	out.Body.Recent = stats.Recent
	return out, nil
}

// RedeemReferralInput represents a referral redemption request.
type RedeemReferralInput struct {
	Body struct {
		Code string `json:"code" minLength:"1" maxLength:"16" doc:"Referral code to redeem"`
	}
}

// RedeemReferralOutput represents the redemption result.
type RedeemReferralOutput struct {
	Body struct {
		Success    bool   `json:"success"`
		ReferrerID string `json:"referrerId"`
	}
}

// RedeemReferral applies a referral code to the calling user's account.
// An account can redeem at most one code, ever.
func (h *ReferralHandler) RedeemReferral(ctx context.Context, input *RedeemReferralInput) (*RedeemReferralOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	redemption, err := h.referralSvc.Redeem(ctx, userID, input.Body.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownReferralCode):
			return nil, huma.Error404NotFound("referral code not found")
		case errors.Is(err, service.ErrSelfReferral):
			return nil, huma.Error422UnprocessableEntity("cannot redeem your own referral code")
		case errors.Is(err, service.ErrAlreadyReferred):
			return nil, huma.Error409Conflict("account already redeemed a referral code")
		default:
			return nil, huma.Error500InternalServerError("failed to redeem referral code")
		}
	}

	out := &RedeemReferralOutput{}
	out.Body.Success = true
	out.Body.ReferrerID = redemption.ReferrerID
	return out, nil
}
