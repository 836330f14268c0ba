package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
)

var (
	ErrUnknownReferralCode = errors.New("referral code not found")
	ErrSelfReferral        = errors.New("cannot redeem your own referral code")
	ErrAlreadyReferred     = errors.New("account already redeemed a referral code")
)

// Crockford-style alphabet without lookalike characters.
const referralAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ23456789"
const referralCodeLen = 8

// ReferralStats summarizes a user's referral activity.
type ReferralStats struct {
	Code        string                       `json:"code"`
	Redemptions int                          `json:"redemptions"`
	Recent      []*models.ReferralRedemption `json:"recent,omitempty"`
}

// ReferralService manages referral codes and their redemption. An account
// can redeem at most one code, ever; the unique index on referred_id
// enforces that even under concurrent redemption.
type ReferralService struct {
	users     repository.UserRepository
	referrals repository.ReferralRepository
	logger    *slog.Logger
	now       func() time.Time
}

// NewReferralService creates a new referral service.
func NewReferralService(repos *repository.Repositories, logger *slog.Logger) *ReferralService {
	return &ReferralService{
		users:     repos.User,
		referrals: repos.Referral,
		logger:    logger,
		now:       time.Now,
	}
}

// GetOrCreateCode returns the user's referral code, minting one on first
// use. Codes are retried on the rare collision with another user's code.
func (s *ReferralService) GetOrCreateCode(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("user %s not found", userID)
	}
	if user.ReferralCode != "" {
		return user.ReferralCode, nil
	}

	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}
		if taken, err := s.users.GetByReferralCode(ctx, code); err != nil {
			return "", err
		} else if taken != nil {
			continue
		}
		user.ReferralCode = code
		if err := s.users.Update(ctx, user); err != nil {
			return "", err
		}
		return code, nil
	}
	return "", errors.New("failed to generate a unique referral code")
}

// Redeem applies a referral code to the calling user's account.
func (s *ReferralService) Redeem(ctx context.Context, userID, code string) (*models.ReferralRedemption, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrUnknownReferralCode
	}

	referrer, err := s.users.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if referrer == nil {
		return nil, ErrUnknownReferralCode
	}
	if referrer.ID == userID {
		return nil, ErrSelfReferral
	}

	redemption := &models.ReferralRedemption{
		ID:         ulid.Make().String(),
		Code:       code,
		ReferrerID: referrer.ID,
		ReferredID: userID,
		CreatedAt:  s.now().UTC(),
	}
	inserted, err := s.referrals.CreateRedemption(ctx, redemption)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, ErrAlreadyReferred
	}

	s.logger.Info("referral redeemed", "code", code, "referrer_id", referrer.ID, "referred_id", userID)
	return redemption, nil
}

// Stats returns the user's code and how often it has been redeemed.
func (s *ReferralService) Stats(ctx context.Context, userID string) (*ReferralStats, error) {
	code, err := s.GetOrCreateCode(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.referrals.CountByReferrerID(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.referrals.ListByReferrerID(ctx, userID, 10, 0)
	if err != nil {
		return nil, err
	}
	return &ReferralStats{Code: code, Redemptions: count, Recent: recent}, nil
}

func generateReferralCode() (string, error) {
	buf := make([]byte, referralCodeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, referralCodeLen)
	for i, b := range buf {
		out[i] = referralAlphabet[int(b)%len(referralAlphabet)]
	}
	return string(out), nil
}
