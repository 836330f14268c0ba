// Package service contains the business logic layer.
// Note: identity (OAuth, sessions) is handled by Clerk; UserIDs reference
// Clerk user IDs (e.g. "user_xxx"). Subscription state lives in Stripe and
// is mirrored locally by webhook.
package service

import (
	"fmt"
	"log/slog"

	"github.com/jmylchreest/kindred-api/internal/config"
	"github.com/jmylchreest/kindred-api/internal/crypto"
	"github.com/jmylchreest/kindred-api/internal/repository"
)

// Services holds all service instances.
type Services struct {
	User        *UserService
	Entitlement *EntitlementService
	Usage       *UsageService
	Streak      *StreakService
	Chat        *ChatService
	Journal     *JournalService
	Voice       *VoiceService
	Billing     *BillingService
	Referral    *ReferralService
	Music       *MusicService
	Admin       *AdminService
	Retention   *RetentionService
	Storage     *StorageService
	LLM         *LLMClient
	Speech      *SpeechClient
}

// NewServices creates all service instances.
func NewServices(cfg *config.Config, repos *repository.Repositories, logger *slog.Logger) (*Services, error) {
	// Encryptor first - journal bodies never reach the database in plaintext
	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	storageSvc, err := NewStorageService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	llmClient := NewLLMClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, logger)
	speechClient := NewSpeechClient(cfg.SpeechAPIKey, cfg.SpeechBaseURL, logger)

	entitlementSvc := NewEntitlementService(repos, cfg.EntitlementCacheTTL, logger)
	usageSvc := NewUsageService(repos, entitlementSvc, cfg.Limits, logger)
	streakSvc := NewStreakService(repos, logger)
	chatSvc := NewChatService(repos, usageSvc, streakSvc, llmClient, logger)
	journalSvc := NewJournalService(repos, streakSvc, encryptor, llmClient, logger)
	voiceSvc := NewVoiceService(repos, usageSvc, speechClient, storageSvc, logger)
	billingSvc := NewBillingService(repos, entitlementSvc, cfg, logger)
	referralSvc := NewReferralService(repos, logger)
	musicSvc := NewMusicService(cfg.SpotifyClientID, cfg.SpotifyClientSecret, logger)
	adminSvc := NewAdminService(repos, entitlementSvc, usageSvc, logger)
	retentionSvc := NewRetentionService(repos, cfg.RetentionPeriods, logger)
	userSvc := NewUserService(repos, entitlementSvc, logger)

	if !billingSvc.Enabled() {
		logger.Warn("stripe not configured - checkout and portal disabled, all users on free plan")
	}
	if !speechClient.Enabled() {
		logger.Warn("speech service not configured - voice transcription/synthesis disabled")
	}
	if !musicSvc.Enabled() {
		logger.Info("spotify not configured - music suggestions disabled")
	}

	return &Services{
		User:        userSvc,
		Entitlement: entitlementSvc,
		Usage:       usageSvc,
		Streak:      streakSvc,
		Chat:        chatSvc,
		Journal:     journalSvc,
		Voice:       voiceSvc,
		Billing:     billingSvc,
		Referral:    referralSvc,
		Music:       musicSvc,
		Admin:       adminSvc,
		Retention:   retentionSvc,
		Storage:     storageSvc,
		LLM:         llmClient,
		Speech:      speechClient,
	}, nil
}
