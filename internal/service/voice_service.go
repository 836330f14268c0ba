package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
	"github.com/jmylchreest/kindred-api/internal/usage"
)

var (
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrSessionTooLong  = errors.New("session exceeds maximum duration")
)

// SessionGrant is permission to run one voice session.
type SessionGrant struct {
	SessionID         string
	MaxSessionSeconds int // 0 = uncapped
	Usage             *ConsumeResult
}

// SessionResult is the outcome of completing a voice session.
type SessionResult struct {
	Session *models.VoiceSession
	Minutes *ConsumeResult
}

// VoiceService meters voice usage and records sessions. Sessions are
// counted when started; minutes are counted when the session completes
// with its actual duration.
type VoiceService struct {
	sessions repository.VoiceSessionRepository
	usage    *UsageService
	speech   *SpeechClient
	storage  *StorageService
	logger   *slog.Logger
	now      func() time.Time
}

// NewVoiceService creates a new voice service.
func NewVoiceService(repos *repository.Repositories, usageSvc *UsageService, speech *SpeechClient, storage *StorageService, logger *slog.Logger) *VoiceService {
	return &VoiceService{
		sessions: repos.VoiceSession,
		usage:    usageSvc,
		speech:   speech,
		storage:  storage,
		logger:   logger,
		now:      time.Now,
	}
}

// StartSession consumes one session from the monthly cap and issues a
// grant. eventID makes client retries reuse the same grant slot.
func (s *VoiceService) StartSession(ctx context.Context, userID, eventID string) (*SessionGrant, error) {
	result, err := s.usage.Consume(ctx, userID, usage.ResourceVoiceSessions, 1, eventID)
	if err != nil {
		return nil, err
	}

	maxSeconds, err := s.usage.MaxSessionSeconds(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &SessionGrant{
		SessionID:         ulid.Make().String(),
		MaxSessionSeconds: maxSeconds,
		Usage:             result,
	}, nil
}

// CompleteSession records a finished session and meters its minutes.
// The session ID doubles as the idempotency key for the minute charge, so
// a retried completion never double-bills. Audio, when provided, is
// stored alongside the session.
func (s *VoiceService) CompleteSession(ctx context.Context, userID, sessionID string, kind models.VoiceSessionKind, durationSeconds int, audio []byte, contentType string) (*SessionResult, error) {
	if durationSeconds <= 0 {
		return nil, ErrInvalidDuration
	}

	maxSeconds, err := s.usage.MaxSessionSeconds(ctx, userID)
	if err != nil {
		return nil, err
	}
	if maxSeconds > 0 && durationSeconds > maxSeconds {
		return nil, fmt.Errorf("%w: %ds > %ds", ErrSessionTooLong, durationSeconds, maxSeconds)
	}

	minutes := float64(durationSeconds) / 60
	delta := usage.UnitsFromValue(usage.ResourceVoiceMinutes, minutes)
	if delta == 0 {
		// Sessions under three seconds round to zero tenths; charge the
		// minimum unit so no usage is ever free.
		delta = 1
	}

	minuteResult, err := s.usage.Consume(ctx, userID, usage.ResourceVoiceMinutes, delta, "voice_complete:"+sessionID)
	if err != nil {
		return nil, err
	}

	audioKey := ""
	if len(audio) > 0 {
		key, err := s.storage.PutAudio(ctx, userID, sessionID, contentType, audio)
		if err != nil {
			s.logger.Error("failed to store session audio", "session_id", sessionID, "error", err)
		} else {
			audioKey = key
		}
	}

	session := &models.VoiceSession{
		ID:              sessionID,
		UserID:          userID,
		Kind:            kind,
		DurationSeconds: durationSeconds,
		AudioKey:        audioKey,
		CreatedAt:       s.now().UTC(),
	}
	if !minuteResult.AlreadyApplied {
		if err := s.sessions.Create(ctx, session); err != nil {
			return nil, err
		}
	}

	return &SessionResult{Session: session, Minutes: minuteResult}, nil
}

// Transcribe converts session audio to text via the speech backend.
func (s *VoiceService) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	return s.speech.Transcribe(ctx, audio, contentType)
}

// Synthesize converts companion text to audio via the speech backend.
func (s *VoiceService) Synthesize(ctx context.Context, text, voice string) ([]byte, string, error) {
	return s.speech.Synthesize(ctx, text, voice)
}

// ListSessions returns the user's voice session history, newest first.
func (s *VoiceService) ListSessions(ctx context.Context, userID string, limit, offset int) ([]*models.VoiceSession, error) {
	return s.sessions.ListByUserID(ctx, userID, limit, offset)
}
