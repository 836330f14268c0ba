package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/kindred-api/internal/crypto"
	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
	"github.com/jmylchreest/kindred-api/internal/streak"
)

var (
	ErrJournalNotFound = errors.New("journal entry not found")
	ErrEmptyJournal    = errors.New("journal entry body is empty")
	ErrBadEntryDate    = errors.New("entry date must be YYYY-MM-DD")
)

// sentimentTagger is the slice of LLMClient the journal service needs.
type sentimentTagger interface {
	ClassifySentiment(ctx context.Context, text string) (string, error)
}

// JournalService handles dated journal entries. Bodies are encrypted with
// AES-256-GCM before they reach the repository and decrypted on the way
// out; the database never holds plaintext.
type JournalService struct {
	repo      repository.JournalRepository
	streaks   *StreakService
	encryptor *crypto.Encryptor
	tagger    sentimentTagger
	logger    *slog.Logger
	now       func() time.Time
}

// NewJournalService creates a new journal service. tagger may be nil when
// no LLM is configured; entries are then saved untagged.
func NewJournalService(repos *repository.Repositories, streakSvc *StreakService, encryptor *crypto.Encryptor, tagger sentimentTagger, logger *slog.Logger) *JournalService {
	return &JournalService{
		repo:      repos.Journal,
		streaks:   streakSvc,
		encryptor: encryptor,
		tagger:    tagger,
		logger:    logger,
		now:       time.Now,
	}
}

// JournalResult pairs a saved entry with its streak transition.
type JournalResult struct {
	Entry  *models.JournalEntry
	Streak streak.Result
}

// Write creates or replaces the entry for a date. Writing today's entry
// advances the journal streak; backfilled dates do not.
func (s *JournalService) Write(ctx context.Context, userID, entryDate, body string) (*JournalResult, error) {
	if body == "" {
		return nil, ErrEmptyJournal
	}
	date, err := streak.ParseDate(entryDate)
	if err != nil {
		return nil, ErrBadEntryDate
	}

	ciphertext, err := s.encryptor.Encrypt(body)
	if err != nil {
		return nil, err
	}

	sentiment := ""
	if s.tagger != nil {
		if tag, err := s.tagger.ClassifySentiment(ctx, body); err != nil {
			s.logger.Debug("journal sentiment classification failed", "error", err)
		} else {
			sentiment = tag
		}
	}

	now := s.now().UTC()
	entry := &models.JournalEntry{
		ID:        ulid.Make().String(),
		UserID:    userID,
		EntryDate: date.String(),
		Body:      ciphertext,
		Sentiment: sentiment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return nil, err
	}

	result := &JournalResult{Entry: entry}
	result.Entry.Body = body

	if date == streak.DateOf(now) {
		streakResult, err := s.streaks.RecordActivity(ctx, userID, streak.ActivityJournal)
		if err != nil {
			s.logger.Error("failed to record journal streak", "user_id", userID, "error", err)
		} else {
			result.Streak = streakResult
		}
	}
	return result, nil
}

// Get returns the decrypted entry for a date.
func (s *JournalService) Get(ctx context.Context, userID, entryDate string) (*models.JournalEntry, error) {
	entry, err := s.repo.GetByDate(ctx, userID, entryDate)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrJournalNotFound
	}
	return s.decrypt(entry)
}

// List returns decrypted entries, newest first.
func (s *JournalService) List(ctx context.Context, userID string, limit, offset int) ([]*models.JournalEntry, error) {
	entries, err := s.repo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i, entry := range entries {
		decrypted, err := s.decrypt(entry)
		if err != nil {
			return nil, err
		}
		entries[i] = decrypted
	}
	return entries, nil
}

// Delete removes the entry for a date.
func (s *JournalService) Delete(ctx context.Context, userID, entryDate string) error {
	entry, err := s.repo.GetByDate(ctx, userID, entryDate)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrJournalNotFound
	}
	return s.repo.Delete(ctx, userID, entryDate)
}

func (s *JournalService) decrypt(entry *models.JournalEntry) (*models.JournalEntry, error) {
	plaintext, err := s.encryptor.Decrypt(entry.Body)
	if err != nil {
		return nil, err
	}
	entry.Body = plaintext
	return entry, nil
}
