package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/kindred-api/internal/repository"
	"github.com/jmylchreest/kindred-api/internal/usage"
)

// RetentionService prunes usage counters and idempotency events for
// periods older than the retention window. Current and recent periods are
// never touched; only closed months past the window are removed.
type RetentionService struct {
	repo    repository.UsageRepository
	periods int
	logger  *slog.Logger
	now     func() time.Time
}

// NewRetentionService creates a new retention service keeping the given
// number of monthly periods.
func NewRetentionService(repos *repository.Repositories, periods int, logger *slog.Logger) *RetentionService {
	return &RetentionService{
		repo:    repos.Usage,
		periods: periods,
		logger:  logger,
		now:     time.Now,
	}
}

// Sweep deletes usage rows for periods strictly before the cutoff and
// returns how many rows were removed.
func (s *RetentionService) Sweep(ctx context.Context) (int64, error) {
	cutoff := usage.PeriodBefore(s.now(), s.periods)
	removed, err := s.repo.DeletePeriodsBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("retention sweep failed", "cutoff", cutoff, "error", err)
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("retention sweep completed", "cutoff", cutoff, "rows_removed", removed)
	}
	return removed, nil
}
