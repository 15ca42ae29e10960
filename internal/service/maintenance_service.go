package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// MaintenanceService runs the background hygiene passes. Both are idempotent
// and safe to run alongside live traffic: the duplicate sweep only touches
// rows the unique constraint would forbid today, and reconciliation is a
// plain recompute.
type MaintenanceService struct {
	images  ImageStore
	ratings RatingStore
	stats   *StatsService
	log     zerolog.Logger
}

func NewMaintenanceService(images ImageStore, ratings RatingStore, stats *StatsService, log zerolog.Logger) *MaintenanceService {
	return &MaintenanceService{
		images:  images,
		ratings: ratings,
		stats:   stats,
		log:     log,
	}
}

// DedupeSessions deletes every rating beyond the earliest per
// (image_id, session_id) pair, then recomputes stats for the touched images.
// Returns the number of images that had duplicates.
func (s *MaintenanceService) DedupeSessions(ctx context.Context) (int, error) {
	imageIDs, err := s.ratings.DeleteDuplicates(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete duplicates: %w", err)
	}

	for _, id := range imageIDs {
		if _, err := s.stats.Recompute(ctx, id); err != nil {
			s.log.Error().Err(err).Str("image_id", id).Msg("recompute after dedupe failed")
		}
	}

	if len(imageIDs) > 0 {
		s.log.Info().Int("images", len(imageIDs)).Msg("duplicate ratings swept")
	}
	return len(imageIDs), nil
}

// ReconcileStats recomputes images whose cached rating_count drifted from
// the true count, repairing recomputes that failed after an insert.
func (s *MaintenanceService) ReconcileStats(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 500
	}

	imageIDs, err := s.images.ListStaleStats(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list stale stats: %w", err)
	}

	fixed := 0
	for _, id := range imageIDs {
		if _, err := s.stats.Recompute(ctx, id); err != nil {
			s.log.Error().Err(err).Str("image_id", id).Msg("reconcile recompute failed")
			continue
		}
		fixed++
	}

	if fixed > 0 {
		s.log.Info().Int("images", fixed).Msg("stale stats reconciled")
	}
	return fixed, nil
}

// PurgeRatings is the administrative purge: removes every rating for one
// image and recomputes, leaving the median cleared.
func (s *MaintenanceService) PurgeRatings(ctx context.Context, imageID string) (int64, error) {
	if _, err := s.images.GetByID(ctx, imageID); err != nil {
		return 0, err
	}

	removed, err := s.ratings.DeleteByImage(ctx, imageID)
	if err != nil {
		return 0, fmt.Errorf("purge ratings: %w", err)
	}

	if _, err := s.stats.Recompute(ctx, imageID); err != nil {
		s.log.Error().Err(err).Str("image_id", imageID).Msg("recompute after purge failed")
	}

	s.log.Info().
		Str("image_id", imageID).
		Int64("removed", removed).
		Msg("ratings purged")
	return removed, nil
}
