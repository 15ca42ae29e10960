package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"photorank/internal/config"
	"photorank/internal/ids"
	"photorank/internal/models"
	"photorank/internal/ratelimit"
	"photorank/internal/rating"
	"photorank/internal/repository"
)

type SubmitInput struct {
	ImageID   string
	SessionID string
	RawRating any
	IPAddress string
}

// SubmitResult carries the durably recorded rating. Stats is nil when the
// recompute failed after the insert; the rating still stands and the hourly
// reconciliation pass will repair the cached statistic.
type SubmitResult struct {
	Rating models.Rating
	Stats  *Stats
}

// SubmitService runs one rating submission end to end: validation, admission
// control, durable insert, stats recompute.
type SubmitService struct {
	images  ImageStore
	ratings RatingStore
	stats   *StatsService
	limiter ratelimit.Limiter
	cfg     config.EngineConfig
	log     zerolog.Logger
}

func NewSubmitService(images ImageStore, ratings RatingStore, stats *StatsService, limiter ratelimit.Limiter, cfg config.EngineConfig, log zerolog.Logger) *SubmitService {
	return &SubmitService{
		images:  images,
		ratings: ratings,
		stats:   stats,
		limiter: limiter,
		cfg:     cfg,
		log:     log,
	}
}

// Submit validates and records one rating. Admission errors are returned
// before any durable write. Once the insert succeeds the rating is the
// durable fact; a failed recompute is logged and left to the reconciliation
// job, never rolled back.
func (s *SubmitService) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	score, err := rating.Validate(input.RawRating)
	if err != nil {
		return SubmitResult{}, err
	}

	if err := rating.ValidateSessionID(input.SessionID); err != nil {
		return SubmitResult{}, err
	}

	image, err := s.images.GetByID(ctx, input.ImageID)
	if err != nil {
		return SubmitResult{}, err
	}
	if !image.Rankable() {
		return SubmitResult{}, repository.ErrImageNotFound
	}

	if decision := s.limiter.Consume(ctx, input.IPAddress); !decision.Allowed {
		return SubmitResult{}, &ratelimit.Error{ResetAt: decision.ResetAt}
	}

	record := models.Rating{
		ID:        ids.New(),
		ImageID:   input.ImageID,
		Rating:    score,
		SessionID: input.SessionID,
		CreatedAt: time.Now().UTC(),
	}
	if input.IPAddress != "" {
		ip := input.IPAddress
		record.IPAddress = &ip
	}

	if err := s.ratings.Insert(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateRating) {
			return SubmitResult{}, err
		}
		return SubmitResult{}, fmt.Errorf("insert rating: %w", err)
	}

	result := SubmitResult{Rating: record}

	// The recompute runs on a detached context so a request timeout cannot
	// abort it mid-write. Its failure never surfaces as the submission's.
	recomputeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RecomputeTimeout)
	defer cancel()

	stats, err := s.stats.Recompute(recomputeCtx, input.ImageID)
	if err != nil {
		s.log.Error().Err(err).
			Str("image_id", input.ImageID).
			Msg("stats recompute failed after insert")
		return result, nil
	}
	result.Stats = &stats

	return result, nil
}
