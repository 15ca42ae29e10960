package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"photorank/internal/rating"
)

// Stats is the cached summary statistic pair on an image.
type Stats struct {
	MedianScore *float64 `json:"median_score"`
	RatingCount int      `json:"rating_count"`
}

// StatsService recomputes an image's cached (median_score, rating_count)
// from its full current rating set. Correctness over efficiency: rating sets
// per image are small, so every recompute is a full fetch, never a running
// estimate. Writers for the same image are serialized by a keyed mutex;
// writers for different images never contend.
type StatsService struct {
	images  ImageStore
	ratings RatingStore
	log     zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStatsService(images ImageStore, ratings RatingStore, log zerolog.Logger) *StatsService {
	return &StatsService{
		images:  images,
		ratings: ratings,
		log:     log,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Recompute fetches all ratings for the image, computes the median, and
// writes the pair back as one atomic update. When the rating set is empty
// the median field is cleared, never set to a synthetic zero. A recompute
// triggered by the last in-flight rating always sees that rating, so the
// cached value converges once traffic settles.
func (s *StatsService) Recompute(ctx context.Context, imageID string) (Stats, error) {
	lock := s.imageLock(imageID)
	lock.Lock()
	defer lock.Unlock()

	scores, err := s.ratings.ListScoresByImage(ctx, imageID)
	if err != nil {
		return Stats{}, fmt.Errorf("fetch ratings for %s: %w", imageID, err)
	}

	stats := Stats{RatingCount: len(scores)}
	if len(scores) > 0 {
		median := rating.Median(scores)
		stats.MedianScore = &median
	}

	if err := s.images.UpdateStats(ctx, imageID, stats.MedianScore, stats.RatingCount); err != nil {
		return Stats{}, fmt.Errorf("write stats for %s: %w", imageID, err)
	}

	return stats, nil
}

func (s *StatsService) imageLock(imageID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[imageID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[imageID] = lock
	}
	return lock
}
