package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"photorank/internal/config"
	"photorank/internal/models"
	"photorank/internal/ratelimit"
	"photorank/internal/repository"
)

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		RatingMin:        0,
		RatingMax:        10,
		RankingThreshold: 10,
		DailyRateCap:     50,
		LeaderboardCap:   1000,
		SubmitTimeout:    time.Second,
		RecomputeTimeout: time.Second,
	}
}

type memImageStore struct {
	mu        sync.Mutex
	images    map[string]models.Image
	updateErr error
}

func newMemImageStore(images ...models.Image) *memImageStore {
	s := &memImageStore{images: make(map[string]models.Image)}
	for _, img := range images {
		s.images[img.ID] = img
	}
	return s
}

func (s *memImageStore) Create(_ context.Context, image models.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[image.ID]; ok {
		return errors.New("duplicate image id")
	}
	s.images[image.ID] = image
	return nil
}

func (s *memImageStore) GetByID(_ context.Context, id string) (models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	image, ok := s.images[id]
	if !ok {
		return models.Image{}, repository.ErrImageNotFound
	}
	return image, nil
}

func (s *memImageStore) UpdateStats(_ context.Context, id string, median *float64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	image, ok := s.images[id]
	if !ok {
		return repository.ErrImageNotFound
	}
	image.MedianScore = median
	image.RatingCount = count
	image.UpdatedAt = time.Now().UTC()
	s.images[id] = image
	return nil
}

func (s *memImageStore) ListRanked(_ context.Context, threshold, limit int) ([]models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Image
	for _, img := range s.images {
		if img.Rankable() && img.RatingCount >= threshold {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := -1.0, -1.0
		if out[i].MedianScore != nil {
			si = *out[i].MedianScore
		}
		if out[j].MedianScore != nil {
			sj = *out[j].MedianScore
		}
		if si != sj {
			return si > sj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memImageStore) ListBelowThreshold(_ context.Context, threshold, limit, offset int) ([]models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Image
	for _, img := range s.images {
		if img.Rankable() && img.RatingCount < threshold {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memImageStore) CountBelowThreshold(_ context.Context, threshold int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, img := range s.images {
		if img.Rankable() && img.RatingCount < threshold {
			count++
		}
	}
	return count, nil
}

func (s *memImageStore) ListStaleStats(ctx context.Context, limit int) ([]string, error) {
	return nil, nil
}

type memRatingStore struct {
	mu      sync.Mutex
	ratings []models.Rating
	byPair  map[string]struct{}
}

func newMemRatingStore() *memRatingStore {
	return &memRatingStore{byPair: make(map[string]struct{})}
}

func pairKey(imageID, sessionID string) string {
	return fmt.Sprintf("%s|%s", imageID, sessionID)
}

// Insert mirrors the storage-level unique constraint: check and insert are
// atomic under the store mutex, so racing duplicates see a deterministic
// conflict just like a real unique violation.
func (s *memRatingStore) Insert(_ context.Context, rating models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(rating.ImageID, rating.SessionID)
	if _, ok := s.byPair[key]; ok {
		return repository.ErrDuplicateRating
	}
	s.byPair[key] = struct{}{}
	s.ratings = append(s.ratings, rating)
	return nil
}

// seed bypasses uniqueness, for rows that predate the constraint.
func (s *memRatingStore) seed(rating models.Rating) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings = append(s.ratings, rating)
	s.byPair[pairKey(rating.ImageID, rating.SessionID)] = struct{}{}
}

func (s *memRatingStore) ListScoresByImage(_ context.Context, imageID string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var scores []float64
	for _, r := range s.ratings {
		if r.ImageID == imageID {
			scores = append(scores, r.Rating)
		}
	}
	return scores, nil
}

func (s *memRatingStore) DeleteByImage(_ context.Context, imageID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []models.Rating
	var removed int64
	for _, r := range s.ratings {
		if r.ImageID == imageID {
			removed++
			delete(s.byPair, pairKey(r.ImageID, r.SessionID))
			continue
		}
		kept = append(kept, r)
	}
	s.ratings = kept
	return removed, nil
}

func (s *memRatingStore) DeleteDuplicates(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.SliceStable(s.ratings, func(i, j int) bool {
		return s.ratings[i].CreatedAt.Before(s.ratings[j].CreatedAt)
	})
	seen := make(map[string]struct{})
	touched := make(map[string]struct{})
	var kept []models.Rating
	for _, r := range s.ratings {
		key := pairKey(r.ImageID, r.SessionID)
		if _, ok := seen[key]; ok {
			touched[r.ImageID] = struct{}{}
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}
	s.ratings = kept
	var imageIDs []string
	for id := range touched {
		imageIDs = append(imageIDs, id)
	}
	return imageIDs, nil
}

type stubLimiter struct {
	allowed bool
	resetAt time.Time
}

func (l stubLimiter) Consume(context.Context, string) ratelimit.Decision {
	return ratelimit.Decision{Allowed: l.allowed, ResetAt: l.resetAt}
}
