package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photorank/internal/models"
	"photorank/internal/repository"
)

func newMaintenance(images *memImageStore, ratings *memRatingStore) *MaintenanceService {
	logger := zerolog.Nop()
	stats := NewStatsService(images, ratings, logger)
	return NewMaintenanceService(images, ratings, stats, logger)
}

func seedRating(ratings *memRatingStore, imageID, sessionID string, score float64, at time.Time) {
	ratings.seed(models.Rating{
		ID:        imageID + "-" + sessionID,
		ImageID:   imageID,
		Rating:    score,
		SessionID: sessionID,
		CreatedAt: at,
	})
}

func TestDedupeSessionsKeepsEarliestAndRecomputes(t *testing.T) {
	images := newMemImageStore(testImage("img"))
	ratings := newMemRatingStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// A session that voted three times before the constraint existed, plus
	// two clean sessions.
	seedRating(ratings, "img", sessionToken(1), 2.00, base)
	seedRating(ratings, "img", sessionToken(1), 9.00, base.Add(time.Minute))
	seedRating(ratings, "img", sessionToken(1), 9.50, base.Add(2*time.Minute))
	seedRating(ratings, "img", sessionToken(2), 4.00, base.Add(3*time.Minute))
	seedRating(ratings, "img", sessionToken(3), 6.00, base.Add(4*time.Minute))

	svc := newMaintenance(images, ratings)
	touched, err := svc.DedupeSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, touched)

	scores, err := ratings.ListScoresByImage(context.Background(), "img")
	require.NoError(t, err)
	assert.ElementsMatch(t, []float64{2.00, 4.00, 6.00}, scores)

	img, err := images.GetByID(context.Background(), "img")
	require.NoError(t, err)
	require.NotNil(t, img.MedianScore)
	assert.InDelta(t, 4.00, *img.MedianScore, 1e-9)
	assert.Equal(t, 3, img.RatingCount)
}

func TestDedupeSessionsNoDuplicates(t *testing.T) {
	images := newMemImageStore(testImage("img"))
	ratings := newMemRatingStore()
	seedRating(ratings, "img", sessionToken(1), 5.00, time.Now().UTC())

	svc := newMaintenance(images, ratings)
	touched, err := svc.DedupeSessions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, touched)

	scores, err := ratings.ListScoresByImage(context.Background(), "img")
	require.NoError(t, err)
	assert.Len(t, scores, 1)
}

func TestPurgeRatingsClearsStats(t *testing.T) {
	images := newMemImageStore(testImage("img"))
	ratings := newMemRatingStore()
	base := time.Now().UTC()
	seedRating(ratings, "img", sessionToken(1), 7.00, base)
	seedRating(ratings, "img", sessionToken(2), 8.00, base.Add(time.Second))

	svc := newMaintenance(images, ratings)
	stats := NewStatsService(images, ratings, zerolog.Nop())
	_, err := stats.Recompute(context.Background(), "img")
	require.NoError(t, err)

	removed, err := svc.PurgeRatings(context.Background(), "img")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	img, err := images.GetByID(context.Background(), "img")
	require.NoError(t, err)
	assert.Nil(t, img.MedianScore)
	assert.Zero(t, img.RatingCount)

	// A purged session may rate again.
	scores, err := ratings.ListScoresByImage(context.Background(), "img")
	require.NoError(t, err)
	assert.Empty(t, scores)
	err = ratings.Insert(context.Background(), models.Rating{
		ID:        "again",
		ImageID:   "img",
		Rating:    5.00,
		SessionID: sessionToken(1),
		CreatedAt: time.Now().UTC(),
	})
	assert.NoError(t, err)
}

func TestPurgeRatingsUnknownImage(t *testing.T) {
	svc := newMaintenance(newMemImageStore(), newMemRatingStore())

	_, err := svc.PurgeRatings(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrImageNotFound)
}
