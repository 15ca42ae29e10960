package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photorank/internal/models"
	"photorank/internal/ratelimit"
	"photorank/internal/rating"
	"photorank/internal/repository"
)

func testImage(id string) models.Image {
	return models.Image{
		ID:               id,
		OwnerUsername:    "casey",
		StorageURL:       "https://cdn.example/" + id,
		ModerationStatus: models.ModerationApproved,
		IsVisible:        true,
		CreatedAt:        time.Now().UTC(),
	}
}

func newSubmitService(images *memImageStore, ratings *memRatingStore, limiter ratelimit.Limiter) *SubmitService {
	logger := zerolog.Nop()
	stats := NewStatsService(images, ratings, logger)
	return NewSubmitService(images, ratings, stats, limiter, testEngineConfig(), logger)
}

func sessionToken(n int) string {
	return fmt.Sprintf("sess_1700000000%03d_abcdefghi", n)
}

func TestSubmitHappyPath(t *testing.T) {
	images := newMemImageStore(testImage("img-1"))
	ratings := newMemRatingStore()
	svc := newSubmitService(images, ratings, stubLimiter{allowed: true})

	result, err := svc.Submit(context.Background(), SubmitInput{
		ImageID:   "img-1",
		SessionID: sessionToken(1),
		RawRating: 7.5,
		IPAddress: "203.0.113.9",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Rating.ID)
	assert.InDelta(t, 7.5, result.Rating.Rating, 1e-9)
	require.NotNil(t, result.Stats)
	require.NotNil(t, result.Stats.MedianScore)
	assert.InDelta(t, 7.5, *result.Stats.MedianScore, 1e-9)
	assert.Equal(t, 1, result.Stats.RatingCount)

	stored, err := images.GetByID(context.Background(), "img-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.RatingCount)
}

func TestSubmitDuplicateSession(t *testing.T) {
	images := newMemImageStore(testImage("img-1"))
	svc := newSubmitService(images, newMemRatingStore(), stubLimiter{allowed: true})
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitInput{ImageID: "img-1", SessionID: sessionToken(1), RawRating: 6.0})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, SubmitInput{ImageID: "img-1", SessionID: sessionToken(1), RawRating: 9.0})
	assert.ErrorIs(t, err, repository.ErrDuplicateRating)

	// Same session may still rate a different image.
	images.images["img-2"] = testImage("img-2")
	_, err = svc.Submit(ctx, SubmitInput{ImageID: "img-2", SessionID: sessionToken(1), RawRating: 9.0})
	assert.NoError(t, err)
}

func TestSubmitDuplicateRace(t *testing.T) {
	images := newMemImageStore(testImage("img-1"))
	svc := newSubmitService(images, newMemRatingStore(), stubLimiter{allowed: true})

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Submit(context.Background(), SubmitInput{
				ImageID:   "img-1",
				SessionID: sessionToken(1),
				RawRating: 5.0,
			})
		}(i)
	}
	wg.Wait()

	succeeded, duplicates := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, repository.ErrDuplicateRating):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, duplicates)
}

func TestSubmitRejectsBeforeAnyWrite(t *testing.T) {
	images := newMemImageStore(testImage("img-1"))
	ratings := newMemRatingStore()
	svc := newSubmitService(images, ratings, stubLimiter{allowed: true})
	ctx := context.Background()

	cases := []struct {
		name  string
		input SubmitInput
		want  error
	}{
		{"invalid rating", SubmitInput{ImageID: "img-1", SessionID: sessionToken(1), RawRating: 10.01}, rating.ErrInvalidRating},
		{"unparseable rating", SubmitInput{ImageID: "img-1", SessionID: sessionToken(1), RawRating: "abc"}, rating.ErrInvalidRating},
		{"malformed session", SubmitInput{ImageID: "img-1", SessionID: "not-a-token", RawRating: 5.0}, rating.ErrInvalidSession},
		{"missing image", SubmitInput{ImageID: "ghost", SessionID: sessionToken(1), RawRating: 5.0}, repository.ErrImageNotFound},
	}
	for _, tc := range cases {
		_, err := svc.Submit(ctx, tc.input)
		assert.ErrorIs(t, err, tc.want, tc.name)
	}

	assert.Empty(t, ratings.ratings, "no rating row may exist after rejected submissions")
}

func TestSubmitHiddenImageReadsAsNotFound(t *testing.T) {
	hidden := testImage("img-hidden")
	hidden.ModerationStatus = models.ModerationHidden
	invisible := testImage("img-invisible")
	invisible.IsVisible = false

	svc := newSubmitService(newMemImageStore(hidden, invisible), newMemRatingStore(), stubLimiter{allowed: true})
	ctx := context.Background()

	for _, id := range []string{"img-hidden", "img-invisible"} {
		_, err := svc.Submit(ctx, SubmitInput{ImageID: id, SessionID: sessionToken(1), RawRating: 5.0})
		assert.ErrorIs(t, err, repository.ErrImageNotFound, id)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	reset := time.Now().Add(time.Hour).Truncate(time.Second)
	images := newMemImageStore(testImage("img-1"))
	ratings := newMemRatingStore()
	svc := newSubmitService(images, ratings, stubLimiter{allowed: false, resetAt: reset})

	_, err := svc.Submit(context.Background(), SubmitInput{
		ImageID:   "img-1",
		SessionID: sessionToken(1),
		RawRating: 5.0,
		IPAddress: "203.0.113.9",
	})

	var limitErr *ratelimit.Error
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, reset, limitErr.ResetAt)
	assert.Empty(t, ratings.ratings)
}

func TestSubmitSurvivesRecomputeFailure(t *testing.T) {
	images := newMemImageStore(testImage("img-1"))
	images.updateErr = errors.New("stats write refused")
	ratings := newMemRatingStore()
	svc := newSubmitService(images, ratings, stubLimiter{allowed: true})

	result, err := svc.Submit(context.Background(), SubmitInput{
		ImageID:   "img-1",
		SessionID: sessionToken(1),
		RawRating: 5.0,
	})

	// The rating is the durable fact; the failed recompute is not the
	// submission's failure.
	require.NoError(t, err)
	assert.Nil(t, result.Stats)
	assert.Len(t, ratings.ratings, 1)
}

func TestSubmitTenSessionsMedianConverges(t *testing.T) {
	images := newMemImageStore(testImage("img-x"))
	svc := newSubmitService(images, newMemRatingStore(), stubLimiter{allowed: true})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.Submit(ctx, SubmitInput{
			ImageID:   "img-x",
			SessionID: sessionToken(i),
			RawRating: 3.0,
		})
		require.NoError(t, err, "submission %d", i)
	}

	stored, err := images.GetByID(ctx, "img-x")
	require.NoError(t, err)
	assert.Equal(t, 10, stored.RatingCount)
	require.NotNil(t, stored.MedianScore)
	assert.InDelta(t, 3.00, *stored.MedianScore, 1e-9)
}
