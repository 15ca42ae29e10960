package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"photorank/internal/config"
	"photorank/internal/models"
	"photorank/internal/ranking"
)

var (
	ErrImageNotRanked = errors.New("image is not in the ranked set")
	ErrInvalidSort    = errors.New("invalid sort parameter")
)

type SortBy string

const (
	SortByScore SortBy = "score"
	SortByCount SortBy = "count"
	SortByDate  SortBy = "date"
)

type ListParams struct {
	Tier      ranking.Tier // empty for all tiers
	SortBy    SortBy
	Ascending bool
	Limit     int
	Offset    int
}

type LeaderboardItem struct {
	ImageID       string       `json:"imageId"`
	OwnerUsername string       `json:"ownerUsername"`
	StorageURL    string       `json:"storageUrl"`
	MedianScore   *float64     `json:"median_score"`
	RatingCount   int          `json:"rating_count"`
	CreatedAt     time.Time    `json:"createdAt"`
	Tier          ranking.Tier `json:"tier"`
	Rank          int          `json:"rank,omitempty"`
	Percentile    float64      `json:"percentile,omitempty"`
}

type ListResult struct {
	Items      []LeaderboardItem `json:"items"`
	TotalCount int               `json:"totalCount"`
}

// LeaderboardService serves paginated leaderboard reads. Tiers are computed
// fresh on every read from the then-current ranked set; nothing about rank
// is persisted. The ranked universe is capped, so beyond the cap only the
// top slice by median is visible.
type LeaderboardService struct {
	images ImageStore
	cfg    config.EngineConfig
	log    zerolog.Logger
}

func NewLeaderboardService(images ImageStore, cfg config.EngineConfig, log zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{
		images: images,
		cfg:    cfg,
		log:    log,
	}
}

// List returns one page of the leaderboard. The Newest tier is the shelf of
// visible images below the ranking threshold; a single outlier rating cannot
// push a low-sample image into an extreme tier because those images never
// enter the percentile universe.
func (s *LeaderboardService) List(ctx context.Context, params ListParams) (ListResult, error) {
	params = s.normalize(params)
	if params.SortBy != SortByScore && params.SortBy != SortByCount && params.SortBy != SortByDate {
		return ListResult{}, ErrInvalidSort
	}
	if params.Tier != "" && !params.Tier.Valid() {
		return ListResult{}, fmt.Errorf("%w: unknown tier %q", ErrInvalidSort, params.Tier)
	}

	if params.Tier == ranking.TierNewest {
		return s.listNewest(ctx, params)
	}

	ranked, err := s.rankedItems(ctx)
	if err != nil {
		return ListResult{}, err
	}

	items := ranked
	if params.Tier != "" {
		filtered := make([]LeaderboardItem, 0, len(ranked))
		for _, item := range ranked {
			if item.Tier == params.Tier {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	} else {
		newest, err := s.newestItems(ctx, s.cfg.LeaderboardCap, 0)
		if err != nil {
			return ListResult{}, err
		}
		items = append(items, newest...)
		if len(items) > s.cfg.LeaderboardCap {
			items = items[:s.cfg.LeaderboardCap]
		}
	}

	sortItems(items, params.SortBy, params.Ascending)

	return ListResult{
		Items:      page(items, params.Limit, params.Offset),
		TotalCount: len(items),
	}, nil
}

// Around finds an image's global rank and returns a window of the ranked
// list centered on it.
func (s *LeaderboardService) Around(ctx context.Context, imageID string, radius int) (ListResult, error) {
	if radius <= 0 {
		radius = 5
	}
	// An oversized radius means "the whole list"; unclamped it would overflow
	// the window arithmetic below.
	if radius > s.cfg.LeaderboardCap {
		radius = s.cfg.LeaderboardCap
	}

	ranked, err := s.rankedItems(ctx)
	if err != nil {
		return ListResult{}, err
	}

	idx := -1
	for i, item := range ranked {
		if item.ImageID == imageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ListResult{}, ErrImageNotRanked
	}

	lo := idx - radius
	if lo < 0 {
		lo = 0
	}
	hi := idx + radius + 1
	if hi > len(ranked) {
		hi = len(ranked)
	}

	return ListResult{
		Items:      ranked[lo:hi],
		TotalCount: len(ranked),
	}, nil
}

// TierOf classifies a single image against the current ranked universe.
func (s *LeaderboardService) TierOf(ctx context.Context, image models.Image) (ranking.Tier, error) {
	if image.RatingCount < s.cfg.RankingThreshold {
		return ranking.TierNewest, nil
	}

	ranked, err := s.rankedItems(ctx)
	if err != nil {
		return "", err
	}
	for _, item := range ranked {
		if item.ImageID == image.ID {
			return item.Tier, nil
		}
	}
	// Past the universe cap; the image still ranks somewhere below the
	// visible slice, which by construction is the bottom bucket.
	return ranking.TierNeedsWork, nil
}

func (s *LeaderboardService) rankedItems(ctx context.Context) ([]LeaderboardItem, error) {
	images, err := s.images.ListRanked(ctx, s.cfg.RankingThreshold, s.cfg.LeaderboardCap)
	if err != nil {
		return nil, fmt.Errorf("load ranked images: %w", err)
	}

	entries := make([]ranking.Entry, 0, len(images))
	byID := make(map[string]models.Image, len(images))
	for _, img := range images {
		if img.MedianScore == nil {
			continue
		}
		byID[img.ID] = img
		entries = append(entries, ranking.Entry{
			ImageID:     img.ID,
			MedianScore: *img.MedianScore,
			RatingCount: img.RatingCount,
			CreatedAt:   img.CreatedAt,
		})
	}

	rankedEntries := ranking.Rank(entries, s.cfg.RankingThreshold)
	items := make([]LeaderboardItem, 0, len(rankedEntries))
	for _, r := range rankedEntries {
		img := byID[r.ImageID]
		items = append(items, LeaderboardItem{
			ImageID:       img.ID,
			OwnerUsername: img.OwnerUsername,
			StorageURL:    img.StorageURL,
			MedianScore:   img.MedianScore,
			RatingCount:   img.RatingCount,
			CreatedAt:     img.CreatedAt,
			Tier:          r.Tier,
			Rank:          r.Rank,
			Percentile:    r.Percentile,
		})
	}
	return items, nil
}

func (s *LeaderboardService) listNewest(ctx context.Context, params ListParams) (ListResult, error) {
	items, err := s.newestItems(ctx, params.Limit, params.Offset)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.images.CountBelowThreshold(ctx, s.cfg.RankingThreshold)
	if err != nil {
		return ListResult{}, fmt.Errorf("count newest: %w", err)
	}
	return ListResult{Items: items, TotalCount: total}, nil
}

func (s *LeaderboardService) newestItems(ctx context.Context, limit, offset int) ([]LeaderboardItem, error) {
	images, err := s.images.ListBelowThreshold(ctx, s.cfg.RankingThreshold, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load newest images: %w", err)
	}

	items := make([]LeaderboardItem, 0, len(images))
	for _, img := range images {
		items = append(items, LeaderboardItem{
			ImageID:       img.ID,
			OwnerUsername: img.OwnerUsername,
			StorageURL:    img.StorageURL,
			MedianScore:   img.MedianScore,
			RatingCount:   img.RatingCount,
			CreatedAt:     img.CreatedAt,
			Tier:          ranking.TierNewest,
		})
	}
	return items, nil
}

func (s *LeaderboardService) normalize(params ListParams) ListParams {
	if params.SortBy == "" {
		params.SortBy = SortByScore
	}
	if params.Limit <= 0 {
		params.Limit = 50
	}
	if params.Limit > s.cfg.LeaderboardCap {
		params.Limit = s.cfg.LeaderboardCap
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return params
}

func sortItems(items []LeaderboardItem, by SortBy, ascending bool) {
	less := func(i, j int) bool {
		switch by {
		case SortByCount:
			if items[i].RatingCount != items[j].RatingCount {
				return items[i].RatingCount < items[j].RatingCount
			}
		case SortByDate:
			if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
				return items[i].CreatedAt.Before(items[j].CreatedAt)
			}
		default:
			si, sj := scoreOf(items[i]), scoreOf(items[j])
			if si != sj {
				return si < sj
			}
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	}

	if ascending {
		sort.SliceStable(items, less)
	} else {
		sort.SliceStable(items, func(i, j int) bool { return less(j, i) })
	}
}

// scoreOf orders unrated images below every rated one on score sorts.
func scoreOf(item LeaderboardItem) float64 {
	if item.MedianScore == nil {
		return -1
	}
	return *item.MedianScore
}

func page(items []LeaderboardItem, limit, offset int) []LeaderboardItem {
	if offset >= len(items) {
		return []LeaderboardItem{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
