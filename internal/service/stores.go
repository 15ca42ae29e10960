package service

import (
	"context"

	"photorank/internal/models"
)

// ImageStore is the slice of the image repository the services consume.
type ImageStore interface {
	Create(ctx context.Context, image models.Image) error
	GetByID(ctx context.Context, id string) (models.Image, error)
	UpdateStats(ctx context.Context, id string, median *float64, count int) error
	ListRanked(ctx context.Context, threshold, limit int) ([]models.Image, error)
	ListBelowThreshold(ctx context.Context, threshold, limit, offset int) ([]models.Image, error)
	CountBelowThreshold(ctx context.Context, threshold int) (int, error)
	ListStaleStats(ctx context.Context, limit int) ([]string, error)
}

// RatingStore is the slice of the rating repository the services consume.
type RatingStore interface {
	Insert(ctx context.Context, rating models.Rating) error
	ListScoresByImage(ctx context.Context, imageID string) ([]float64, error)
	DeleteByImage(ctx context.Context, imageID string) (int64, error)
	DeleteDuplicates(ctx context.Context) ([]string, error)
}
