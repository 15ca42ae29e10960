package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"photorank/internal/models"
)

var ErrImageNotFound = errors.New("image not found")

type ImageRepository struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

func (r *ImageRepository) Create(ctx context.Context, image models.Image) error {
	const query = `
		INSERT INTO images (
			id, owner_username, storage_url, object_key, moderation_status,
			is_visible, median_score, rating_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		image.ID,
		image.OwnerUsername,
		image.StorageURL,
		image.ObjectKey,
		image.ModerationStatus,
		image.IsVisible,
		image.MedianScore,
		image.RatingCount,
	)
	return err
}

func (r *ImageRepository) GetByID(ctx context.Context, id string) (models.Image, error) {
	const query = `
		SELECT id, owner_username, storage_url, object_key, moderation_status,
		       is_visible, median_score, rating_count, created_at, updated_at
		FROM images WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	image, err := scanImage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Image{}, ErrImageNotFound
		}
		return models.Image{}, err
	}
	return image, nil
}

// UpdateStats writes the recomputed cached statistic as one atomic update.
// A nil median clears the field; that only happens after a purge empties the
// rating set.
func (r *ImageRepository) UpdateStats(ctx context.Context, id string, median *float64, count int) error {
	const query = `
		UPDATE images
		SET median_score = $2,
		    rating_count = $3,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, median, count)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

// ListRanked returns visible approved images at or above the ratings
// threshold, ordered for the classifier. The limit caps the percentile
// universe; beyond it only the top slice is visible.
func (r *ImageRepository) ListRanked(ctx context.Context, threshold, limit int) ([]models.Image, error) {
	const query = `
		SELECT id, owner_username, storage_url, object_key, moderation_status,
		       is_visible, median_score, rating_count, created_at, updated_at
		FROM images
		WHERE is_visible AND moderation_status = 'approved' AND rating_count >= $1
		ORDER BY median_score DESC, created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectImages(rows)
}

// ListBelowThreshold returns the Newest shelf: visible approved images that
// have not yet earned enough ratings to rank.
func (r *ImageRepository) ListBelowThreshold(ctx context.Context, threshold, limit, offset int) ([]models.Image, error) {
	const query = `
		SELECT id, owner_username, storage_url, object_key, moderation_status,
		       is_visible, median_score, rating_count, created_at, updated_at
		FROM images
		WHERE is_visible AND moderation_status = 'approved' AND rating_count < $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, threshold, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectImages(rows)
}

func (r *ImageRepository) CountBelowThreshold(ctx context.Context, threshold int) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM images
		WHERE is_visible AND moderation_status = 'approved' AND rating_count < $1
	`
	var count int
	if err := r.pool.QueryRow(ctx, query, threshold).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListStaleStats finds images whose cached rating_count disagrees with the
// true count of their rating rows. The reconciliation job recomputes these.
func (r *ImageRepository) ListStaleStats(ctx context.Context, limit int) ([]string, error) {
	const query = `
		SELECT i.id
		FROM images i
		LEFT JOIN ratings r ON r.image_id = i.id
		GROUP BY i.id, i.rating_count
		HAVING i.rating_count <> COUNT(r.id)
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (models.Image, error) {
	var image models.Image
	err := row.Scan(
		&image.ID,
		&image.OwnerUsername,
		&image.StorageURL,
		&image.ObjectKey,
		&image.ModerationStatus,
		&image.IsVisible,
		&image.MedianScore,
		&image.RatingCount,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	return image, err
}

func collectImages(rows pgx.Rows) ([]models.Image, error) {
	var images []models.Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}
