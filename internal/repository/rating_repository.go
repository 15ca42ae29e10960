package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"photorank/internal/models"
)

var ErrDuplicateRating = errors.New("session already rated this image")

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type RatingRepository struct {
	pool *pgxpool.Pool
}

func NewRatingRepository(pool *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{pool: pool}
}

// Insert records one rating. The unique constraint on (image_id, session_id)
// turns a concurrent duplicate into a deterministic conflict; both racing
// inserts cannot succeed.
func (r *RatingRepository) Insert(ctx context.Context, rating models.Rating) error {
	const query = `
		INSERT INTO ratings (id, image_id, rating, session_id, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	_, err := r.pool.Exec(ctx, query,
		rating.ID,
		rating.ImageID,
		rating.Rating,
		rating.SessionID,
		rating.IPAddress,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrDuplicateRating
			case pgForeignKeyViolation:
				return ErrImageNotFound
			}
		}
		return err
	}
	return nil
}

// ListScoresByImage fetches the full current rating set for one image. The
// aggregator always recomputes from this, never from a running estimate.
func (r *RatingRepository) ListScoresByImage(ctx context.Context, imageID string) ([]float64, error) {
	const query = `SELECT rating FROM ratings WHERE image_id = $1`

	rows, err := r.pool.Query(ctx, query, imageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// DeleteByImage is the administrative purge, the only normal-operation path
// that removes rating rows.
func (r *RatingRepository) DeleteByImage(ctx context.Context, imageID string) (int64, error) {
	const query = `DELETE FROM ratings WHERE image_id = $1`
	cmd, err := r.pool.Exec(ctx, query, imageID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// DeleteDuplicates removes every rating beyond the earliest per
// (image_id, session_id) pair and reports which images were touched.
// Idempotent; the unique constraint makes new duplicates impossible, this
// sweep exists for rows that predate it.
func (r *RatingRepository) DeleteDuplicates(ctx context.Context) ([]string, error) {
	const query = `
		DELETE FROM ratings
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY image_id, session_id
					ORDER BY created_at ASC, id ASC
				) AS rn
				FROM ratings
			) numbered
			WHERE rn > 1
		)
		RETURNING image_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var imageIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			imageIDs = append(imageIDs, id)
		}
	}
	return imageIDs, rows.Err()
}
