package repository

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ratingColumns = `id::text, user_id, product_id, rating, review, created_at, updated_at`

// UpsertRating inserts a rating or, when the user already rated the product,
// replaces its score and review. The unique (user_id, product_id) key keeps a
// single row per pair. created reports whether a new row was inserted.
func (r *Repository) UpsertRating(ctx context.Context, in domain.RatingInput) (*domain.Rating, bool, error) {
	rating := &domain.Rating{}
	var created bool

	err := r.pool.QueryRow(ctx,
		`INSERT INTO ratings (id, user_id, product_id, rating, review)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id) DO UPDATE
			SET rating = EXCLUDED.rating,
			    review = EXCLUDED.review,
			    updated_at = NOW()
		RETURNING `+ratingColumns+`, (xmax = 0) AS inserted`,
		uuid.NewString(), in.UserID, in.ProductID, in.Score, in.Review,
	).Scan(&rating.ID, &rating.UserID, &rating.ProductID, &rating.Score, &rating.Review,
		&rating.CreatedAt, &rating.UpdatedAt, &created)

	if err != nil {
		return nil, false, fmt.Errorf("upsert rating user=%d product=%d: %w", in.UserID, in.ProductID, err)
	}
	return rating, created, nil
}

func (r *Repository) DeleteRating(ctx context.Context, ratingID string) (bool, error) {
	if _, err := uuid.Parse(ratingID); err != nil {
		// Not a key that can exist in the table.
		return false, nil
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM ratings WHERE id = $1`, ratingID)
	if err != nil {
		return false, fmt.Errorf("delete rating %s: %w", ratingID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Ratings by user, newest first
func (r *Repository) GetRatingsByUser(ctx context.Context, userID int64) ([]domain.Rating, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ratingColumns+`
		FROM ratings
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query ratings for user %d: %w", userID, err)
	}
	return scanRatings(rows)
}

// Ratings by product, newest first
func (r *Repository) GetRatingsByProduct(ctx context.Context, productID int64) ([]domain.Rating, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ratingColumns+`
		FROM ratings
		WHERE product_id = $1
		ORDER BY created_at DESC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("query ratings for product %d: %w", productID, err)
	}
	return scanRatings(rows)
}

// AggregateRatingsByProduct groups ratings by product. A nil filter.UserIDs is
// sent as NULL and matches every user; an empty slice matches none.
func (r *Repository) AggregateRatingsByProduct(ctx context.Context, filter domain.AggregateFilter) ([]domain.ProductRatingStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, AVG(rating)::float8, COUNT(*)
		FROM ratings
		WHERE ($1::bigint[] IS NULL OR user_id = ANY($1))
		  AND ($2::bigint = 0 OR product_id <> $2)
		GROUP BY product_id
		ORDER BY product_id`,
		filter.UserIDs, filter.ExcludeProductID,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate ratings by product: %w", err)
	}
	defer rows.Close()

	stats := []domain.ProductRatingStats{}
	for rows.Next() {
		var s domain.ProductRatingStats
		if err := rows.Scan(&s.ProductID, &s.AvgRating, &s.Count); err != nil {
			return nil, fmt.Errorf("scan rating stats: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over rating stats: %w", err)
	}
	return stats, nil
}

func scanRatings(rows pgx.Rows) ([]domain.Rating, error) {
	defer rows.Close()

	ratings := []domain.Rating{}
	for rows.Next() {
		var rt domain.Rating
		err := rows.Scan(&rt.ID, &rt.UserID, &rt.ProductID, &rt.Score, &rt.Review, &rt.CreatedAt, &rt.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over ratings: %w", err)
	}
	return ratings, nil
}
