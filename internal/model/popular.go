package model

import (
	"context"
	"fmt"
	"sort"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
)

// PopularProducts ranks products with at least MinPopularRatings ratings by
// average rating, then by rating count, skipping products in exclude.
func (e *Engine) PopularProducts(ctx context.Context, limit int, exclude domain.RatingMap) ([]domain.Recommendation, error) {
	if limit <= 0 {
		return []domain.Recommendation{}, nil
	}

	stats, err := e.store.AggregateRatingsByProduct(ctx, domain.AggregateFilter{})
	if err != nil {
		return nil, fmt.Errorf("aggregate product ratings: %w", err)
	}

	popular := make([]domain.ProductRatingStats, 0, len(stats))
	for _, s := range stats {
		if s.Count < e.cfg.MinPopularRatings {
			continue
		}
		if _, rated := exclude[s.ProductID]; rated {
			continue
		}
		popular = append(popular, s)
	}

	sort.Slice(popular, func(i, j int) bool {
		if popular[i].AvgRating != popular[j].AvgRating {
			return popular[i].AvgRating > popular[j].AvgRating
		}
		if popular[i].Count != popular[j].Count {
			return popular[i].Count > popular[j].Count
		}
		return popular[i].ProductID < popular[j].ProductID
	})
	if len(popular) > limit {
		popular = popular[:limit]
	}

	recs := make([]domain.Recommendation, 0, len(popular))
	for _, s := range popular {
		product, err := e.productDetail(ctx, s.ProductID)
		if err != nil {
			return nil, err
		}
		recs = append(recs, domain.Recommendation{
			ProductID:       s.ProductID,
			PredictedRating: round2(s.AvgRating),
			Source:          domain.SourcePopular,
			Product:         product,
		})
	}
	return recs, nil
}
