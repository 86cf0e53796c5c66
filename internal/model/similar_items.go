package model

import (
	"context"
	"fmt"
	"sort"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
)

// SimilarItems returns the products most often co-rated with productID: among
// the users who rated productID, which other products did they rate. The
// score given to productID itself plays no part.
func (e *Engine) SimilarItems(ctx context.Context, productID int64, limit int) ([]domain.SimilarProduct, error) {
	if limit <= 0 {
		return []domain.SimilarProduct{}, nil
	}

	seedRatings, err := e.store.GetRatingsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("fetch raters of product %d: %w", productID, err)
	}
	if len(seedRatings) == 0 {
		return []domain.SimilarProduct{}, nil
	}

	seen := make(map[int64]struct{}, len(seedRatings))
	raters := make([]int64, 0, len(seedRatings))
	for _, r := range seedRatings {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		raters = append(raters, r.UserID)
	}

	stats, err := e.store.AggregateRatingsByProduct(ctx, domain.AggregateFilter{
		UserIDs:          raters,
		ExcludeProductID: productID,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate co-rated products: %w", err)
	}

	coRated := make([]domain.ProductRatingStats, 0, len(stats))
	for _, s := range stats {
		if s.ProductID == productID {
			continue
		}
		coRated = append(coRated, s)
	}

	sort.Slice(coRated, func(i, j int) bool {
		if coRated[i].Count != coRated[j].Count {
			return coRated[i].Count > coRated[j].Count
		}
		if coRated[i].AvgRating != coRated[j].AvgRating {
			return coRated[i].AvgRating > coRated[j].AvgRating
		}
		return coRated[i].ProductID < coRated[j].ProductID
	})
	if len(coRated) > limit {
		coRated = coRated[:limit]
	}

	similar := make([]domain.SimilarProduct, 0, len(coRated))
	for _, s := range coRated {
		product, err := e.productDetail(ctx, s.ProductID)
		if err != nil {
			return nil, err
		}
		similar = append(similar, domain.SimilarProduct{
			ProductID:    s.ProductID,
			CommonRaters: s.Count,
			AvgRating:    round2(s.AvgRating),
			Product:      product,
		})
	}
	return similar, nil
}
