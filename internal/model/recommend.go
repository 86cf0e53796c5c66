package model

import (
	"context"
	"math"
	"sort"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
)

type productScore struct {
	weightedSum float64
	weightSum   float64
}

func (s productScore) predicted() float64 {
	if s.weightSum == 0 {
		return 0
	}
	return s.weightedSum / s.weightSum
}

type scoredProduct struct {
	productID int64
	score     float64
}

// Recommend predicts ratings for products userID has not rated from the
// ratings of its most similar users. Users without positively correlated
// neighbors, including users with no ratings, get the popularity ranking.
func (e *Engine) Recommend(ctx context.Context, userID int64, limit int) ([]domain.Recommendation, error) {
	if limit <= 0 {
		return []domain.Recommendation{}, nil
	}

	target, err := e.ratingMap(ctx, userID)
	if err != nil {
		return nil, err
	}

	neighbors, err := e.findNeighbors(ctx, userID, target, e.cfg.CandidatePoolSize)
	if err != nil {
		return nil, err
	}

	if len(neighbors) == 0 {
		return e.PopularProducts(ctx, limit, target)
	}

	scores := make(map[int64]*productScore)
	for _, n := range neighbors {
		for productID, rating := range n.ratings {
			if _, rated := target[productID]; rated {
				continue
			}
			s, ok := scores[productID]
			if !ok {
				s = &productScore{}
				scores[productID] = s
			}
			s.weightedSum += rating * n.similarity
			s.weightSum += math.Abs(n.similarity)
		}
	}

	ranked := make([]scoredProduct, 0, len(scores))
	for productID, s := range scores {
		ranked = append(ranked, scoredProduct{productID: productID, score: s.predicted()})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].productID < ranked[j].productID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	recs := make([]domain.Recommendation, 0, len(ranked))
	for _, sp := range ranked {
		product, err := e.productDetail(ctx, sp.productID)
		if err != nil {
			return nil, err
		}
		recs = append(recs, domain.Recommendation{
			ProductID:       sp.productID,
			PredictedRating: round2(sp.score),
			Source:          domain.SourceCollaborative,
			Product:         product,
		})
	}
	return recs, nil
}
