package cache

import (
	"context"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
)

// Nop is used when caching is disabled: every lookup misses and writes are
// dropped.
type Nop struct{}

func (Nop) Version(context.Context) (int64, error) { return 0, nil }
func (Nop) Invalidate(context.Context) error       { return nil }

func (Nop) GetRecommendations(context.Context, int64, int64, int) ([]domain.Recommendation, bool, error) {
	return nil, false, nil
}

func (Nop) SetRecommendations(context.Context, int64, int64, int, []domain.Recommendation) error {
	return nil
}

func (Nop) GetSimilarProducts(context.Context, int64, int64, int) ([]domain.SimilarProduct, bool, error) {
	return nil, false, nil
}

func (Nop) SetSimilarProducts(context.Context, int64, int64, int, []domain.SimilarProduct) error {
	return nil
}

func (Nop) GetSimilarUsers(context.Context, int64, int64, int) ([]domain.SimilarityScore, bool, error) {
	return nil, false, nil
}

func (Nop) SetSimilarUsers(context.Context, int64, int64, int, []domain.SimilarityScore) error {
	return nil
}
