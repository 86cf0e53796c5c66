package seeds

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
	"github.com/actuallystonmai/product-recommendation-service/internal/logging"
)

// Sink is a store that accepts a catalog through its public write path.
type Sink interface {
	PutUsers(ctx context.Context, users []domain.User) error
	PutProducts(ctx context.Context, products []domain.Product) error
	UpsertRating(ctx context.Context, in domain.RatingInput) (*domain.Rating, bool, error)
}

// Load writes ds into sink. Ratings go through UpsertRating, so loading the
// same dataset twice leaves one rating per pair.
func Load(ctx context.Context, sink Sink, ds *Dataset) error {
	if err := sink.PutUsers(ctx, ds.Users); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if err := sink.PutProducts(ctx, ds.Products); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	for _, r := range ds.Ratings {
		if _, _, err := sink.UpsertRating(ctx, r); err != nil {
			return fmt.Errorf("seed rating user=%d product=%d: %w", r.UserID, r.ProductID, err)
		}
	}

	logging.Info().
		Int("users", len(ds.Users)).
		Int("products", len(ds.Products)).
		Int("ratings", len(ds.Ratings)).
		Msg("seed data loaded")
	return nil
}
