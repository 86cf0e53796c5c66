package model

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
)

const (
	defaultCandidatePoolSize = 10
	defaultMinPopularRatings = 2
	defaultFetchConcurrency  = 8
)

// Store is the read side of the rating store the engine works against.
type Store interface {
	GetRatingsByUser(ctx context.Context, userID int64) ([]domain.Rating, error)
	GetUserIDsExcept(ctx context.Context, userID int64) ([]int64, error)
	GetRatingsByProduct(ctx context.Context, productID int64) ([]domain.Rating, error)
	AggregateRatingsByProduct(ctx context.Context, filter domain.AggregateFilter) ([]domain.ProductRatingStats, error)
	GetProductByID(ctx context.Context, productID int64) (*domain.Product, error)
}

type Config struct {
	// CandidatePoolSize is the number of neighbors Recommend aggregates over,
	// regardless of the requested limit.
	CandidatePoolSize int
	// MinPopularRatings is the rating count a product needs to enter the
	// popularity fallback.
	MinPopularRatings int
	// FetchConcurrency bounds concurrent rating-map fetches in FindNeighbors.
	FetchConcurrency int
}

func DefaultConfig() Config {
	return Config{
		CandidatePoolSize: defaultCandidatePoolSize,
		MinPopularRatings: defaultMinPopularRatings,
		FetchConcurrency:  defaultFetchConcurrency,
	}
}

// Engine computes collaborative-filtering results from the current snapshot
// of the store. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	store Store
	cfg   Config
}

func NewEngine(store Store, cfg Config) *Engine {
	if cfg.CandidatePoolSize <= 0 {
		cfg.CandidatePoolSize = defaultCandidatePoolSize
	}
	if cfg.MinPopularRatings <= 0 {
		cfg.MinPopularRatings = defaultMinPopularRatings
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = defaultFetchConcurrency
	}
	return &Engine{store: store, cfg: cfg}
}

func (e *Engine) ratingMap(ctx context.Context, userID int64) (domain.RatingMap, error) {
	ratings, err := e.store.GetRatingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch ratings for user %d: %w", userID, err)
	}
	return domain.NewRatingMap(ratings), nil
}

// productDetail looks up a product, tolerating products deleted after they
// were rated.
func (e *Engine) productDetail(ctx context.Context, productID int64) (*domain.Product, error) {
	p, err := e.store.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch product %d: %w", productID, err)
	}
	return p, nil
}

// round2 rounds to 2 decimal places for display.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
