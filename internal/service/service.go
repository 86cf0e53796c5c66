package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
	"github.com/actuallystonmai/product-recommendation-service/internal/logging"
	"github.com/actuallystonmai/product-recommendation-service/internal/metrics"
	"github.com/actuallystonmai/product-recommendation-service/internal/model"
	"github.com/actuallystonmai/product-recommendation-service/internal/validation"
	"github.com/rs/zerolog"
)

const (
	DefaultLimit     = 5
	MaxLimit         = 50
	batchConcurrency = 10
	batchRecLimit    = 10
)

// Store is the full rating store: the engine's read side plus writes and
// user lookups.
type Store interface {
	model.Store
	GetUserByID(ctx context.Context, userID int64) (*domain.User, error)
	UpsertRating(ctx context.Context, in domain.RatingInput) (*domain.Rating, bool, error)
	DeleteRating(ctx context.Context, ratingID string) (bool, error)
	GetUserIDsPaginated(ctx context.Context, page, limit int) ([]int64, error)
	CountUsers(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// ResultCache stores computed results under a ratings version; Invalidate
// moves to a new version.
type ResultCache interface {
	Version(ctx context.Context) (int64, error)
	Invalidate(ctx context.Context) error
	GetRecommendations(ctx context.Context, version, userID int64, limit int) ([]domain.Recommendation, bool, error)
	SetRecommendations(ctx context.Context, version, userID int64, limit int, recs []domain.Recommendation) error
	GetSimilarProducts(ctx context.Context, version, productID int64, limit int) ([]domain.SimilarProduct, bool, error)
	SetSimilarProducts(ctx context.Context, version, productID int64, limit int, products []domain.SimilarProduct) error
	GetSimilarUsers(ctx context.Context, version, userID int64, limit int) ([]domain.SimilarityScore, bool, error)
	SetSimilarUsers(ctx context.Context, version, userID int64, limit int, scores []domain.SimilarityScore) error
}

type Service struct {
	store  Store
	cache  ResultCache
	engine *model.Engine
	log    zerolog.Logger
}

func NewService(store Store, cache ResultCache, engine *model.Engine) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		engine: engine,
		log:    logging.With().Str("component", "service").Logger(),
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// cacheVersion returns the ratings version and whether the cache is usable
// for this request.
func (s *Service) cacheVersion(ctx context.Context) (int64, bool) {
	v, err := s.cache.Version(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("cache version lookup failed")
		return 0, false
	}
	return v, true
}

func (s *Service) GetRecommendations(ctx context.Context, userID int64, limit int) (result *domain.RecommendationResult, err error) {
	defer func(start time.Time) { metrics.ObserveOperation("recommendations", start, err) }(time.Now())
	limit = clampLimit(limit)

	// Check Cache
	version, cacheOK := s.cacheVersion(ctx)
	if cacheOK {
		cached, found, err := s.cache.GetRecommendations(ctx, version, userID, limit)
		if err != nil {
			s.log.Warn().Err(err).Int64("user_id", userID).Msg("cache get error")
		}
		if found {
			metrics.CacheHits.WithLabelValues("recommendations").Inc()
			return &domain.RecommendationResult{Recommendations: cached, CacheHit: true}, nil
		}
		metrics.CacheMisses.WithLabelValues("recommendations").Inc()
	}

	// Cache miss -> generate recommendations
	recs, err := s.engine.Recommend(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("generate recommendations for user %d: %w", userID, err)
	}
	metrics.RecommendationsServed.WithLabelValues(recommendationSource(recs)).Inc()

	if cacheOK {
		if err := s.cache.SetRecommendations(ctx, version, userID, limit, recs); err != nil {
			s.log.Warn().Err(err).Int64("user_id", userID).Msg("cache set error")
		}
	}

	return &domain.RecommendationResult{Recommendations: recs}, nil
}

func recommendationSource(recs []domain.Recommendation) string {
	if len(recs) == 0 {
		return "empty"
	}
	return string(recs[0].Source)
}

func (s *Service) GetSimilarProducts(ctx context.Context, productID int64, limit int) (result *domain.SimilarProductsResult, err error) {
	defer func(start time.Time) { metrics.ObserveOperation("similar_products", start, err) }(time.Now())
	limit = clampLimit(limit)

	version, cacheOK := s.cacheVersion(ctx)
	if cacheOK {
		cached, found, err := s.cache.GetSimilarProducts(ctx, version, productID, limit)
		if err != nil {
			s.log.Warn().Err(err).Int64("product_id", productID).Msg("cache get error")
		}
		if found {
			metrics.CacheHits.WithLabelValues("similar_products").Inc()
			return &domain.SimilarProductsResult{Products: cached, CacheHit: true}, nil
		}
		metrics.CacheMisses.WithLabelValues("similar_products").Inc()
	}

	products, err := s.engine.SimilarItems(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("similar products for %d: %w", productID, err)
	}

	if cacheOK {
		if err := s.cache.SetSimilarProducts(ctx, version, productID, limit, products); err != nil {
			s.log.Warn().Err(err).Int64("product_id", productID).Msg("cache set error")
		}
	}

	return &domain.SimilarProductsResult{Products: products}, nil
}

// FindSimilarUsers exposes the neighbor ranking for diagnostics.
func (s *Service) FindSimilarUsers(ctx context.Context, userID int64, limit int) (scores []domain.SimilarityScore, err error) {
	defer func(start time.Time) { metrics.ObserveOperation("similar_users", start, err) }(time.Now())
	limit = clampLimit(limit)

	version, cacheOK := s.cacheVersion(ctx)
	if cacheOK {
		cached, found, err := s.cache.GetSimilarUsers(ctx, version, userID, limit)
		if err != nil {
			s.log.Warn().Err(err).Int64("user_id", userID).Msg("cache get error")
		}
		if found {
			metrics.CacheHits.WithLabelValues("similar_users").Inc()
			return cached, nil
		}
		metrics.CacheMisses.WithLabelValues("similar_users").Inc()
	}

	scores, err = s.engine.FindNeighbors(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("similar users for %d: %w", userID, err)
	}
	metrics.NeighborsFound.Observe(float64(len(scores)))

	if cacheOK {
		if err := s.cache.SetSimilarUsers(ctx, version, userID, limit, scores); err != nil {
			s.log.Warn().Err(err).Int64("user_id", userID).Msg("cache set error")
		}
	}
	return scores, nil
}

// SubmitRating validates and upserts a rating, then invalidates cached
// results. created reports whether a new rating was inserted.
func (s *Service) SubmitRating(ctx context.Context, in domain.RatingInput) (rating *domain.Rating, created bool, err error) {
	defer func(start time.Time) { metrics.ObserveOperation("submit_rating", start, err) }(time.Now())

	if err := validation.Struct(&in); err != nil {
		return nil, false, err
	}

	if _, err := s.store.GetUserByID(ctx, in.UserID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("fetch user: %w", err)
	}
	if _, err := s.store.GetProductByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("fetch product: %w", err)
	}

	rating, created, err = s.store.UpsertRating(ctx, in)
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.RatingWrites.WithLabelValues("created").Inc()
	} else {
		metrics.RatingWrites.WithLabelValues("updated").Inc()
	}
	s.invalidate(ctx)

	return rating, created, nil
}

func (s *Service) DeleteRating(ctx context.Context, ratingID string) (err error) {
	defer func(start time.Time) { metrics.ObserveOperation("delete_rating", start, err) }(time.Now())

	deleted, err := s.store.DeleteRating(ctx, ratingID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrRatingNotFound
	}

	metrics.RatingWrites.WithLabelValues("deleted").Inc()
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Error().Err(err).Msg("cache invalidation error")
	}
}

// GetUserRatings lists a user's ratings, newest first, each with the rated
// product. A rating whose product has been removed keeps a nil product.
func (s *Service) GetUserRatings(ctx context.Context, userID int64) ([]domain.RatedProduct, error) {
	ratings, err := s.store.GetRatingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch ratings for user %d: %w", userID, err)
	}

	products := make(map[int64]*domain.Product, len(ratings))
	listing := make([]domain.RatedProduct, 0, len(ratings))
	for _, r := range ratings {
		p, seen := products[r.ProductID]
		if !seen {
			p, err = s.store.GetProductByID(ctx, r.ProductID)
			if errors.Is(err, domain.ErrProductNotFound) {
				p, err = nil, nil
			}
			if err != nil {
				return nil, fmt.Errorf("fetch product %d: %w", r.ProductID, err)
			}
			products[r.ProductID] = p
		}
		listing = append(listing, domain.RatedProduct{Rating: r, Product: p})
	}
	return listing, nil
}

// GetProductRatings lists a product's ratings with their count, average and
// the rating users. A rating whose user has been removed keeps a nil user.
func (s *Service) GetProductRatings(ctx context.Context, productID int64) (*domain.RatingSummary, error) {
	ratings, err := s.store.GetRatingsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("fetch ratings for product %d: %w", productID, err)
	}

	summary := &domain.RatingSummary{
		ProductID:    productID,
		TotalRatings: len(ratings),
		Ratings:      make([]domain.ProductReview, 0, len(ratings)),
	}
	var sum float64
	for _, r := range ratings {
		sum += r.Score

		review := domain.ProductReview{Rating: r}
		u, err := s.store.GetUserByID(ctx, r.UserID)
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
		case err != nil:
			return nil, fmt.Errorf("fetch user %d: %w", r.UserID, err)
		default:
			review.User = u.Summary()
		}
		summary.Ratings = append(summary.Ratings, review)
	}
	if len(ratings) > 0 {
		summary.AverageRating = math.Round(sum/float64(len(ratings))*100) / 100
	}
	return summary, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) GetBatchRecommendations(ctx context.Context, page, limit int) (*domain.BatchResponse, error) {
	start := time.Now()

	// Fetch paginated user IDs
	userIDs, err := s.store.GetUserIDsPaginated(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch user ids: %w", err)
	}

	// Fetch total user
	totalUsers, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count user: %w", err)
	}

	// Process users concurrently with bounded worker pool
	results := make([]domain.BatchUserResult, len(userIDs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, batchConcurrency) // semaphore

	for i, userID := range userIDs {
		wg.Add(1)
		go func(idx int, uid int64) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			results[idx] = s.processUserForBatch(ctx, uid)
		}(i, userID)
	}
	wg.Wait()

	// summary
	successCount := 0
	failedCount := 0
	for _, r := range results {
		if r.Status == domain.StatusSuccess {
			successCount++
		} else {
			failedCount++
		}
	}

	return &domain.BatchResponse{
		Page:       page,
		Limit:      limit,
		TotalUsers: totalUsers,
		Results:    results,
		Summary: domain.BatchSummary{
			SuccessCount:     successCount,
			FailedCount:      failedCount,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		},
		Metadata: domain.BatchMeta{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// Generates recommendations for a single user, capturing errors.
func (s *Service) processUserForBatch(ctx context.Context, userID int64) domain.BatchUserResult {
	result, err := s.GetRecommendations(ctx, userID, batchRecLimit)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("batch: recommendation failed")
		code, msg := categorizeError(err)
		return domain.BatchUserResult{
			UserID:  userID,
			Status:  domain.StatusFailed,
			Error:   code,
			Message: msg,
		}
	}

	return domain.BatchUserResult{
		UserID:          userID,
		Recommendations: result.Recommendations,
		Status:          domain.StatusSuccess,
	}
}

// Handle response error
func categorizeError(err error) (string, string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "request_timeout", "request timed out"
	}
	return "internal_error", "an unexpected error occurred"
}
