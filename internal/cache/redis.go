package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
	"github.com/actuallystonmai/product-recommendation-service/internal/logging"
	"github.com/actuallystonmai/product-recommendation-service/internal/metrics"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	defaultTTL = 10 * time.Minute

	// versionKey is bumped on every rating write. Result keys embed the
	// version they were computed under, so one INCR invalidates every user's
	// cached results without scanning.
	versionKey = "rec:ratings:version"

	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[any]
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		client:  client,
		ttl:     ttl,
		breaker: newBreaker(),
	}
}

func newBreaker() *gobreaker.CircuitBreaker[any] {
	log := logging.With().Str("component", "cache").Logger()
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				metrics.CacheBreakerState.Set(1)
			} else {
				metrics.CacheBreakerState.Set(0)
			}
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("cache circuit breaker state changed")
		},
	})
}

// breakerSuccess reports whether err leaves the breaker's failure count
// alone: cache misses and requests canceled or timed out by the caller.
func breakerSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, redis.Nil) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func recommendationsKey(version, userID int64, limit int) string {
	return fmt.Sprintf("rec:v%d:user:%d:limit:%d", version, userID, limit)
}

func similarProductsKey(version, productID int64, limit int) string {
	return fmt.Sprintf("rec:v%d:product:%d:limit:%d", version, productID, limit)
}

func similarUsersKey(version, userID int64, limit int) string {
	return fmt.Sprintf("rec:v%d:neighbors:%d:limit:%d", version, userID, limit)
}

// Version returns the current ratings version. Read it before computing a
// result and store the result under that version.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	v, err := c.breaker.Execute(func() (any, error) {
		return c.client.Get(ctx, versionKey).Int64()
	})
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get ratings version: %w", err)
	}
	return v.(int64), nil
}

// Invalidate makes every cached result stale. Called after rating writes.
func (c *Cache) Invalidate(ctx context.Context) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return c.client.Incr(ctx, versionKey).Result()
	})
	if err != nil {
		return fmt.Errorf("failed to bump ratings version: %w", err)
	}
	return nil
}

// Get recommendations from cache
func (c *Cache) GetRecommendations(ctx context.Context, version, userID int64, limit int) ([]domain.Recommendation, bool, error) {
	var recs []domain.Recommendation
	found, err := c.getJSON(ctx, recommendationsKey(version, userID, limit), &recs)
	return recs, found, err
}

// Store recommendations in cache
func (c *Cache) SetRecommendations(ctx context.Context, version, userID int64, limit int, recs []domain.Recommendation) error {
	return c.setJSON(ctx, recommendationsKey(version, userID, limit), recs)
}

func (c *Cache) GetSimilarProducts(ctx context.Context, version, productID int64, limit int) ([]domain.SimilarProduct, bool, error) {
	var products []domain.SimilarProduct
	found, err := c.getJSON(ctx, similarProductsKey(version, productID, limit), &products)
	return products, found, err
}

func (c *Cache) SetSimilarProducts(ctx context.Context, version, productID int64, limit int, products []domain.SimilarProduct) error {
	return c.setJSON(ctx, similarProductsKey(version, productID, limit), products)
}

func (c *Cache) GetSimilarUsers(ctx context.Context, version, userID int64, limit int) ([]domain.SimilarityScore, bool, error) {
	var scores []domain.SimilarityScore
	found, err := c.getJSON(ctx, similarUsersKey(version, userID, limit), &scores)
	return scores, found, err
}

func (c *Cache) SetSimilarUsers(ctx context.Context, version, userID int64, limit int, scores []domain.SimilarityScore) error {
	return c.setJSON(ctx, similarUsersKey(version, userID, limit), scores)
}

func (c *Cache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.breaker.Execute(func() (any, error) {
		return c.client.Get(ctx, key).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}

	if err := json.Unmarshal(val.([]byte), dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) setJSON(ctx context.Context, key string, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	_, err = c.breaker.Execute(func() (any, error) {
		return nil, c.client.Set(ctx, key, val, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to set %s in cache: %w", key, err)
	}
	return nil
}

// Ping connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
