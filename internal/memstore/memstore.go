// Package memstore is an in-process rating store. It backs the "memory"
// store driver and the engine and service tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
	"github.com/google/uuid"
)

type ratingKey struct {
	userID    int64
	productID int64
}

type Store struct {
	mu       sync.RWMutex
	users    map[int64]domain.User
	products map[int64]domain.Product
	ratings  map[string]*domain.Rating
	byKey    map[ratingKey]string
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[int64]domain.User),
		products: make(map[int64]domain.Product),
		ratings:  make(map[string]*domain.Rating),
		byKey:    make(map[ratingKey]string),
		now:      time.Now,
	}
}

func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) AddProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// PutUsers registers users in bulk.
func (s *Store) PutUsers(ctx context.Context, users []domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, u := range users {
		s.AddUser(u)
	}
	return nil
}

// PutProducts registers products in bulk.
func (s *Store) PutProducts(ctx context.Context, products []domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, p := range products {
		s.AddProduct(p)
	}
	return nil
}

func (s *Store) RemoveProduct(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, productID)
}

func (s *Store) RemoveUser(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// UpsertRating inserts a rating or replaces the score and review of the
// existing rating for the same user and product. Users referenced by a rating
// are registered implicitly.
func (s *Store) UpsertRating(ctx context.Context, in domain.RatingInput) (*domain.Rating, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[in.UserID]; !ok {
		s.users[in.UserID] = domain.User{ID: in.UserID, CreatedAt: s.now()}
	}

	now := s.now()
	key := ratingKey{userID: in.UserID, productID: in.ProductID}
	if id, ok := s.byKey[key]; ok {
		r := s.ratings[id]
		r.Score = in.Score
		r.Review = in.Review
		r.UpdatedAt = now
		out := *r
		return &out, false, nil
	}

	r := &domain.Rating{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		ProductID: in.ProductID,
		Score:     in.Score,
		Review:    in.Review,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.ratings[r.ID] = r
	s.byKey[key] = r.ID
	out := *r
	return &out, true, nil
}

func (s *Store) DeleteRating(ctx context.Context, ratingID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.ratings[ratingID]
	if !ok {
		return false, nil
	}
	delete(s.byKey, ratingKey{userID: r.UserID, productID: r.ProductID})
	delete(s.ratings, ratingID)
	return true, nil
}

// GetRatingsByUser returns the user's ratings, newest first.
func (s *Store) GetRatingsByUser(ctx context.Context, userID int64) ([]domain.Rating, error) {
	return s.filterRatings(ctx, func(r *domain.Rating) bool { return r.UserID == userID })
}

// GetRatingsByProduct returns the product's ratings, newest first.
func (s *Store) GetRatingsByProduct(ctx context.Context, productID int64) ([]domain.Rating, error) {
	return s.filterRatings(ctx, func(r *domain.Rating) bool { return r.ProductID == productID })
}

func (s *Store) filterRatings(ctx context.Context, keep func(*domain.Rating) bool) ([]domain.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Rating{}
	for _, r := range s.ratings {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetUserIDsExcept returns every known user other than userID, in id order.
func (s *Store) GetUserIDsExcept(ctx context.Context, userID int64) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		if id != userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) AggregateRatingsByProduct(ctx context.Context, filter domain.AggregateFilter) ([]domain.ProductRatingStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allowed map[int64]struct{}
	if filter.UserIDs != nil {
		allowed = make(map[int64]struct{}, len(filter.UserIDs))
		for _, id := range filter.UserIDs {
			allowed[id] = struct{}{}
		}
	}

	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[int64]*acc)
	for _, r := range s.ratings {
		if filter.ExcludeProductID != 0 && r.ProductID == filter.ExcludeProductID {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[r.UserID]; !ok {
				continue
			}
		}
		a, ok := groups[r.ProductID]
		if !ok {
			a = &acc{}
			groups[r.ProductID] = a
		}
		a.sum += r.Score
		a.count++
	}

	stats := make([]domain.ProductRatingStats, 0, len(groups))
	for productID, a := range groups {
		stats = append(stats, domain.ProductRatingStats{
			ProductID: productID,
			AvgRating: a.sum / float64(a.count),
			Count:     a.count,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].ProductID < stats[j].ProductID })
	return stats, nil
}

func (s *Store) GetProductByID(ctx context.Context, productID int64) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) GetUserIDsPaginated(ctx context.Context, page, limit int) ([]int64, error) {
	ids, err := s.GetUserIDsExcept(ctx, 0)
	if err != nil {
		return nil, err
	}
	offset := (page - 1) * limit
	if offset >= len(ids) || offset < 0 {
		return []int64{}, nil
	}
	end := min(offset+limit, len(ids))
	return ids[offset:end], nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}
