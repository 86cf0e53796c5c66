package model

import (
	"context"
	"fmt"
	"sort"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// neighbor is a positively correlated user together with the rating map the
// similarity was computed from, so Recommend does not fetch it twice.
type neighbor struct {
	userID     int64
	similarity float64
	ratings    domain.RatingMap
}

// FindNeighbors ranks every other rated user by similarity to userID and
// returns at most maxNeighbors of them, most similar first. Only users with a
// similarity strictly greater than 0 are returned.
func (e *Engine) FindNeighbors(ctx context.Context, userID int64, maxNeighbors int) ([]domain.SimilarityScore, error) {
	target, err := e.ratingMap(ctx, userID)
	if err != nil {
		return nil, err
	}

	neighbors, err := e.findNeighbors(ctx, userID, target, maxNeighbors)
	if err != nil {
		return nil, err
	}

	scores := make([]domain.SimilarityScore, len(neighbors))
	for i, n := range neighbors {
		scores[i] = domain.SimilarityScore{UserID: n.userID, Similarity: n.similarity}
	}
	return scores, nil
}

func (e *Engine) findNeighbors(ctx context.Context, userID int64, target domain.RatingMap, maxNeighbors int) ([]neighbor, error) {
	if len(target) == 0 || maxNeighbors <= 0 {
		return nil, nil
	}

	candidates, err := e.store.GetUserIDsExcept(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate users: %w", err)
	}

	// Fetch every candidate's ratings concurrently. Results land at the
	// candidate's index so ordering is independent of completion order.
	ratingMaps := make([]domain.RatingMap, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.FetchConcurrency)
	for i, candidateID := range candidates {
		g.Go(func() error {
			m, err := e.ratingMap(gctx, candidateID)
			if err != nil {
				return err
			}
			ratingMaps[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch neighbor ratings: %w", err)
	}

	neighbors := make([]neighbor, 0, len(candidates))
	for i, candidateID := range candidates {
		if len(ratingMaps[i]) == 0 {
			continue
		}
		sim := Similarity(target, ratingMaps[i])
		if sim <= 0 {
			continue
		}
		neighbors = append(neighbors, neighbor{
			userID:     candidateID,
			similarity: sim,
			ratings:    ratingMaps[i],
		})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].similarity > neighbors[j].similarity
	})

	if len(neighbors) > maxNeighbors {
		neighbors = neighbors[:maxNeighbors]
	}
	return neighbors, nil
}
