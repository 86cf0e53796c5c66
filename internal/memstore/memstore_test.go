package memstore

import (
	"context"
	"testing"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
)

func TestUpsertRatingReplacesExisting(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, created, err := s.UpsertRating(ctx, domain.RatingInput{UserID: 1, ProductID: 10, Score: 2, Review: "meh"})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Error("first upsert should create")
	}

	second, created, err := s.UpsertRating(ctx, domain.RatingInput{UserID: 1, ProductID: 10, Score: 5})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Error("second upsert should update")
	}
	if second.ID != first.ID {
		t.Errorf("expected same rating id, got %s and %s", first.ID, second.ID)
	}

	ratings, err := s.GetRatingsByUser(ctx, 1)
	if err != nil {
		t.Fatalf("GetRatingsByUser: %v", err)
	}
	if len(ratings) != 1 {
		t.Fatalf("expected 1 rating row, got %d", len(ratings))
	}
	if ratings[0].Score != 5 {
		t.Errorf("expected score 5, got %v", ratings[0].Score)
	}
	if ratings[0].Review != "" {
		t.Errorf("expected review reset, got %q", ratings[0].Review)
	}
}

func TestDeleteRating(t *testing.T) {
	ctx := context.Background()
	s := New()

	r, _, err := s.UpsertRating(ctx, domain.RatingInput{UserID: 1, ProductID: 10, Score: 3})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ok, err := s.DeleteRating(ctx, r.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteRating = %v, %v; want true, nil", ok, err)
	}

	ok, err = s.DeleteRating(ctx, r.ID)
	if err != nil || ok {
		t.Errorf("second DeleteRating = %v, %v; want false, nil", ok, err)
	}

	// The (user, product) slot is free again.
	_, created, err := s.UpsertRating(ctx, domain.RatingInput{UserID: 1, ProductID: 10, Score: 4})
	if err != nil || !created {
		t.Errorf("re-insert after delete: created=%v err=%v", created, err)
	}
}

func TestAggregateRatingsByProduct(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, in := range []domain.RatingInput{
		{UserID: 1, ProductID: 10, Score: 5},
		{UserID: 2, ProductID: 10, Score: 3},
		{UserID: 1, ProductID: 20, Score: 4},
		{UserID: 3, ProductID: 20, Score: 2},
		{UserID: 3, ProductID: 30, Score: 1},
	} {
		if _, _, err := s.UpsertRating(ctx, in); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter domain.AggregateFilter
		want   map[int64]domain.ProductRatingStats
	}{
		{
			name:   "all ratings",
			filter: domain.AggregateFilter{},
			want: map[int64]domain.ProductRatingStats{
				10: {ProductID: 10, AvgRating: 4, Count: 2},
				20: {ProductID: 20, AvgRating: 3, Count: 2},
				30: {ProductID: 30, AvgRating: 1, Count: 1},
			},
		},
		{
			name:   "restricted to users, excluding product",
			filter: domain.AggregateFilter{UserIDs: []int64{1, 3}, ExcludeProductID: 20},
			want: map[int64]domain.ProductRatingStats{
				10: {ProductID: 10, AvgRating: 5, Count: 1},
				30: {ProductID: 30, AvgRating: 1, Count: 1},
			},
		},
		{
			name:   "empty user set matches nothing",
			filter: domain.AggregateFilter{UserIDs: []int64{}},
			want:   map[int64]domain.ProductRatingStats{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.AggregateRatingsByProduct(ctx, tt.filter)
			if err != nil {
				t.Fatalf("AggregateRatingsByProduct: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d groups, want %d: %+v", len(got), len(tt.want), got)
			}
			for _, g := range got {
				if g != tt.want[g.ProductID] {
					t.Errorf("group %d = %+v, want %+v", g.ProductID, g, tt.want[g.ProductID])
				}
			}
		})
	}
}

func TestGetProductByIDMissing(t *testing.T) {
	s := New()
	if _, err := s.GetProductByID(context.Background(), 99); err != domain.ErrProductNotFound {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}
