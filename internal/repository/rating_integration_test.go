//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Run with a throwaway database:
//
//	TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/repository/...
//
// Each test gets its own schema, dropped on cleanup.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(admin.Close)

	schema := fmt.Sprintf("rec_test_%d", time.Now().UnixNano())
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		if _, err := admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect to schema: %v", err)
	}
	t.Cleanup(pool.Close)

	migration, err := os.ReadFile("../../migrations/create_tables.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(migration)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	for id := int64(1); id <= 3; id++ {
		if _, err := pool.Exec(ctx, `INSERT INTO users (id, name) VALUES ($1, $2)`, id, fmt.Sprintf("user %d", id)); err != nil {
			t.Fatalf("seed user %d: %v", id, err)
		}
	}
	for id := int64(1); id <= 3; id++ {
		if _, err := pool.Exec(ctx, `INSERT INTO products (id, title) VALUES ($1, $2)`, id, fmt.Sprintf("product %d", id)); err != nil {
			t.Fatalf("seed product %d: %v", id, err)
		}
	}
	return NewRepository(pool)
}

func TestUpsertRatingRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first, created, err := repo.UpsertRating(ctx, domain.RatingInput{UserID: 1, ProductID: 2, Score: 4, Review: "good"})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Error("first upsert: created = false, want true")
	}
	if first.ID == "" || first.Score != 4 || first.Review != "good" {
		t.Errorf("first upsert returned %+v", first)
	}

	second, created, err := repo.UpsertRating(ctx, domain.RatingInput{UserID: 1, ProductID: 2, Score: 2, Review: "changed my mind"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Error("second upsert: created = true, want false")
	}
	if second.ID != first.ID {
		t.Errorf("second upsert id = %s, want %s", second.ID, first.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at moved from %v to %v", first.CreatedAt, second.CreatedAt)
	}

	ratings, err := repo.GetRatingsByUser(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ratings) != 1 || ratings[0].Score != 2 || ratings[0].Review != "changed my mind" {
		t.Errorf("stored ratings = %+v, want one row with score 2", ratings)
	}

	deleted, err := repo.DeleteRating(ctx, first.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = repo.DeleteRating(ctx, first.ID)
	if err != nil || deleted {
		t.Errorf("second delete: deleted=%v err=%v", deleted, err)
	}
}

func TestAggregateRatingsByProductFilters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, in := range []domain.RatingInput{
		{UserID: 1, ProductID: 1, Score: 5},
		{UserID: 1, ProductID: 2, Score: 3},
		{UserID: 2, ProductID: 1, Score: 4},
		{UserID: 2, ProductID: 3, Score: 2},
		{UserID: 3, ProductID: 1, Score: 1},
	} {
		if _, _, err := repo.UpsertRating(ctx, in); err != nil {
			t.Fatalf("seed rating: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter domain.AggregateFilter
		want   []domain.ProductRatingStats
	}{
		{
			name:   "nil users means everyone",
			filter: domain.AggregateFilter{},
			want: []domain.ProductRatingStats{
				{ProductID: 1, AvgRating: 10.0 / 3, Count: 3},
				{ProductID: 2, AvgRating: 3, Count: 1},
				{ProductID: 3, AvgRating: 2, Count: 1},
			},
		},
		{
			name:   "empty users means nobody",
			filter: domain.AggregateFilter{UserIDs: []int64{}},
			want:   []domain.ProductRatingStats{},
		},
		{
			name:   "restricted to users",
			filter: domain.AggregateFilter{UserIDs: []int64{1, 2}},
			want: []domain.ProductRatingStats{
				{ProductID: 1, AvgRating: 4.5, Count: 2},
				{ProductID: 2, AvgRating: 3, Count: 1},
				{ProductID: 3, AvgRating: 2, Count: 1},
			},
		},
		{
			name:   "excluded product",
			filter: domain.AggregateFilter{UserIDs: []int64{1, 2}, ExcludeProductID: 1},
			want: []domain.ProductRatingStats{
				{ProductID: 2, AvgRating: 3, Count: 1},
				{ProductID: 3, AvgRating: 2, Count: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.AggregateRatingsByProduct(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			for i := range got {
				g, w := got[i], tt.want[i]
				if g.ProductID != w.ProductID || g.Count != w.Count || !closeTo(g.AvgRating, w.AvgRating) {
					t.Errorf("row %d = %+v, want %+v", i, g, w)
				}
			}
		})
	}
}

func closeTo(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
