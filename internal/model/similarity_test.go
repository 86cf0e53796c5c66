package model

import (
	"math"
	"testing"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
)

const epsilon = 1e-9

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.RatingMap
		want float64
	}{
		{
			name: "empty maps",
			a:    domain.RatingMap{},
			b:    domain.RatingMap{},
			want: 0,
		},
		{
			name: "single common product",
			a:    domain.RatingMap{1: 5, 2: 1},
			b:    domain.RatingMap{1: 5, 3: 2},
			want: 0,
		},
		{
			name: "no overlap",
			a:    domain.RatingMap{1: 5, 2: 4},
			b:    domain.RatingMap{3: 3, 4: 1},
			want: 0,
		},
		{
			name: "perfect positive correlation",
			a:    domain.RatingMap{1: 5, 2: 3, 3: 1},
			b:    domain.RatingMap{1: 4, 2: 3, 3: 2},
			want: 1,
		},
		{
			name: "perfect negative correlation",
			a:    domain.RatingMap{1: 5, 2: 3, 3: 1},
			b:    domain.RatingMap{1: 1, 2: 3, 3: 5},
			want: -1,
		},
		{
			name: "constant ratings have zero variance",
			a:    domain.RatingMap{1: 5, 2: 5, 3: 5},
			b:    domain.RatingMap{1: 1, 2: 4, 3: 2},
			want: 0,
		},
		{
			// Centered on full-map means (10/3 and 4.5), not the overlap's.
			name: "means taken over full rating maps",
			a:    domain.RatingMap{1: 5, 2: 4, 3: 1},
			b:    domain.RatingMap{1: 5, 2: 4},
			want: 0.5 / math.Sqrt(29.0/18.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Similarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	maps := []domain.RatingMap{
		{},
		{1: 5},
		{1: 5, 2: 4},
		{1: 5, 2: 3, 3: 1, 4: 4},
		{1: 2, 2: 2, 3: 5},
		{1: 1, 3: 4, 4: 4, 5: 3},
		{2: 5, 3: 5, 5: 1},
	}

	for i, a := range maps {
		for j, b := range maps {
			ab := Similarity(a, b)
			ba := Similarity(b, a)
			if math.Abs(ab-ba) > epsilon {
				t.Errorf("maps %d,%d: Similarity(a,b)=%v, Similarity(b,a)=%v", i, j, ab, ba)
			}
			if ab < -1 || ab > 1 || math.IsNaN(ab) {
				t.Errorf("maps %d,%d: Similarity out of range: %v", i, j, ab)
			}
		}
	}
}

func TestSimilaritySelf(t *testing.T) {
	a := domain.RatingMap{1: 5, 2: 3, 3: 1, 4: 4}
	if got := Similarity(a, a); math.Abs(got-1) > epsilon {
		t.Errorf("Similarity(a, a) = %v, want 1", got)
	}
}

func TestSimilarityConstantRaterIgnoresOtherSide(t *testing.T) {
	constant := domain.RatingMap{1: 5, 2: 5, 3: 5}
	others := []domain.RatingMap{
		{1: 1, 2: 2, 3: 3},
		{1: 5, 2: 5, 3: 5},
		{1: 4, 2: 1},
	}
	for _, b := range others {
		if got := Similarity(constant, b); got != 0 {
			t.Errorf("Similarity(constant, %v) = %v, want 0", b, got)
		}
	}
}
