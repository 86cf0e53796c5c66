package model

import (
	"maps"
	"math"
	"slices"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
)

// minCommonProducts is the smallest overlap Similarity will correlate over.
const minCommonProducts = 2

// Similarity returns the Pearson correlation of two users' ratings over the
// products both have rated. Each side is centered on the mean of its full
// rating map, not just the overlap.
//
// It returns 0 when the overlap has fewer than two products or when either
// side has zero variance over the overlap; 0 therefore also means "not enough
// data".
func Similarity(a, b domain.RatingMap) float64 {
	// Iterate in product order so repeated calls sum identically.
	common := make([]int64, 0, min(len(a), len(b)))
	for _, productID := range slices.Sorted(maps.Keys(a)) {
		if _, ok := b[productID]; ok {
			common = append(common, productID)
		}
	}
	if len(common) < minCommonProducts {
		return 0
	}

	meanA := mean(a)
	meanB := mean(b)

	var numerator, sumSqA, sumSqB float64
	for _, productID := range common {
		diffA := a[productID] - meanA
		diffB := b[productID] - meanB
		numerator += diffA * diffB
		sumSqA += diffA * diffA
		sumSqB += diffB * diffB
	}

	if sumSqA == 0 || sumSqB == 0 {
		return 0
	}

	sim := numerator / math.Sqrt(sumSqA*sumSqB)
	return math.Max(-1, math.Min(1, sim))
}

func mean(ratings domain.RatingMap) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, productID := range slices.Sorted(maps.Keys(ratings)) {
		sum += ratings[productID]
	}
	return sum / float64(len(ratings))
}
