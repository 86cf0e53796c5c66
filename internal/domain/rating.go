package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is a single user's score for a product. A (UserID, ProductID) pair
// has at most one Rating.
type Rating struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    int64     `json:"user_id" bson:"user_id"`
	ProductID int64     `json:"product_id" bson:"product_id"`
	Score     float64   `json:"rating" bson:"rating"`
	Review    string    `json:"review" bson:"review"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// RatingInput is a validated rating submission.
type RatingInput struct {
	UserID    int64   `json:"user_id" validate:"required,gt=0"`
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Score     float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Review    string  `json:"review" validate:"max=2000"`
}

// RatingMap maps product id to score for one user.
type RatingMap map[int64]float64

// NewRatingMap builds a RatingMap from a user's ratings.
func NewRatingMap(ratings []Rating) RatingMap {
	m := make(RatingMap, len(ratings))
	for _, r := range ratings {
		m[r.ProductID] = r.Score
	}
	return m
}

// ProductRatingStats is one row of a ratings aggregate grouped by product.
type ProductRatingStats struct {
	ProductID int64   `json:"product_id" bson:"_id"`
	AvgRating float64 `json:"avg_rating" bson:"avg_rating"`
	Count     int     `json:"count" bson:"count"`
}

// AggregateFilter restricts AggregateRatingsByProduct. A nil UserIDs means
// all users; ExcludeProductID 0 excludes nothing.
type AggregateFilter struct {
	UserIDs          []int64
	ExcludeProductID int64
}

// RatedProduct is a user's rating with the rated product attached. Product
// is nil when the product no longer exists.
type RatedProduct struct {
	Rating
	Product *Product `json:"product"`
}

// ProductReview is a rating on a product with the rating user attached.
type ProductReview struct {
	Rating
	User *UserSummary `json:"user"`
}

type RatingSummary struct {
	ProductID     int64           `json:"product_id"`
	TotalRatings  int             `json:"total_ratings"`
	AverageRating float64         `json:"average_rating"`
	Ratings       []ProductReview `json:"ratings"`
}
