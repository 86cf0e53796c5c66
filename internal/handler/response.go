package handler

import (
	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
	"github.com/actuallystonmai/product-recommendation-service/internal/validation"
)

type RecommendationResponse struct {
	UserID          int64                     `json:"user_id"`
	Recommendations []domain.Recommendation   `json:"recommendations"`
	Metadata        domain.RecommendationMeta `json:"metadata"`
}

type SimilarProductsResponse struct {
	ProductID       int64                     `json:"product_id"`
	SimilarProducts []domain.SimilarProduct   `json:"similar_products"`
	Metadata        domain.RecommendationMeta `json:"metadata"`
}

type SimilarUsersResponse struct {
	UserID       int64                    `json:"user_id"`
	SimilarUsers []domain.SimilarityScore `json:"similar_users"`
}

type RatingResponse struct {
	Message string         `json:"message"`
	Rating  *domain.Rating `json:"rating"`
}

type UserRatingsResponse struct {
	UserID  int64                 `json:"user_id"`
	Ratings []domain.RatedProduct `json:"ratings"`
}

type ErrorResponse struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}
