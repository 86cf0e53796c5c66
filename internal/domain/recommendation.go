package domain

type RecommendationSource string

const (
	SourceCollaborative RecommendationSource = "collaborative"
	SourcePopular       RecommendationSource = "popular"
)

type Recommendation struct {
	ProductID       int64                `json:"product_id"`
	PredictedRating float64              `json:"predicted_rating"`
	Source          RecommendationSource `json:"source"`
	Product         *Product             `json:"product"`
}

type SimilarProduct struct {
	ProductID    int64    `json:"product_id"`
	CommonRaters int      `json:"common_raters"`
	AvgRating    float64  `json:"avg_rating"`
	Product      *Product `json:"product"`
}

// SimilarityScore is a candidate user's Pearson correlation with a target user.
type SimilarityScore struct {
	UserID     int64   `json:"user_id"`
	Similarity float64 `json:"similarity"`
}

type RecommendationMeta struct {
	CacheHit    bool   `json:"cache_hit"`
	GeneratedAt string `json:"generated_at"`
	TotalCount  int    `json:"total_count"`
}

type RecommendationResult struct {
	Recommendations []Recommendation
	CacheHit        bool
}

type SimilarProductsResult struct {
	Products []SimilarProduct
	CacheHit bool
}

type BatchStatus string

const (
	StatusSuccess BatchStatus = "success"
	StatusFailed  BatchStatus = "failed"
)

type BatchUserResult struct {
	UserID          int64            `json:"user_id"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Status          BatchStatus      `json:"status"`
	Error           string           `json:"error,omitempty"`
	Message         string           `json:"message,omitempty"`
}

type BatchSummary struct {
	SuccessCount     int   `json:"success_count"`
	FailedCount      int   `json:"failed_count"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

type BatchMeta struct {
	GeneratedAt string `json:"generated_at"`
}

type BatchResponse struct {
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalUsers int               `json:"total_users"`
	Results    []BatchUserResult `json:"results"`
	Summary    BatchSummary      `json:"summary"`
	Metadata   BatchMeta         `json:"metadata"`
}
