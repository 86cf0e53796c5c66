package handler

import (
	"encoding/json"
	"net/http"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

const maxRatingBody = 16 << 10

// POST /api/ratings
func (h *Handler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	var in domain.RatingInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRatingBody))
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be a JSON rating")
		return
	}

	rating, created, err := h.service.SubmitRating(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if created {
		writeJSON(w, http.StatusCreated, RatingResponse{Message: "Rating added successfully", Rating: rating})
		return
	}
	writeJSON(w, http.StatusOK, RatingResponse{Message: "Rating updated successfully", Rating: rating})
}

// GET /api/ratings/{userID}
func (h *Handler) GetUserRatings(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}

	ratings, err := h.service.GetUserRatings(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UserRatingsResponse{UserID: userID, Ratings: ratings})
}

// GET /api/product-ratings/{productID}
func (h *Handler) GetProductRatings(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(r, "productID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid product_id parameter")
		return
	}

	summary, err := h.service.GetProductRatings(r.Context(), productID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// DELETE /api/ratings/{ratingID}
func (h *Handler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	ratingID := chi.URLParam(r, "ratingID")
	if ratingID == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid rating_id parameter")
		return
	}

	if err := h.service.DeleteRating(r.Context(), ratingID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Rating deleted successfully"})
}
