package dto

import (
	"time"

	"storehub/internal/microservices/http-api/aggregate"
	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/query"
)

// SubmitRatingRequest for creating or updating a rating; range checks happen in the service
type SubmitRatingRequest struct {
	StoreID uint    `json:"storeId" binding:"required"`
	Rating  int     `json:"rating" binding:"required"`
	Comment *string `json:"comment"`
}

type UserRef struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type StoreRef struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
}

// RatingResponse for returning rating information with whatever associations were loaded
type RatingResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	StoreID   uint      `json:"storeId"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      *UserRef  `json:"user,omitempty"`
	Store     *StoreRef `json:"store,omitempty"`
}

// FromModelToRatingResponse converts a Rating model to RatingResponse DTO
func FromModelToRatingResponse(r *models.Rating) RatingResponse {
	resp := RatingResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		StoreID:   r.StoreID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.User != nil {
		resp.User = &UserRef{ID: r.User.ID, Name: r.User.Name, Email: r.User.Email}
	}
	if r.Store != nil {
		resp.Store = &StoreRef{ID: r.Store.ID, Name: r.Store.Name, Address: r.Store.Address, Email: r.Store.Email}
	}
	return resp
}

func FromModelsToRatingResponses(ratings []models.Rating) []RatingResponse {
	out := make([]RatingResponse, 0, len(ratings))
	for i := range ratings {
		out = append(out, FromModelToRatingResponse(&ratings[i]))
	}
	return out
}

// SubmitRatingResult carries the saved rating and whether it was newly created.
type SubmitRatingResult struct {
	Message string         `json:"message"`
	Rating  RatingResponse `json:"rating"`
	Created bool           `json:"-"`
}

type StoreRatingsResponse struct {
	Store      StoreSummary     `json:"store"`
	Ratings    []RatingResponse `json:"ratings"`
	Pagination query.Pagination `json:"pagination"`
}

type MyRatingsResponse struct {
	Ratings    []RatingResponse `json:"ratings"`
	Pagination query.Pagination `json:"pagination"`
}

// RatingStatsResponse: GET /ratings/stats
type RatingStatsResponse struct {
	TotalRatings       int64              `json:"totalRatings"`
	AverageRating      float64            `json:"averageRating"`
	RatingDistribution []aggregate.Bucket `json:"ratingDistribution"`
	RecentRatings      []RatingResponse   `json:"recentRatings"`
}
