package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storehub/internal/microservices/http-api/dto"
	"storehub/internal/microservices/http-api/query"
	"storehub/internal/microservices/http-api/service"
	"storehub/internal/shared"
)

func newRatingRouter(ratings *MockRatingService, a shared.Actor) http.Handler {
	r, api := setupRouter(&a)
	NewRatingHandler(ratings).RegisterRoutes(api)
	return r
}

func TestRatingHandler_Submit(t *testing.T) {
	ratings := new(MockRatingService)
	router := newRatingRouter(ratings, userActor)

	first := dto.SubmitRatingRequest{StoreID: 4, Rating: 5}
	again := dto.SubmitRatingRequest{StoreID: 4, Rating: 3}
	ratings.On("Submit", mock.Anything, userActor, first).Return(&dto.SubmitRatingResult{
		Message: "Rating submitted successfully",
		Rating:  dto.RatingResponse{ID: 1, StoreID: 4, Rating: 5},
		Created: true,
	}, nil)
	ratings.On("Submit", mock.Anything, userActor, again).Return(&dto.SubmitRatingResult{
		Message: "Rating updated successfully",
		Rating:  dto.RatingResponse{ID: 1, StoreID: 4, Rating: 3},
	}, nil)

	w := performRequest(router, http.MethodPost, "/api/ratings", first)
	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Rating submitted successfully", body["message"])
	assert.NotContains(t, body, "created")

	w = performRequest(router, http.MethodPost, "/api/ratings", again)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["rating"].(map[string]any)["rating"])

	ratings.AssertExpectations(t)
}

func TestRatingHandler_SubmitErrors(t *testing.T) {
	tests := []struct {
		name   string
		actor  shared.Actor
		body   any
		err    error
		status int
	}{
		{"admin cannot rate", adminActor, dto.SubmitRatingRequest{StoreID: 4, Rating: 5}, nil, http.StatusForbidden},
		{"owner cannot rate", ownerActor, dto.SubmitRatingRequest{StoreID: 4, Rating: 5}, nil, http.StatusForbidden},
		{"missing store id", userActor, map[string]int{"rating": 5}, nil, http.StatusBadRequest},
		{"rating wrong type", userActor, `{"storeId":4,"rating":"five"}`, nil, http.StatusBadRequest},
		{"out of range", userActor, dto.SubmitRatingRequest{StoreID: 4, Rating: 6},
			service.ValidationError("validation failed", service.FieldError{Field: "rating", Message: "rating must be an integer between 1 and 5"}),
			http.StatusBadRequest},
		{"unknown store", userActor, dto.SubmitRatingRequest{StoreID: 404, Rating: 5}, service.NotFoundError("store not found"), http.StatusNotFound},
		{"storage failure", userActor, dto.SubmitRatingRequest{StoreID: 4, Rating: 5}, service.InternalError(errors.New("disk on fire")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratings := new(MockRatingService)
			if tt.err != nil {
				ratings.On("Submit", mock.Anything, tt.actor, mock.Anything).Return(nil, tt.err)
			}

			w := performRequest(newRatingRouter(ratings, tt.actor), http.MethodPost, "/api/ratings", tt.body)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.NotContains(t, resp.Message, "disk on fire")
			if tt.err == nil {
				ratings.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
			}
			ratings.AssertExpectations(t)
		})
	}
}

func TestRatingHandler_Lists(t *testing.T) {
	ratings := new(MockRatingService)
	router := newRatingRouter(ratings, userActor)

	p := mustParse(t, query.Raw{SortBy: "rating", SortOrder: "asc"}, query.RatingSorting)
	ratings.On("ListForStore", mock.Anything, uint(4), p).Return(&dto.StoreRatingsResponse{Ratings: []dto.RatingResponse{}}, nil)
	ratings.On("ListMine", mock.Anything, userActor, mustParse(t, query.Raw{}, query.RatingSorting)).
		Return(&dto.MyRatingsResponse{Ratings: []dto.RatingResponse{{ID: 1}}}, nil)

	w := performRequest(router, http.MethodGet, "/api/ratings/store/4?sortBy=rating&sortOrder=asc", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodGet, "/api/ratings/my", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["ratings"], 1)

	w = performRequest(router, http.MethodGet, "/api/ratings/store/0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ratings.AssertExpectations(t)
}

func TestRatingHandler_Stats(t *testing.T) {
	ratings := new(MockRatingService)
	ratings.On("Stats", mock.Anything, adminActor).Return(&dto.RatingStatsResponse{TotalRatings: 4, AverageRating: 3.3}, nil)

	w := performRequest(newRatingRouter(ratings, adminActor), http.MethodGet, "/api/ratings/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3.3, decode(t, w)["averageRating"])

	w = performRequest(newRatingRouter(ratings, userActor), http.MethodGet, "/api/ratings/stats", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	ratings.AssertExpectations(t)
}

func TestRatingHandler_Delete(t *testing.T) {
	ratings := new(MockRatingService)
	router := newRatingRouter(ratings, userActor)

	ratings.On("Delete", mock.Anything, userActor, uint(1)).Return(nil)
	ratings.On("Delete", mock.Anything, userActor, uint(2)).Return(service.ForbiddenError("you can only delete your own ratings"))

	w := performRequest(router, http.MethodDelete, "/api/ratings/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodDelete, "/api/ratings/2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	ratings.AssertExpectations(t)
}
