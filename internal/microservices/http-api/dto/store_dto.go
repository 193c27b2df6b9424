package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"storehub/internal/microservices/http-api/aggregate"
	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/query"
	"storehub/internal/microservices/http-api/repository"
)

// OptionalID distinguishes an absent JSON field from an explicit null.
// {"ownerId": null} unassigns the owner, a missing ownerId leaves it alone.
type OptionalID struct {
	Set   bool
	Value *uint
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var id uint
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

type CreateStoreRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Address string `json:"address" binding:"required"`
	OwnerID *uint  `json:"ownerId"`
}

type UpdateStoreRequest struct {
	Name    *string    `json:"name"`
	Email   *string    `json:"email" binding:"omitempty,email"`
	Address *string    `json:"address"`
	OwnerID OptionalID `json:"ownerId"`
}

type StoreListQuery struct {
	Name    string `form:"name"`
	Email   string `form:"email"`
	Address string `form:"address"`
}

type OwnerSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type StoreResponse struct {
	ID            uint          `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Address       string        `json:"address"`
	OwnerID       *uint         `json:"ownerId"`
	Owner         *OwnerSummary `json:"owner,omitempty"`
	AverageRating float64       `json:"averageRating"`
	TotalRatings  int64         `json:"totalRatings"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// FromModelToStoreResponse converts a store and its rating stats.
func FromModelToStoreResponse(s *models.Store, stats aggregate.Stats) StoreResponse {
	resp := StoreResponse{
		ID:            s.ID,
		Name:          s.Name,
		Email:         s.Email,
		Address:       s.Address,
		OwnerID:       s.OwnerID,
		AverageRating: stats.Average,
		TotalRatings:  stats.Count,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.Owner != nil {
		resp.Owner = &OwnerSummary{ID: s.Owner.ID, Name: s.Owner.Name, Email: s.Owner.Email}
	}
	return resp
}

// FromStoreRow converts a listing row; the average is derived from the row's raw totals.
func FromStoreRow(r repository.StoreRow) StoreResponse {
	stats := aggregate.NewStats(r.RatingSum, r.TotalRatings)
	resp := StoreResponse{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		Address:       r.Address,
		OwnerID:       r.OwnerID,
		AverageRating: stats.Average,
		TotalRatings:  stats.Count,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.OwnerID != nil && r.OwnerName != nil {
		owner := &OwnerSummary{ID: *r.OwnerID, Name: *r.OwnerName}
		if r.OwnerEmail != nil {
			owner.Email = *r.OwnerEmail
		}
		resp.Owner = owner
	}
	return resp
}

type StoreDetailResponse struct {
	StoreResponse
	RatingDistribution aggregate.Distribution `json:"ratingDistribution"`
}

type StoreListResponse struct {
	Stores     []StoreResponse  `json:"stores"`
	Pagination query.Pagination `json:"pagination"`
}

// StoreSummary is the short store header on rating listings.
type StoreSummary struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int64   `json:"totalRatings"`
}

// OwnerDashboardResponse: GET /stores/my
type OwnerDashboardResponse struct {
	Store      StoreDetailResponse `json:"store"`
	Ratings    []RatingResponse    `json:"ratings"`
	Pagination query.Pagination    `json:"pagination"`
}
