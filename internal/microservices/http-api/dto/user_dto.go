package dto

import (
	"time"

	"storehub/internal/microservices/http-api/aggregate"
	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/query"
	"storehub/internal/shared"
)

type UserResponse struct {
	ID        uint        `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Address   string      `json:"address"`
	Role      shared.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func FromModelToUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Address:   u.Address,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserListItem is one row of the admin user listing.
type UserListItem struct {
	UserResponse
	TotalRatingsSubmitted int64   `json:"totalRatingsSubmitted"`
	AverageRatingGiven    float64 `json:"averageRatingGiven"`
	HasStore              bool    `json:"hasStore"`
}

type UserListResponse struct {
	Users      []UserListItem   `json:"users"`
	Pagination query.Pagination `json:"pagination"`
}

// CreateUserRequest: admin creation, any role
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Address  string `json:"address" binding:"required"`
	Role     string `json:"role" binding:"omitempty,role"`
}

// UpdateUserRequest: partial update, absent fields are left unchanged
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password"`
	Address  *string `json:"address"`
	Role     *string `json:"role" binding:"omitempty,role"`
}

type UserListQuery struct {
	Name    string `form:"name"`
	Email   string `form:"email"`
	Address string `form:"address"`
	Role    string `form:"role"`
}

type StoreStats struct {
	StoreID              uint                   `json:"storeId"`
	StoreName            string                 `json:"storeName"`
	TotalRatingsReceived int64                  `json:"totalRatingsReceived"`
	AverageStoreRating   float64                `json:"averageStoreRating"`
	RatingDistribution   aggregate.Distribution `json:"ratingDistribution"`
}

type UserStats struct {
	TotalRatingsGiven  int64       `json:"totalRatingsGiven"`
	AverageRatingGiven float64     `json:"averageRatingGiven"`
	AccountAge         int         `json:"accountAge"` // days
	StoreStats         *StoreStats `json:"storeStats,omitempty"`
}

type UserDetailResponse struct {
	UserResponse
	Stats UserStats `json:"stats"`
}

type RoleCount struct {
	Role  shared.Role `json:"role"`
	Count int64       `json:"count"`
}

// UserStatsResponse: GET /users/stats
type UserStatsResponse struct {
	TotalUsers   int64          `json:"totalUsers"`
	UsersByRole  []RoleCount    `json:"usersByRole"`
	RecentUsers  []UserResponse `json:"recentUsers"`
	ActiveRaters int64          `json:"activeRaters"` // distinct raters in the last 30 days
}

// RoleCounts flattens a role->count map in the canonical role order.
func RoleCounts(m map[shared.Role]int64) []RoleCount {
	out := make([]RoleCount, 0, len(shared.Roles))
	for _, r := range shared.Roles {
		out = append(out, RoleCount{Role: r, Count: m[r]})
	}
	return out
}
