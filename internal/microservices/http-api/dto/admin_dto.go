package dto

import "storehub/internal/microservices/http-api/aggregate"

type RecentActivity struct {
	NewUsers   int64 `json:"newUsers"`
	NewRatings int64 `json:"newRatings"`
}

// DashboardStats: GET /admin/dashboard-stats
type DashboardStats struct {
	TotalUsers     int64                   `json:"totalUsers"`
	TotalStores    int64                   `json:"totalStores"`
	TotalRatings   int64                   `json:"totalRatings"`
	AverageRating  float64                 `json:"averageRating"`
	UsersByRole    []RoleCount             `json:"usersByRole"`
	RecentActivity RecentActivity          `json:"recentActivity"`
	TopStores      []aggregate.RankedStore `json:"topStores"`
}
