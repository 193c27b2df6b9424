package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"storehub/internal/microservices/http-api/dto"
	"storehub/internal/shared"
)

func newAdminRouter(admin *MockAdminService, a shared.Actor) http.Handler {
	r, api := setupRouter(&a)
	NewAdminHandler(admin).RegisterRoutes(api)
	return r
}

func TestAdminHandler_DashboardStats(t *testing.T) {
	admin := new(MockAdminService)
	admin.On("Dashboard", mock.Anything, adminActor).Return(&dto.DashboardStats{
		TotalUsers:     5,
		TotalRatings:   4,
		AverageRating:  3.3,
		UsersByRole:    dto.RoleCounts(map[shared.Role]int64{shared.RoleUser: 3}),
		RecentActivity: dto.RecentActivity{NewUsers: 1},
	}, nil)

	w := performRequest(newAdminRouter(admin, adminActor), http.MethodGet, "/api/admin/dashboard-stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 3.3, body["averageRating"])
	assert.Len(t, body["usersByRole"], 3)
	assert.Equal(t, float64(1), body["recentActivity"].(map[string]any)["newUsers"])

	w = performRequest(newAdminRouter(admin, userActor), http.MethodGet, "/api/admin/dashboard-stats", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin.AssertExpectations(t)
}

func TestAdminHandler_InternalErrorIsMasked(t *testing.T) {
	admin := new(MockAdminService)
	admin.On("Dashboard", mock.Anything, adminActor).Return(nil, errors.New("pq: relation does not exist"))

	w := performRequest(newAdminRouter(admin, adminActor), http.MethodGet, "/api/admin/dashboard-stats", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "INTERNAL", string(resp.Code))
	assert.Equal(t, "internal server error", resp.Message)
}
