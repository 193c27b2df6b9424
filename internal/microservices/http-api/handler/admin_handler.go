package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storehub/internal/microservices/http-api/middleware"
	"storehub/internal/microservices/http-api/policy"
	"storehub/internal/microservices/http-api/service"
)

type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/dashboard-stats", middleware.RequirePermission(policy.ViewDashboard), h.DashboardStats)
}

func (h *AdminHandler) DashboardStats(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	stats, err := h.adminService.Dashboard(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
