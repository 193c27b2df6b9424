package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storehub/internal/microservices/http-api/dto"
	"storehub/internal/microservices/http-api/middleware"
	"storehub/internal/microservices/http-api/policy"
	"storehub/internal/microservices/http-api/query"
	"storehub/internal/microservices/http-api/service"
)

type StoreHandler struct {
	storeService  service.StoreService
	ratingService service.RatingService
}

func NewStoreHandler(storeService service.StoreService, ratingService service.RatingService) *StoreHandler {
	return &StoreHandler{storeService: storeService, ratingService: ratingService}
}

// RegisterRoutes mounts /stores on an authenticated group.
func (h *StoreHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stores := rg.Group("/stores")
	{
		stores.GET("", middleware.RequirePermission(policy.BrowseStores), h.List)
		stores.GET("/search", middleware.RequirePermission(policy.BrowseStores), h.List)
		stores.GET("/my", middleware.RequirePermission(policy.ViewOwnStore), h.MyStore)
		stores.GET("/:id", middleware.RequirePermission(policy.BrowseStores), h.Get)
		stores.GET("/:id/ratings", middleware.RequirePermission(policy.ViewRatings), h.Ratings)
		stores.POST("", middleware.RequirePermission(policy.CreateStore), h.Create)
		stores.PUT("/:id", middleware.RequirePermission(policy.UpdateStore), h.Update)
		stores.DELETE("/:id", middleware.RequirePermission(policy.DeleteStore), h.Delete)
	}
}

// List serves both GET /stores and GET /stores/search.
func (h *StoreHandler) List(c *gin.Context) {
	var filter dto.StoreListQuery
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, err)
		return
	}
	p, ok := listParams(c, query.StoreSorting)
	if !ok {
		return
	}

	resp, err := h.storeService.List(c.Request.Context(), filter, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	store, err := h.storeService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"store": store})
}

func (h *StoreHandler) Ratings(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, ok := listParams(c, query.RatingSorting)
	if !ok {
		return
	}

	resp, err := h.ratingService.ListForStore(c.Request.Context(), id, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) MyStore(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	p, ok := listParams(c, query.RatingSorting)
	if !ok {
		return
	}

	resp, err := h.storeService.OwnerDashboard(c.Request.Context(), a, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreateStoreRequest
	if !bindJSON(c, &req) {
		return
	}

	store, err := h.storeService.Create(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Store created successfully", "store": store})
}

func (h *StoreHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStoreRequest
	if !bindJSON(c, &req) {
		return
	}

	store, err := h.storeService.Update(c.Request.Context(), a, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Store updated successfully", "store": store})
}

func (h *StoreHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.storeService.Delete(c.Request.Context(), a, id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Store deleted successfully")
}
