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

type RatingHandler struct {
	ratingService service.RatingService
}

func NewRatingHandler(ratingService service.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

func (h *RatingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ratings := rg.Group("/ratings")
	{
		ratings.POST("", middleware.RequirePermission(policy.SubmitRating), h.Submit)
		ratings.GET("/my", middleware.RequirePermission(policy.ViewOwnRating), h.Mine)
		ratings.GET("/stats", middleware.RequirePermission(policy.ViewRatingStats), h.Stats)
		ratings.GET("/store/:storeId", middleware.RequirePermission(policy.ViewRatings), h.ForStore)
		ratings.DELETE("/:id", middleware.RequirePermission(policy.DeleteRating), h.Delete)
	}
}

// Submit creates the caller's rating for a store, or replaces it: 201 on create, 200 on update.
func (h *RatingHandler) Submit(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req dto.SubmitRatingRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.ratingService.Submit(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

func (h *RatingHandler) ForStore(c *gin.Context) {
	storeID, ok := pathID(c, "storeId")
	if !ok {
		return
	}
	p, ok := listParams(c, query.RatingSorting)
	if !ok {
		return
	}

	resp, err := h.ratingService.ListForStore(c.Request.Context(), storeID, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RatingHandler) Mine(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	p, ok := listParams(c, query.RatingSorting)
	if !ok {
		return
	}

	resp, err := h.ratingService.ListMine(c.Request.Context(), a, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RatingHandler) Stats(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	resp, err := h.ratingService.Stats(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RatingHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.ratingService.Delete(c.Request.Context(), a, id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Rating deleted successfully")
}
