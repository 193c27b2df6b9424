// Package router assembles the gin engine: ambient middleware, rate limits and every
// resource's routes under /api.
package router

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storehub/internal/logger"
	"storehub/internal/microservices/http-api/handler"
	"storehub/internal/microservices/http-api/middleware"
	"storehub/internal/microservices/http-api/service"
)

// Services are the application services the routes delegate to.
type Services struct {
	Auth    service.AuthService
	Stores  service.StoreService
	Ratings service.RatingService
	Users   service.UserService
	Admin   service.AdminService
}

type Options struct {
	Log         *zap.Logger
	CORSOrigins []string
	// Limiter applies to every /api route, AuthLimiter additionally to the public auth
	// routes. Either may be nil to disable it.
	Limiter     middleware.Limiter
	AuthLimiter middleware.Limiter
	// Health reports whether the backing store is reachable.
	Health func(ctx context.Context) error
}

// RouteRegistrar is implemented by every handler mounted on the authenticated group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// New builds the engine. Binding validators must be registered first (see Setup).
func New(svc Services, opts Options) *gin.Engine {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(logger.RequestID(), logger.GinMiddleware(log), logger.Recovery(log))
	engine.Use(corsMiddleware(opts.CORSOrigins))

	engine.GET("/health", healthHandler(opts.Health))

	api := engine.Group("/api")
	if opts.Limiter != nil {
		api.Use(middleware.RateLimit(opts.Limiter, "api"))
	}

	public := api.Group("/auth")
	if opts.AuthLimiter != nil {
		public.Use(middleware.RateLimit(opts.AuthLimiter, "auth"))
	}
	protected := api.Group("", middleware.AuthMiddleware(svc.Auth))

	handler.NewAuthHandler(svc.Auth).RegisterRoutes(public, protected.Group("/auth"))
	for _, r := range []RouteRegistrar{
		handler.NewStoreHandler(svc.Stores, svc.Ratings),
		handler.NewRatingHandler(svc.Ratings),
		handler.NewUserHandler(svc.Users),
		handler.NewAdminHandler(svc.Admin),
	} {
		r.RegisterRoutes(protected)
	}
	return engine
}

// Setup performs the process-wide gin configuration New relies on.
func Setup(production bool) error {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	return handler.RegisterBindingValidators()
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders: []string{logger.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.FromGin(c).Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"database": "error",
					"time":     time.Now().UTC().Format(time.RFC3339),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "ok",
			"time":     time.Now().UTC().Format(time.RFC3339),
		})
	}
}
