package router

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storehub/internal/config"
	"storehub/internal/microservices/http-api/repository"
	"storehub/internal/microservices/http-api/service"
)

// NewServices wires repositories over db into the application services.
func NewServices(db *gorm.DB, cfg *config.Config, log *zap.Logger) Services {
	users := repository.NewUserRepository(db)
	stores := repository.NewStoreRepository(db)
	ratings := repository.NewRatingRepository(db)
	tokens := repository.NewRefreshTokenRepository(db)
	tx := repository.NewTransactor(db)

	return Services{
		Auth:    service.NewAuthService(users, stores, ratings, tokens, cfg, nil, log.Named("auth")),
		Stores:  service.NewStoreService(stores, users, ratings, tx, log.Named("stores")),
		Ratings: service.NewRatingService(ratings, stores, tx, log.Named("ratings")),
		Users:   service.NewUserService(users, stores, ratings, tx, cfg.BcryptCost, nil, log.Named("users")),
		Admin:   service.NewAdminService(users, stores, ratings, tx, nil, log.Named("admin")),
	}
}
