package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storehub/internal/microservices/http-api/models"
)

// RefreshTokenRepository handles database operations for refresh tokens
type RefreshTokenRepository interface {
	Create(ctx context.Context, refreshToken *models.RefreshToken) error
	FindByToken(ctx context.Context, tokenString string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenID string) error
	RevokeAllForUser(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// refreshTokenRepository is the GORM implementation of RefreshTokenRepository
type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new instance of RefreshTokenRepository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, refreshToken *models.RefreshToken) error {
	return conn(ctx, r.db).Omit("User").Create(refreshToken).Error
}

// FindByToken: look up the refresh token by its token string
func (r *refreshTokenRepository) FindByToken(ctx context.Context, tokenString string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := conn(ctx, r.db).Where("token = ?", tokenString).First(&refreshToken).Error; err != nil {
		return nil, notFound(err)
	}
	return &refreshToken, nil
}

// Revoke: marks a live refresh token as revoked. ErrNotFound means another caller
// revoked it first, so only one exchange of a token can ever succeed.
func (r *refreshTokenRepository) Revoke(ctx context.Context, tokenID string) error {
	res := conn(ctx, r.db).Model(&models.RefreshToken{}).
		Where("id = ? AND revoked = ?", tokenID, false).
		Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAllForUser: used on logout and password change so stolen tokens die with the session
func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uint) error {
	return conn(ctx, r.db).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}

// DeleteExpired: time-based cleanup of tokens that can no longer be exchanged
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := conn(ctx, r.db).Where("expires_at <= ? OR revoked = ?", now, true).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
