package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storehub/internal/config"
	"storehub/internal/microservices/http-api/aggregate"
	"storehub/internal/microservices/http-api/dto"
	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/repository"
	"storehub/internal/middleware/auth"
	"storehub/internal/shared"
)

const (
	tokenTypeAccess = "access"
	bearerTokenType = "Bearer"
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	Logout(ctx context.Context, actor shared.Actor) error
	Me(ctx context.Context, actor shared.Actor) (*dto.MeResponse, error)
	ChangePassword(ctx context.Context, actor shared.Actor, req dto.ChangePasswordRequest) error
	ValidateToken(tokenString string) (*shared.AuthClaims, error)
}

// accessClaims is the JWT payload of an access token. The subject is the user id.
type accessClaims struct {
	Email string      `json:"email"`
	Role  shared.Role `json:"role"`
	Type  string      `json:"type"`
	jwt.RegisteredClaims
}

type authService struct {
	users           repository.UserRepository
	stores          repository.StoreRepository
	ratings         repository.RatingRepository
	tokens          repository.RefreshTokenRepository
	pipe            *pipeline
	jwtSecret       []byte
	issuer          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             Clock
	log             *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	users repository.UserRepository,
	stores repository.StoreRepository,
	ratings repository.RatingRepository,
	tokens repository.RefreshTokenRepository,
	cfg *config.Config,
	now Clock,
	log *zap.Logger,
) AuthService {
	if now == nil {
		now = systemClock
	}
	return &authService{
		users:           users,
		stores:          stores,
		ratings:         ratings,
		tokens:          tokens,
		pipe:            newPipeline(cfg.BcryptCost),
		jwtSecret:       []byte(cfg.JWTSecret),
		issuer:          cfg.JWTIssuer,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		now:             now,
		log:             orNop(log),
	}
}

// Register creates a self-service account. The role is always "user".
func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	in := userInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Role:     string(shared.RoleUser),
	}
	in.sanitize()
	if err := s.pipe.check(&in); err != nil {
		return nil, err
	}
	hash, err := s.pipe.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Address:  in.Address,
		Role:     shared.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrEmailInUse
		}
		return nil, fail(s.log, "auth.register", err)
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID))
	return s.issue(ctx, user)
}

// Login authenticates by email and password and issues a token pair.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, cleanEmail(req.Email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fail(s.log, "auth.login", err)
		}
		// unknown email: burn the same bcrypt time as a real check
		_ = auth.VerifyPassword(s.dummy(), req.Password)
		return nil, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(user.Password, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, user)
}

func (s *authService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword(uuid.NewString(), s.pipe.bcryptCost)
	})
	return s.dummyHash
}

// Refresh exchanges a live refresh token for a new pair. The old token is revoked.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	token, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fail(s.log, "auth.refresh", err)
	}
	if token.Expired(s.now()) {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fail(s.log, "auth.refresh", err)
	}
	// the conditional revoke is the claim on this token; a concurrent refresh loses here
	if err := s.tokens.Revoke(ctx, token.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fail(s.log, "auth.refresh", err)
	}
	return s.issue(ctx, user)
}

// Logout revokes every refresh token of the caller.
func (s *authService) Logout(ctx context.Context, actor shared.Actor) error {
	if err := s.tokens.RevokeAllForUser(ctx, actor.ID); err != nil {
		return fail(s.log, "auth.logout", err)
	}
	return nil
}

func (s *authService) Me(ctx context.Context, actor shared.Actor) (*dto.MeResponse, error) {
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(s.log, "auth.me", "user not found", err)
	}
	resp := &dto.MeResponse{User: dto.FromModelToUserResponse(user)}
	if user.Role != shared.RoleStoreOwner {
		return resp, nil
	}

	store, err := s.stores.FindByOwner(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return resp, nil
	}
	if err != nil {
		return nil, fail(s.log, "auth.me", err)
	}
	totals, err := s.ratings.StoreTotals(ctx, store.ID)
	if err != nil {
		return nil, fail(s.log, "auth.me", err)
	}
	sr := dto.FromModelToStoreResponse(store, aggregate.NewStats(totals.Sum, totals.Count))
	resp.Store = &sr
	return resp, nil
}

// ChangePassword verifies the current password, stores the new hash and signs the
// user out everywhere else.
func (s *authService) ChangePassword(ctx context.Context, actor shared.Actor, req dto.ChangePasswordRequest) error {
	in := userInput{Password: req.NewPassword}
	if err := s.pipe.check(&in, "userInput.Password"); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return notFoundOr(s.log, "auth.password", "user not found", err)
	}
	if err := auth.VerifyPassword(user.Password, req.CurrentPassword); err != nil {
		return UnauthorizedError("current password is incorrect")
	}

	hash, err := s.pipe.hash(in.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return notFoundOr(s.log, "auth.password", "user not found", err)
	}
	if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		return fail(s.log, "auth.password", err)
	}
	return nil
}

// ValidateToken parses an access token and returns its claims.
func (s *authService) ValidateToken(tokenString string) (*shared.AuthClaims, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != tokenTypeAccess || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrInvalidToken
	}
	return &shared.AuthClaims{UserID: uint(id), Email: claims.Email, Role: claims.Role}, nil
}

func (s *authService) issue(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	access, err := s.accessToken(user)
	if err != nil {
		return nil, fail(s.log, "auth.token", err)
	}

	refresh := &models.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.refreshTokenTTL),
	}
	if err := s.tokens.Create(ctx, refresh); err != nil {
		return nil, fail(s.log, "auth.token", err)
	}

	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		TokenType:    bearerTokenType,
		ExpiresIn:    int64(s.accessTokenTTL.Seconds()),
		User:         dto.FromModelToUserResponse(user),
	}, nil
}

func (s *authService) accessToken(user *models.User) (string, error) {
	now := s.now()
	claims := accessClaims{
		Email: user.Email,
		Role:  user.Role,
		Type:  tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}
