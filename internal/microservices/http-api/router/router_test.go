package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storehub/database/dbtest"
	"storehub/internal/config"
	"storehub/internal/microservices/http-api/middleware"
	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/repository"
	"storehub/internal/middleware/auth"
	"storehub/internal/shared"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := Setup(false); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "router-test-secret-long-enough-1234",
		JWTIssuer:       "storehub",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		BcryptCost:      bcrypt.MinCost,
	}
}

type apiClient struct {
	t      *testing.T
	engine http.Handler
	token  string
}

func (c *apiClient) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (c *apiClient) login(email, password string) {
	c.t.Helper()
	c.token = ""
	w, body := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	c.token = body["accessToken"].(string)
}

func seedAdmin(t *testing.T, users repository.UserRepository) {
	hash, err := auth.HashPassword("Admin@123!", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &models.User{
		Name:     "System Administrator Account",
		Email:    "admin@demo.com",
		Password: hash,
		Address:  "1 Admin Way",
		Role:     shared.RoleAdmin,
	}))
}

func TestRouter_EndToEnd(t *testing.T) {
	db := dbtest.New(t)
	seedAdmin(t, repository.NewUserRepository(db))
	engine := New(NewServices(db, testConfig(), zap.NewNop()), Options{})

	admin := &apiClient{t: t, engine: engine}
	admin.login("admin@demo.com", "Admin@123!")

	w, body := admin.do(http.MethodPost, "/api/stores", map[string]any{
		"name": "Main Street Market Hall", "email": "market@example.com", "address": "12 Main Street",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	storeID := uint(body["store"].(map[string]any)["id"].(float64))

	var raters []*apiClient
	for i, score := range []int{5, 4, 4} {
		c := &apiClient{t: t, engine: engine}
		w, body := c.do(http.MethodPost, "/api/auth/register", map[string]string{
			"name":     fmt.Sprintf("Regular Shopper Number %02d", i),
			"email":    fmt.Sprintf("shopper%d@example.com", i),
			"password": "User@123!",
			"address":  "5 Side Road",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "user", body["user"].(map[string]any)["role"])
		c.token = body["accessToken"].(string)

		w, _ = c.do(http.MethodPost, "/api/ratings", map[string]any{"storeId": storeID, "rating": score})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		raters = append(raters, c)
	}

	storePath := fmt.Sprintf("/api/stores/%d", storeID)
	w, body = raters[0].do(http.MethodGet, storePath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	store := body["store"].(map[string]any)
	assert.Equal(t, 4.3, store["averageRating"])
	assert.Equal(t, float64(3), store["totalRatings"])

	// resubmission replaces the caller's rating: 13/3 -> 12/3
	w, body = raters[0].do(http.MethodPost, "/api/ratings", map[string]any{"storeId": storeID, "rating": 4})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rating updated successfully", body["message"])

	w, body = admin.do(http.MethodGet, fmt.Sprintf("/api/ratings/store/%d?sortBy=rating&sortOrder=desc", storeID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4.0, body["store"].(map[string]any)["averageRating"])
	assert.Len(t, body["ratings"], 3)

	w, _ = admin.do(http.MethodPost, "/api/ratings", map[string]any{"storeId": storeID, "rating": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = admin.do(http.MethodGet, "/api/admin/dashboard-stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), body["totalUsers"])
	assert.Equal(t, float64(3), body["totalRatings"])
	assert.Len(t, body["topStores"], 1)

	w, _ = raters[1].do(http.MethodGet, "/api/admin/dashboard-stats", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = raters[1].do(http.MethodGet, "/api/ratings/my", nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := body["ratings"].([]any)
	require.Len(t, mine, 1)
	assert.Equal(t, "Main Street Market Hall", mine[0].(map[string]any)["store"].(map[string]any)["name"])
}

func TestRouter_AuthAndHealth(t *testing.T) {
	db := dbtest.New(t)
	engine := New(NewServices(db, testConfig(), zap.NewNop()), Options{
		Health: func(context.Context) error { return nil },
	})
	c := &apiClient{t: t, engine: engine}

	w, body := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, body = c.do(http.MethodGet, "/api/stores", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	c.token = "not-a-jwt"
	w, _ = c.do(http.MethodGet, "/api/stores", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c.token = ""
	w, body = c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Too Short", "email": "short@example.com", "password": "weak", "address": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Len(t, body["errors"], 2)
}

func TestRouter_HealthUnavailable(t *testing.T) {
	engine := New(Services{}, Options{Health: func(context.Context) error { return errors.New("connection refused") }})
	c := &apiClient{t: t, engine: engine}

	w, body := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestRouter_AuthRateLimit(t *testing.T) {
	db := dbtest.New(t)
	engine := New(NewServices(db, testConfig(), zap.NewNop()), Options{
		Limiter:     middleware.NewMemoryLimiter(100, time.Minute, 100),
		AuthLimiter: middleware.NewMemoryLimiter(2, time.Minute, 100),
	})
	c := &apiClient{t: t, engine: engine}

	for i := 0; i < 2; i++ {
		w, _ := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "nobody@example.com", "password": "Wrong@123!"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w, body := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "nobody@example.com", "password": "Wrong@123!"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["code"])
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// the global limiter still admits other routes
	w, _ = c.do(http.MethodGet, "/api/stores", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORS(t *testing.T) {
	engine := New(Services{}, Options{CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/stores", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
