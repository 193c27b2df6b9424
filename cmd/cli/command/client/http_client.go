package client

// http_client.go = typed access to the storehub REST API for the CLI.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"storehub/internal/microservices/http-api/dto"
)

const (
	// client-side pacing keeps scripted use under the server's rate limit
	requestsPerSecond = 5
	requestBurst      = 5

	maxRetries = 3
	maxBackoff = 30 * time.Second
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (HTTP %d): %s", e.Code, e.Status, e.Message)
	for _, f := range e.Errors {
		fmt.Fprintf(&b, "\n  - %s: %s", f.Field, f.Message)
	}
	return b.String()
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// defines the HTTP client structure and methods
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	sleep      func(ctx context.Context, d time.Duration) error
}

// constructor for HTTP client; apiURL includes the /api prefix
func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		sleep:      sleepCtx,
	}
}

// set token for HTTP client
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// do sends one JSON request, waiting on the local limiter first and retrying 429 and 5xx
// answers with backoff (Retry-After wins when the server sends it).
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	delay := time.Second
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}

		if resp.StatusCode < 300 {
			if out == nil || len(raw) == 0 {
				return nil
			}
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			return nil
		}

		if shouldRetry(resp.StatusCode) && attempt < maxRetries {
			wait := delay
			if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s >= 0 {
				wait = time.Duration(s) * time.Second
			}
			if err := c.sleep(ctx, min(wait, maxBackoff)); err != nil {
				return err
			}
			delay = min(delay*2, maxBackoff)
			continue
		}
		return decodeError(resp.StatusCode, raw)
	}
}

func decodeError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = http.StatusText(status)
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

// shouldRetry determines if an HTTP status code warrants a retry
func shouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ListParams are the shared paging and sorting query parameters.
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.SortBy != "" {
		v.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		v.Set("sortOrder", p.SortOrder)
	}
	return v
}

// auth

func (c *HTTPClient) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	return &out, c.do(ctx, http.MethodPost, "/auth/register", nil, req, &out)
}

func (c *HTTPClient) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	return &out, c.do(ctx, http.MethodPost, "/auth/login", nil, req, &out)
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	return &out, c.do(ctx, http.MethodPost, "/auth/refresh", nil, dto.RefreshTokenRequest{RefreshToken: refreshToken}, &out)
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *HTTPClient) Me(ctx context.Context) (*dto.MeResponse, error) {
	var out dto.MeResponse
	return &out, c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out)
}

func (c *HTTPClient) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error {
	return c.do(ctx, http.MethodPut, "/auth/password", nil, req, nil)
}

// stores

func (c *HTTPClient) ListStores(ctx context.Context, filter dto.StoreListQuery, p ListParams) (*dto.StoreListResponse, error) {
	q := p.values()
	if filter.Name != "" {
		q.Set("name", filter.Name)
	}
	if filter.Email != "" {
		q.Set("email", filter.Email)
	}
	if filter.Address != "" {
		q.Set("address", filter.Address)
	}
	var out dto.StoreListResponse
	return &out, c.do(ctx, http.MethodGet, "/stores/search", q, nil, &out)
}

func (c *HTTPClient) GetStore(ctx context.Context, id uint) (*dto.StoreDetailResponse, error) {
	var out struct {
		Store dto.StoreDetailResponse `json:"store"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/stores/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Store, nil
}

func (c *HTTPClient) StoreRatings(ctx context.Context, id uint, p ListParams) (*dto.StoreRatingsResponse, error) {
	var out dto.StoreRatingsResponse
	return &out, c.do(ctx, http.MethodGet, fmt.Sprintf("/stores/%d/ratings", id), p.values(), nil, &out)
}

func (c *HTTPClient) MyStore(ctx context.Context, p ListParams) (*dto.OwnerDashboardResponse, error) {
	var out dto.OwnerDashboardResponse
	return &out, c.do(ctx, http.MethodGet, "/stores/my", p.values(), nil, &out)
}

func (c *HTTPClient) CreateStore(ctx context.Context, req dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	var out struct {
		Store dto.StoreResponse `json:"store"`
	}
	if err := c.do(ctx, http.MethodPost, "/stores", nil, req, &out); err != nil {
		return nil, err
	}
	return &out.Store, nil
}

// ratings

func (c *HTTPClient) SubmitRating(ctx context.Context, req dto.SubmitRatingRequest) (*dto.SubmitRatingResult, error) {
	var out dto.SubmitRatingResult
	return &out, c.do(ctx, http.MethodPost, "/ratings", nil, req, &out)
}

func (c *HTTPClient) DeleteRating(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/ratings/%d", id), nil, nil, nil)
}

func (c *HTTPClient) MyRatings(ctx context.Context, p ListParams) (*dto.MyRatingsResponse, error) {
	var out dto.MyRatingsResponse
	return &out, c.do(ctx, http.MethodGet, "/ratings/my", p.values(), nil, &out)
}

func (c *HTTPClient) RatingStats(ctx context.Context) (*dto.RatingStatsResponse, error) {
	var out dto.RatingStatsResponse
	return &out, c.do(ctx, http.MethodGet, "/ratings/stats", nil, nil, &out)
}

// admin

func (c *HTTPClient) Dashboard(ctx context.Context) (*dto.DashboardStats, error) {
	var out dto.DashboardStats
	return &out, c.do(ctx, http.MethodGet, "/admin/dashboard-stats", nil, nil, &out)
}

func (c *HTTPClient) ListUsers(ctx context.Context, filter dto.UserListQuery, p ListParams) (*dto.UserListResponse, error) {
	q := p.values()
	for k, v := range map[string]string{"name": filter.Name, "email": filter.Email, "address": filter.Address, "role": filter.Role} {
		if v != "" {
			q.Set(k, v)
		}
	}
	var out dto.UserListResponse
	return &out, c.do(ctx, http.MethodGet, "/users", q, nil, &out)
}
