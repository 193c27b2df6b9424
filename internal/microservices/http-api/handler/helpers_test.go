package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"storehub/internal/microservices/http-api/middleware"
	"storehub/internal/shared"
)

var (
	adminActor = shared.Actor{ID: 1, Role: shared.RoleAdmin}
	userActor  = shared.Actor{ID: 2, Role: shared.RoleUser}
	ownerActor = shared.Actor{ID: 3, Role: shared.RoleStoreOwner}
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterBindingValidators(); err != nil {
		panic(err)
	}
}

// setupRouter returns an engine whose /api group acts as the given caller, standing in
// for the JWT middleware.
func setupRouter(a *shared.Actor) (*gin.Engine, *gin.RouterGroup) {
	r := gin.New()
	api := r.Group("/api")
	if a != nil {
		actor := *a
		api.Use(func(c *gin.Context) {
			c.Set(middleware.ContextActor, actor)
			c.Next()
		})
	}
	return r, api
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewBuffer(raw)
	}
	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
