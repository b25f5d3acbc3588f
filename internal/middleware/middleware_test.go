package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"task_rewards/internal/domain"
	"task_rewards/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers map[string]*domain.User

func (f fakeUsers) Get(_ context.Context, id string) (*domain.User, error) {
	if id == "broken" {
		return nil, errors.New("connection refused")
	}
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, userID, secret string) string {
	t.Helper()
	tok, _, err := utils.GenerateJWT(userID, userID+"-name", secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware([]string{"current", "previous"}), func(c *gin.Context) {
		id, _ := UserID(c)
		c.String(http.StatusOK, id+"/"+c.GetString(ContextUsername))
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", token(t, "u1", "unknown")).Code)

	w := serve(r, http.MethodGet, "/me", token(t, "u1", "previous"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1/u1-name", w.Body.String())
}

func TestAdminOnlyMiddleware(t *testing.T) {
	users := fakeUsers{
		"admin":  {ID: "admin", Role: domain.RoleAdmin},
		"member": {ID: "member", Role: domain.RoleMember},
	}
	r := gin.New()
	r.DELETE("/task/:id", JWTAuthMiddleware([]string{"s"}), AdminOnlyMiddleware(users), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodDelete, "/task/1", token(t, "admin", "s")).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodDelete, "/task/1", token(t, "member", "s")).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodDelete, "/task/1", token(t, "ghost", "s")).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodDelete, "/task/1", token(t, "broken", "s")).Code)
}

func TestAdminOnlyWithoutIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AdminOnlyMiddleware(fakeUsers{}), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/admin", "").Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	r := gin.New()
	r.POST("/authenticate", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/authenticate", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/authenticate", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/authenticate", "").Code)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	for i := 0; i <= maxTrackedClients; i++ {
		rl.getLimiter("client-" + strconv.Itoa(i))
	}
	rl.Cleanup()
	assert.Empty(t, rl.limiters)
}

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/nope", "").Code)
}
