package api

import (
	"net/http" // HTTP status codes
	"time"     // Durations

	"task_rewards/internal/account"    // Signup and login
	"task_rewards/internal/metrics"    // Prometheus handler
	"task_rewards/internal/middleware" // Custom middleware
	"task_rewards/internal/rewards"    // Reward service

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Deps carries everything the routes need
type Deps struct {
	Accounts      *account.Service        // Users
	Rewards       *rewards.Service        // Tasks and wallet credits
	Redis         *redis.Client           // Read-through cache, nil disables caching
	SigningSecret string                  // Secret for new tokens
	VerifySecrets []string                // Secrets accepted when verifying tokens
	TokenTTL      time.Duration           // Token validity window
	CacheTTL      time.Duration           // Cache entry lifetime
	AuthLimiter   *middleware.RateLimiter // Limits /authenticate, nil disables limiting
}

// NewRouter builds the gin engine with every route of the service
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.MetricsMiddleware())

	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "Server is working") }) // Liveness
	r.GET("/metrics", gin.WrapH(metrics.Handler()))                                   // Prometheus

	// Auth route (public, rate limited)
	authChain := []gin.HandlerFunc{}
	if d.AuthLimiter != nil {
		authChain = append(authChain, d.AuthLimiter.Handler())
	}
	authChain = append(authChain, AuthenticateHandler(d.Accounts, d.Redis, d.SigningSecret, d.TokenTTL))
	r.POST("/authenticate", authChain...)

	// Routes protected by JWT
	authed := r.Group("/")
	authed.Use(middleware.JWTAuthMiddleware(d.VerifySecrets))
	authed.GET("/user", ProfileHandler(d.Accounts, d.Redis, d.CacheTTL))
	authed.GET("/tasks", ListTasksHandler(d.Rewards, d.Redis, d.CacheTTL))
	authed.PUT("/task/:id/start", StartTaskHandler(d.Rewards, d.Redis))
	authed.PUT("/task/:id/claim", ClaimTaskHandler(d.Rewards, d.Redis))
	authed.PUT("/task/:id/open", OpenTaskHandler(d.Rewards, d.Redis))

	// Admin routes (JWT plus role re-checked from the database)
	admin := authed.Group("/")
	admin.Use(middleware.AdminOnlyMiddleware(d.Accounts))
	admin.POST("/tasks", CreateTaskHandler(d.Rewards, d.Redis))
	admin.DELETE("/task/:id", DeleteTaskHandler(d.Rewards, d.Redis))

	return r
}
