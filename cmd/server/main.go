package main

import (
	"context" // context package is needed for Redis operations
	"time"    // Limiter cleanup interval

	"task_rewards/internal/account"    // Signup and login
	"task_rewards/internal/api"        // Custom package for API handlers
	"task_rewards/internal/config"     // Custom package for configuration
	"task_rewards/internal/db"         // Database connection
	"task_rewards/internal/middleware" // Custom package for middleware
	"task_rewards/internal/referral"   // Referral code allocation
	"task_rewards/internal/rewards"    // Task reward engine

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database
	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Per-IP limiter for /authenticate, pruned every 10 minutes
	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	stop := make(chan struct{})
	defer close(stop)
	limiter.StartCleanup(10*time.Minute, stop)

	r := api.NewRouter(api.Deps{
		Accounts:      account.NewService(database, referral.NewAllocator(cfg.ReferralCodeLength, cfg.ReferralMaxAttempts)),
		Rewards:       rewards.NewService(database),
		Redis:         redisClient,
		SigningSecret: cfg.JWTSecret,
		VerifySecrets: cfg.VerificationSecrets(),
		TokenTTL:      cfg.TokenTTL,
		CacheTTL:      cfg.CacheTTL,
		AuthLimiter:   limiter,
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"port":      cfg.AppPort,  // Listen port
		"db_driver": cfg.DBDriver, // Store backend
	}).Info("Server running")
	if err := r.Run(":" + cfg.AppPort); err != nil { // Start the server on port cfg.AppPort
		logrus.Fatalf("server stopped: %v", err)
	}
}
