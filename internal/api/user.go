package api

import (
	"net/http" // HTTP status codes
	"time"     // Cache TTL

	"task_rewards/internal/account"    // User lookups
	"task_rewards/internal/domain"     // Importing domain models
	"task_rewards/internal/middleware" // Identity from context
	"task_rewards/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// ProfileHandler returns the caller's user record with their completion records
func ProfileHandler(accounts *account.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := c.Request.Context()
		cacheKey := utils.UserProfileCacheKey(userID)
		var user domain.User
		// Try to get from cache
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &user); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"user": user, "cached": true})
			return
		}
		profile, err := accounts.Profile(ctx, userID)
		if err != nil {
			respondError(c, err, "Error fetching user", logrus.Fields{"user_id": userID})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, profile, ttl) // Cache the profile
		c.JSON(http.StatusOK, gin.H{"user": profile, "cached": false})
	}
}
