package api

import (
	"net/http" // HTTP status codes
	"time"     // Token lifetime

	"task_rewards/internal/account" // Signup and login
	"task_rewards/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// AuthenticateRequest is the body of POST /authenticate
type AuthenticateRequest struct {
	Username   string `json:"username"`   // Required; checked by the account service
	ReferralID string `json:"referralId"` // Optional referral code of the referrer
}

// AuthenticateHandler signs up a new username or logs in an existing one and returns a token
func AuthenticateHandler(accounts *account.Service, rdb *redis.Client, secret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AuthenticateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, existing, err := accounts.Authenticate(c.Request.Context(), req.Username, req.ReferralID)
		if err != nil {
			respondError(c, err, "An error occurred, please try again later.", logrus.Fields{"username": req.Username})
			return
		}
		if !existing && user.ReferredBy != "" {
			// Referrer's totalReferrals just changed
			_ = utils.DeleteCache(c.Request.Context(), rdb, utils.UserProfileCacheKey(user.ReferredBy))
		}
		// Generate JWT token for both new and existing users
		token, expiresAt, err := utils.GenerateJWT(user.ID, user.Username, secret, ttl)
		if err != nil {
			respondError(c, err, "Failed to generate token", logrus.Fields{"user_id": user.ID})
			return
		}
		message := "User created."
		if existing {
			message = "User exists, navigating to home page."
		}
		// Return user data and token
		c.JSON(http.StatusOK, gin.H{
			"message":      message,   // Human readable outcome
			"user":         user,      // Full user record
			"token":        token,     // Bearer token
			"expiresAt":    expiresAt, // Token expiry
			"existingUser": existing,  // Tells the frontend whether this was a login
		})
	}
}
