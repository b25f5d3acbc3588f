package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"task_rewards/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Context keys set by JWTAuthMiddleware
const (
	ContextUserID   = "userID"   // Verified user ID
	ContextUsername = "username" // Username bound into the token
)

// JWTAuthMiddleware validates bearer tokens against the current and retired secrets
func JWTAuthMiddleware(secrets []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string and parse it
		claims, err := utils.ParseJWT(tokenStr, secrets...)   // Parse the JWT token
		if err != nil {
			logrus.WithField("error", err.Error()).Info("Rejected token") // Expected outcome, not an error
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(ContextUserID, claims.UserID)     // Store userID in context
		c.Set(ContextUsername, claims.Username) // Store username in context
		c.Next()                                // Proceed to the next handler
	}
}

// UserID returns the verified user ID stored by JWTAuthMiddleware
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserID)
	return id, id != ""
}
