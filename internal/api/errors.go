package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"task_rewards/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// statusFor maps a service error to its HTTP status; unknown errors are store failures
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound), errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyCompleted),
		errors.Is(err, domain.ErrAlreadyCredited),
		errors.Is(err, domain.ErrNotStarted),
		errors.Is(err, domain.ErrInvalidReferral),
		errors.Is(err, domain.ErrUsernameRequired),
		errors.Is(err, domain.ErrInvalidTask),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error response. Business outcomes are logged at info,
// store failures at error with the generic message hiding the cause from the client.
func respondError(c *gin.Context, err error, failureMessage string, fields logrus.Fields) {
	status := statusFor(err)
	entry := logrus.WithFields(fields).WithField("path", c.FullPath())
	if status == http.StatusInternalServerError {
		entry.WithField("error", err.Error()).Error(failureMessage) // Unexpected store failure
		c.JSON(status, gin.H{"error": failureMessage})
		return
	}
	entry.WithField("reason", err.Error()).Info("Request rejected") // Expected outcome
	c.JSON(status, gin.H{"error": err.Error()})
}
