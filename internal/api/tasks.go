package api

import (
	"context"  // Operation signature
	"fmt"      // Message formatting
	"net/http" // HTTP status codes
	"time"     // Cache TTL

	"task_rewards/internal/domain"     // Importing domain models
	"task_rewards/internal/middleware" // Identity from context
	"task_rewards/internal/rewards"    // Reward service
	"task_rewards/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	TaskName string `json:"taskName" binding:"required"`    // Display name
	Points   int64  `json:"points" binding:"required,gt=0"` // Reward
	Category string `json:"category"`                       // Optional category
}

// ListTasksHandler returns every task, served from Redis when cached
func ListTasksHandler(svc *rewards.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var tasks []domain.Task
		// Try to get from cache
		if found, err := utils.GetCache(ctx, rdb, utils.TaskListCacheKey, &tasks); err == nil && found {
			c.JSON(http.StatusOK, tasks)
			return
		}
		tasks, err := svc.ListTasks(ctx)
		if err != nil {
			respondError(c, err, "Error fetching tasks", nil)
			return
		}
		_ = utils.SetCache(ctx, rdb, utils.TaskListCacheKey, tasks, ttl) // Cache the list
		c.JSON(http.StatusOK, tasks)
	}
}

// CreateTaskHandler adds a task (admin only)
func CreateTaskHandler(svc *rewards.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTaskRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		task, err := svc.CreateTask(c.Request.Context(), domain.Task{TaskName: req.TaskName, Points: req.Points, Category: req.Category})
		if err != nil {
			respondError(c, err, "Error adding task", nil)
			return
		}
		_ = utils.DeleteCache(c.Request.Context(), rdb, utils.TaskListCacheKey) // Invalidate task list
		logrus.WithFields(logrus.Fields{
			"task_id": task.ID,     // New task
			"points":  task.Points, // Reward
		}).Info("Task created")
		c.JSON(http.StatusCreated, task)
	}
}

// DeleteTaskHandler removes a task (admin only)
func DeleteTaskHandler(svc *rewards.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID := c.Param("id")
		if err := svc.DeleteTask(c.Request.Context(), taskID); err != nil {
			respondError(c, err, "Error deleting task.", logrus.Fields{"task_id": taskID})
			return
		}
		_ = utils.DeleteCache(c.Request.Context(), rdb, utils.TaskListCacheKey) // Invalidate task list
		logrus.WithField("task_id", taskID).Info("Task deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully."})
	}
}

// StartTaskHandler moves the caller's task to the claim state
func StartTaskHandler(svc *rewards.Service, rdb *redis.Client) gin.HandlerFunc {
	return taskAction(rdb, "Error starting the task", svc.Start, func(out *rewards.Outcome) gin.H {
		return gin.H{
			"message": "Task started. You can now claim your reward.",
			"task":    out.Task,
			"user":    out.Wallet,
		}
	})
}

// ClaimTaskHandler completes the caller's started task and credits its points
func ClaimTaskHandler(svc *rewards.Service, rdb *redis.Client) gin.HandlerFunc {
	return taskAction(rdb, "Error claiming the task", svc.Claim, func(out *rewards.Outcome) gin.H {
		return gin.H{
			"message":       fmt.Sprintf("Task claimed! You earned %d BP.", out.PointsAwarded),
			"task":          out.Task,
			"user":          out.Wallet,
			"pointsAwarded": out.PointsAwarded,
		}
	})
}

// OpenTaskHandler counts an opening of the task's external link
func OpenTaskHandler(svc *rewards.Service, rdb *redis.Client) gin.HandlerFunc {
	return taskAction(rdb, "Error opening task", svc.RegisterOpen, func(out *rewards.Outcome) gin.H {
		if !out.Completed {
			return gin.H{
				"message": fmt.Sprintf("Task opened %d time(s).", out.Task.OpensCount),
				"task":    out.Task,
			}
		}
		message := fmt.Sprintf("Task completed! You earned %d BP.", out.PointsAwarded)
		if out.PointsAwarded == 0 {
			message = "Task completed. Reward was already credited."
		}
		return gin.H{
			"message":       message,
			"task":          out.Task,
			"user":          out.Wallet,
			"pointsAwarded": out.PointsAwarded,
		}
	})
}

// taskAction runs one per-user task operation and renders its outcome
func taskAction(
	rdb *redis.Client,
	failureMessage string,
	op func(ctx context.Context, userID, taskID string) (*rewards.Outcome, error),
	render func(out *rewards.Outcome) gin.H,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		taskID := c.Param("id")
		out, err := op(c.Request.Context(), userID, taskID)
		if err != nil {
			respondError(c, err, failureMessage, logrus.Fields{"user_id": userID, "task_id": taskID})
			return
		}
		// Task counters, statuses and the wallet may all have changed
		_ = utils.DeleteCache(c.Request.Context(), rdb, utils.TaskListCacheKey, utils.UserProfileCacheKey(userID))
		c.JSON(http.StatusOK, render(out))
	}
}
