package domain

import (
	"strings"
	"time"
)

// CompletionStatus is the progress of a task, either for one user or as a task-wide rollup
type CompletionStatus string

const (
	StatusNone     CompletionStatus = "none"     // Nothing happened yet (task rollup only)
	StatusClaim    CompletionStatus = "claim"    // Started, reward can be claimed
	StatusComplete CompletionStatus = "complete" // Terminal, reward credited
)

// rank orders statuses so transitions can be checked for monotonicity
func (s CompletionStatus) rank() int {
	switch s {
	case StatusClaim:
		return 1
	case StatusComplete:
		return 2
	default:
		return 0
	}
}

// CanAdvanceTo reports whether moving from s to next keeps the status monotonic
func (s CompletionStatus) CanAdvanceTo(next CompletionStatus) bool {
	return next.rank() > s.rank()
}

// Task Model
type Task struct {
	ID             string           `gorm:"primaryKey;type:varchar(36)" json:"id"`                        // UUID
	TaskName       string           `gorm:"type:varchar(255);not null" json:"taskName"`                   // Display name
	Points         int64            `gorm:"not null" json:"points"`                                       // Reward credited on completion
	Category       string           `gorm:"type:varchar(64)" json:"category"`                             // Free-form category
	TaskCompletion CompletionStatus `gorm:"type:varchar(16);not null;default:none" json:"taskCompletion"` // Task-wide rollup, used by the open heuristic
	OpensCount     int64            `gorm:"not null;default:0" json:"opensCount"`                         // Times the external link was opened
	CreatedAt      time.Time        `json:"createdAt"`                                                    // Creation time
}

// Validate checks the admin-supplied fields of a new task
func (t *Task) Validate() error {
	if strings.TrimSpace(t.TaskName) == "" || t.Points <= 0 {
		return ErrInvalidTask
	}
	return nil
}

// TaskCompletion is the per-(user, task) record; a missing row means the user never interacted with the task
type TaskCompletion struct {
	ID        uint             `gorm:"primaryKey" json:"-"`                                               // Primary key
	UserID    string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_task" json:"-"`      // Owning user
	TaskID    string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_task" json:"taskId"` // Referenced task, kept after task deletion
	Status    CompletionStatus `gorm:"type:varchar(16);not null" json:"status"`                           // claim or complete
	UpdatedAt time.Time        `json:"updatedAt"`                                                         // Last transition
}
