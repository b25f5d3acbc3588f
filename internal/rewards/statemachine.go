package rewards

import (
	"errors" // Error inspection
	"fmt"    // Error wrapping

	"task_rewards/internal/domain" // Importing domain models

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Conflict clauses
)

// TaskStateMachine owns the per-(user, task) status: none -> claim -> complete.
// Every method runs inside the caller's transaction and only moves a record
// with a conditional write, so concurrent callers can't both win a transition.
type TaskStateMachine struct{}

// Start moves the pair to claim. Starting a claimable pair is a no-op.
func (TaskStateMachine) Start(tx *gorm.DB, userID, taskID string) error {
	rec := domain.TaskCompletion{UserID: userID, TaskID: taskID, Status: domain.StatusClaim}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec) // Insert only if the pair has no record yet
	if res.Error != nil {
		return fmt.Errorf("create completion record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := loadCompletion(tx, userID, taskID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("completion record for task %s disappeared", taskID)
		}
		if current.Status == domain.StatusComplete {
			return domain.ErrAlreadyCompleted
		}
	}
	// Task rollup only ever leaves none here
	return advanceTask(tx, taskID, domain.StatusNone, domain.StatusClaim)
}

// Claim moves a claimable pair to complete. The caller credits the wallet
// only when Claim returns nil.
func (TaskStateMachine) Claim(tx *gorm.DB, userID, taskID string) error {
	won, err := casCompletion(tx, userID, taskID, domain.StatusClaim, domain.StatusComplete)
	if err != nil {
		return err
	}
	if !won {
		current, err := loadCompletion(tx, userID, taskID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotStarted // Claim without start is rejected
		}
		if !current.Status.CanAdvanceTo(domain.StatusComplete) {
			return domain.ErrAlreadyCompleted
		}
		return domain.ErrNotStarted
	}
	return advanceTask(tx, taskID, "", domain.StatusComplete)
}

// CompleteFromOpen moves the pair straight to complete on behalf of the
// opens-count heuristic. It reports false when the pair was already complete,
// in which case no credit is owed.
func (TaskStateMachine) CompleteFromOpen(tx *gorm.DB, userID, taskID string) (bool, error) {
	rec := domain.TaskCompletion{UserID: userID, TaskID: taskID, Status: domain.StatusComplete}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("create completion record: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	return casCompletion(tx, userID, taskID, domain.StatusClaim, domain.StatusComplete)
}

// casCompletion updates the pair's status only if it still equals from
func casCompletion(tx *gorm.DB, userID, taskID string, from, to domain.CompletionStatus) (bool, error) {
	res := tx.Model(&domain.TaskCompletion{}).
		Where("user_id = ? AND task_id = ? AND status = ?", userID, taskID, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("update completion record: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// loadCompletion returns the pair's record, or nil when there is none.
// The locking read sees rows committed after the transaction's snapshot.
func loadCompletion(tx *gorm.DB, userID, taskID string) (*domain.TaskCompletion, error) {
	var rec domain.TaskCompletion
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ? AND task_id = ?", userID, taskID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load completion record: %w", err)
	}
	return &rec, nil
}

// advanceTask mirrors a transition onto the task rollup without ever moving it backwards.
// An empty from means "any status short of to".
func advanceTask(tx *gorm.DB, taskID string, from, to domain.CompletionStatus) error {
	q := tx.Model(&domain.Task{}).Where("id = ?", taskID)
	if from != "" {
		q = q.Where("task_completion = ?", from)
	} else {
		q = q.Where("task_completion <> ?", to)
	}
	if err := q.Update("task_completion", to).Error; err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}
