// Package rewards implements the task completion state machine and the wallet credits it triggers.
package rewards

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping

	"task_rewards/internal/domain"  // Importing domain models
	"task_rewards/internal/metrics" // Transition counters

	"github.com/google/uuid"     // Task IDs
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/clause"        // Row locks
)

// OpenCompletionThreshold is the opens count at which a task completes itself
const OpenCompletionThreshold = 2

// Outcome is the state returned to the caller after a task operation
type Outcome struct {
	Task          domain.Task            // Task after the operation
	Wallet        *domain.WalletSnapshot // Caller's wallet, nil when the operation did not touch it
	PointsAwarded int64                  // Points credited by this call
	Completed     bool                   // Open only: this call fired the automatic completion
}

// Service orchestrates the state machine and the ledger, one transaction per call
type Service struct {
	db      *gorm.DB
	machine TaskStateMachine
	ledger  WalletLedger
}

// NewService creates a reward service on top of db
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Start marks the task as started for the user
func (s *Service) Start(ctx context.Context, userID, taskID string) (*Outcome, error) {
	out := &Outcome{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockTask(tx, taskID); err != nil {
			return err
		}
		if _, err := loadWallet(tx, userID); err != nil {
			return err
		}
		if err := s.machine.Start(tx, userID, taskID); err != nil {
			return err
		}
		return snapshot(tx, userID, taskID, out)
	})
	record("start", err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Claim completes a started task and credits its points once
func (s *Service) Claim(ctx context.Context, userID, taskID string) (*Outcome, error) {
	out := &Outcome{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if _, err := loadWallet(tx, userID); err != nil {
			return err
		}
		if err := s.machine.Claim(tx, userID, taskID); err != nil {
			return err
		}
		if err := s.ledger.Credit(tx, userID, taskID, task.Points, domain.SourceClaim); err != nil {
			return err
		}
		out.PointsAwarded = task.Points
		return snapshot(tx, userID, taskID, out)
	})
	record("claim", err)
	if err != nil {
		return nil, err
	}
	credited(userID, taskID, out.PointsAwarded, domain.SourceClaim)
	return out, nil
}

// RegisterOpen counts an opening of the task's link. The opening that brings
// the count to OpenCompletionThreshold completes the task, once for the whole task,
// and credits the requesting user unless they already completed it.
func (s *Service) RegisterOpen(ctx context.Context, userID, taskID string) (*Outcome, error) {
	out := &Outcome{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Takes the task row lock first, like Start and Claim; it is held until commit
		res := tx.Model(&domain.Task{}).Where("id = ?", taskID).
			Update("opens_count", gorm.Expr("opens_count + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("count task open: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrTaskNotFound
		}
		task, err := loadTask(tx, taskID)
		if err != nil {
			return err
		}
		out.Task = *task
		if task.OpensCount != OpenCompletionThreshold || task.TaskCompletion == domain.StatusComplete {
			return nil
		}
		// Fire once per task: only the caller that flips the rollup proceeds
		res = tx.Model(&domain.Task{}).
			Where("id = ? AND task_completion <> ?", taskID, domain.StatusComplete).
			Update("task_completion", domain.StatusComplete)
		if res.Error != nil {
			return fmt.Errorf("complete task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		out.Completed = true
		if _, err := loadWallet(tx, userID); err != nil {
			return err
		}
		owed, err := s.machine.CompleteFromOpen(tx, userID, taskID)
		if err != nil {
			return err
		}
		if owed {
			if err := s.ledger.Credit(tx, userID, taskID, task.Points, domain.SourceOpen); err != nil {
				return err
			}
			out.PointsAwarded = task.Points
		}
		return snapshot(tx, userID, taskID, out)
	})
	record("open", err)
	if err != nil {
		return nil, err
	}
	if out.PointsAwarded > 0 {
		credited(userID, taskID, out.PointsAwarded, domain.SourceOpen)
	}
	return out, nil
}

// ListTasks returns every task, oldest first
func (s *Service) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask validates and stores a new task
func (s *Service) CreateTask(ctx context.Context, task domain.Task) (*domain.Task, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}
	task.ID = uuid.NewString()
	task.TaskCompletion = domain.StatusNone
	task.OpensCount = 0
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

// DeleteTask removes a task; completion records and credits that reference it are kept
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", taskID).Delete(&domain.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func loadTask(tx *gorm.DB, taskID string) (*domain.Task, error) {
	var task domain.Task
	err := tx.Where("id = ?", taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	return &task, nil
}

// lockTask loads the task under its row lock. Every transition takes this lock
// before touching completion, credit or user rows.
func lockTask(tx *gorm.DB, taskID string) (*domain.Task, error) {
	return loadTask(tx.Clauses(clause.Locking{Strength: "UPDATE"}), taskID)
}

func loadWallet(tx *gorm.DB, userID string) (*domain.WalletSnapshot, error) {
	var user domain.User
	err := tx.Select("id", "wallet_amount").Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &domain.WalletSnapshot{ID: user.ID, WalletAmount: user.WalletAmount}, nil
}

// snapshot re-reads the task and wallet after a transition
func snapshot(tx *gorm.DB, userID, taskID string, out *Outcome) error {
	task, err := loadTask(tx, taskID)
	if err != nil {
		return err
	}
	wallet, err := loadWallet(tx, userID)
	if err != nil {
		return err
	}
	out.Task = *task
	out.Wallet = wallet
	return nil
}

// record counts the outcome of a transition
func record(transition string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case domain.IsExpected(err):
		result = "rejected"
	default:
		result = "error"
	}
	metrics.TaskTransitions.WithLabelValues(transition, result).Inc()
}

// credited logs and counts a committed credit
func credited(userID, taskID string, amount int64, source domain.CreditSource) {
	metrics.PointsCredited.WithLabelValues(string(source)).Add(float64(amount))
	logrus.WithFields(logrus.Fields{
		"user_id": userID, // Credited user
		"task_id": taskID, // Task that paid out
		"amount":  amount, // Points credited
		"source":  source, // claim or open
	}).Info("Wallet credited")
}
