// Package account handles the combined signup/login flow and user lookups.
package account

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strings" // Input trimming

	"task_rewards/internal/domain"   // Importing domain models
	"task_rewards/internal/metrics"  // Signup counters
	"task_rewards/internal/referral" // Referral code allocation

	"github.com/google/uuid"     // User IDs
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Service creates and looks up users
type Service struct {
	db        *gorm.DB
	allocator *referral.Allocator
}

// NewService creates an account service
func NewService(db *gorm.DB, allocator *referral.Allocator) *Service {
	return &Service{db: db, allocator: allocator}
}

// Authenticate logs in an existing username or signs up a new one.
// The returned flag is true when the user already existed; referralCode is ignored in that case.
func (s *Service) Authenticate(ctx context.Context, username, referralCode string) (*domain.User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, false, domain.ErrUsernameRequired
	}
	user, err := s.FindByUsername(ctx, username)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}

	user, err = s.signup(ctx, username, strings.TrimSpace(referralCode))
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with a concurrent signup of the same username; its transaction
		// already linked the referral, ours rolled back, so this is a plain login
		existing, findErr := s.FindByUsername(ctx, username)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return user, false, nil
}

// signup creates the user and links the referral in one transaction:
// an unknown referral code leaves no user behind and no counter changed
func (s *Service) signup(ctx context.Context, username, referralCode string) (*domain.User, error) {
	user := domain.User{
		ID:             uuid.NewString(),
		Username:       username,
		Role:           domain.RoleMember,
		CompletedTasks: []domain.TaskCompletion{},
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if referralCode != "" {
			referrerID, err := s.allocator.LinkReferral(tx, referralCode)
			if err != nil {
				return err
			}
			user.ReferredBy = referrerID
		}
		code, err := s.allocator.GenerateUniqueCode(tx, user.ID)
		if err != nil {
			return err
		}
		user.ReferralID = code
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	referred := referralCode != ""
	metrics.Signups.WithLabelValues(fmt.Sprint(referred)).Inc()
	logrus.WithFields(logrus.Fields{
		"user_id":     user.ID,         // New user ID
		"referral_id": user.ReferralID, // Code allocated to the user
		"referred":    referred,        // Whether a referral code was cited
	}).Info("User signed up")
	return &user, nil
}

// FindByUsername loads a user and their completion records by username
func (s *Service) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.find(ctx, "username = ?", username)
}

// Profile loads a user and their completion records by ID
func (s *Service) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.find(ctx, "id = ?", userID)
}

// Get loads a user by ID without associations
func (s *Service) Get(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// SetRole changes the role of the named user
func (s *Service) SetRole(ctx context.Context, username string, role domain.Role) error {
	user, err := s.find(ctx, "username = ?", strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", user.ID).Update("role", role).Error; err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": user.ID, // Updated user
		"role":    role,    // New role
	}).Info("Role changed")
	return nil
}

func (s *Service) find(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Preload("CompletedTasks").Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.CompletedTasks == nil {
		user.CompletedTasks = []domain.TaskCompletion{} // Render as [] rather than null
	}
	return &user, nil
}
