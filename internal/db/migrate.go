package db

import (
	"task_rewards/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Models lists every table owned by the service, in creation order
func Models() []any {
	return []any{&domain.User{}, &domain.Task{}, &domain.TaskCompletion{}, &domain.Credit{}, &domain.ReferralCode{}}
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
