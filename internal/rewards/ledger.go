package rewards

import (
	"fmt" // Error wrapping

	"task_rewards/internal/domain" // Importing domain models

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Conflict clauses
)

// WalletLedger applies point credits. The credits table holds one row per
// (user, task), so a second credit for the same pair is refused by the store.
type WalletLedger struct{}

// Credit adds amount to the user's wallet for completing taskID
func (WalletLedger) Credit(tx *gorm.DB, userID, taskID string, amount int64, source domain.CreditSource) error {
	if amount < 0 {
		return domain.ErrInvalidAmount
	}
	receipt := domain.Credit{UserID: userID, TaskID: taskID, Amount: amount, Source: source}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&receipt)
	if res.Error != nil {
		return fmt.Errorf("record credit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyCredited
	}
	if amount == 0 {
		return nil // Nothing to add; MySQL would report zero changed rows
	}
	// Increment in SQL so concurrent credits for different tasks never overwrite each other
	res = tx.Model(&domain.User{}).Where("id = ?", userID).
		Update("wallet_amount", gorm.Expr("wallet_amount + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
