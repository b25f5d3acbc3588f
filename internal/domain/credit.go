package domain

// CreditSource tells which transition produced a credit
type CreditSource string

const (
	SourceClaim CreditSource = "claim" // Explicit claim after start
	SourceOpen  CreditSource = "open"  // Automatic completion from the opens counter
)

// Credit Model: receipt of the single wallet credit allowed per (user, task)
type Credit struct {
	ID        uint         `gorm:"primaryKey"`                                                 // Primary key
	UserID    string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_credit_user_task"` // Credited user
	TaskID    string       `gorm:"type:varchar(36);not null;uniqueIndex:idx_credit_user_task"` // Task that paid out
	Amount    int64        `gorm:"not null"`                                                   // Points added to the wallet
	Source    CreditSource `gorm:"type:varchar(16);not null"`                                  // claim or open
	CreatedAt int64        `gorm:"autoCreateTime:milli"`                                       // Timestamp of creation in milliseconds
}
