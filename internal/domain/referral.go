package domain

// ReferralCode Model: reservation row that makes a referral code globally unique
type ReferralCode struct {
	Code      string `gorm:"primaryKey;type:varchar(32)"` // The code itself
	UserID    string `gorm:"type:varchar(36);not null"`   // User the code was reserved for
	CreatedAt int64  `gorm:"autoCreateTime:milli"`        // Timestamp of reservation in milliseconds
}
