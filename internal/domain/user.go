package domain

import "time"

// Role is the authorization level of a user
type Role string

const (
	RoleMember Role = "member" // Regular user
	RoleAdmin  Role = "admin"  // May create and delete tasks
)

// User Model
type User struct {
	ID             string           `gorm:"primaryKey;type:varchar(36)" json:"id"`                   // UUID assigned at signup
	Username       string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`   // Unique username
	ReferralID     string           `gorm:"type:varchar(32);uniqueIndex;not null" json:"referralId"` // Unique referral code owned by the user
	ReferredBy     string           `gorm:"type:varchar(36)" json:"referredBy,omitempty"`            // User whose code was cited at signup
	TotalReferrals int64            `gorm:"not null;default:0" json:"totalReferrals"`                // Signups that cited ReferralID
	WalletAmount   int64            `gorm:"not null;default:0" json:"walletAmount"`                  // Points credited by the ledger
	Role           Role             `gorm:"type:varchar(16);not null;default:member" json:"role"`    // member or admin
	CompletedTasks []TaskCompletion `gorm:"foreignKey:UserID" json:"completedTasks"`                 // Per-task completion records
	CreatedAt      time.Time        `json:"createdAt"`                                               // Signup time
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// WalletSnapshot is the public view of a user's wallet returned by task routes
type WalletSnapshot struct {
	ID           string `json:"id"`           // User ID
	WalletAmount int64  `json:"walletAmount"` // Current wallet amount
}
