// Package referral allocates unique referral codes and links signups to their referrer.
package referral

import (
	"crypto/rand" // Unpredictable code symbols
	"errors"      // Error inspection
	"fmt"         // Error wrapping
	"math/big"    // Uniform index into the alphabet

	"task_rewards/internal/domain"  // Importing domain models
	"task_rewards/internal/metrics" // Allocation counters

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/clause"        // Conflict clauses
)

// Alphabet holds the 62 symbols referral codes are drawn from
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	DefaultLength      = 6 // Code length used for new users
	DefaultMaxAttempts = 8 // Reservations tried before the code is widened
	widenStep          = 2 // Characters added per widening
	maxWidenings       = 3 // Widenings tried before giving up
)

// Generator returns a random code of n symbols
type Generator func(n int) (string, error)

// Allocator reserves referral codes in the referral_codes table
type Allocator struct {
	Length      int       // Initial code length
	MaxAttempts int       // Attempts per length
	Generate    Generator // Code source, crypto-random unless replaced
}

// NewAllocator creates an allocator; non-positive values fall back to the defaults
func NewAllocator(length, maxAttempts int) *Allocator {
	if length <= 0 {
		length = DefaultLength
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{Length: length, MaxAttempts: maxAttempts, Generate: RandomCode}
}

// RandomCode draws n symbols uniformly from Alphabet
func RandomCode(n int) (string, error) {
	buf := make([]byte, n)
	limit := big.NewInt(int64(len(Alphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = Alphabet[idx.Int64()]
	}
	return string(buf), nil
}

// GenerateUniqueCode reserves a code for ownerID and returns it.
// Each attempt is a conditional insert, so two callers can never hold the same code.
// After MaxAttempts collisions the length grows by widenStep, at most maxWidenings times.
func (a *Allocator) GenerateUniqueCode(tx *gorm.DB, ownerID string) (string, error) {
	length := a.Length
	for widening := 0; widening <= maxWidenings; widening++ {
		for attempt := 1; attempt <= a.MaxAttempts; attempt++ {
			code, err := a.Generate(length)
			if err != nil {
				return "", fmt.Errorf("generate referral code: %w", err)
			}
			reserved, err := reserve(tx, code, ownerID)
			if err != nil {
				return "", err
			}
			if reserved {
				metrics.ReferralCodeAttempts.Observe(float64(widening*a.MaxAttempts + attempt))
				return code, nil
			}
			metrics.ReferralCodeCollisions.Inc()
			logrus.WithFields(logrus.Fields{
				"length":  length,  // Current code length
				"attempt": attempt, // Attempt at this length
			}).Debug("Referral code collision")
		}
		length += widenStep // Namespace is crowded, widen it
	}
	return "", domain.ErrCodeSpaceExhausted
}

// reserve inserts the code unless it is taken and reports whether this call won it
func reserve(tx *gorm.DB, code, ownerID string) (bool, error) {
	row := domain.ReferralCode{Code: code, UserID: ownerID}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, fmt.Errorf("reserve referral code: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// LinkReferral credits the owner of code with one referral and returns the owner's ID.
// It must run in the signup transaction so that a failed signup leaves the counter untouched.
func (a *Allocator) LinkReferral(tx *gorm.DB, code string) (string, error) {
	var referrer domain.User
	err := tx.Select("id").Where("referral_id = ?", code).First(&referrer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrInvalidReferral
	}
	if err != nil {
		return "", fmt.Errorf("find referrer: %w", err)
	}
	res := tx.Model(&domain.User{}).
		Where("id = ?", referrer.ID).
		Update("total_referrals", gorm.Expr("total_referrals + ?", 1))
	if res.Error != nil {
		return "", fmt.Errorf("link referral: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", domain.ErrInvalidReferral
	}
	return referrer.ID, nil
}
