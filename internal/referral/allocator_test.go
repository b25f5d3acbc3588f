package referral

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"task_rewards/internal/db/dbtest"
	"task_rewards/internal/domain"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func takeCode(t *testing.T, db *gorm.DB, code string) {
	t.Helper()
	require.NoError(t, db.Create(&domain.ReferralCode{Code: code, UserID: "someone"}).Error)
}

func TestRandomCodeUsesAlphabet(t *testing.T) {
	code, err := RandomCode(DefaultLength)
	require.NoError(t, err)
	assert.Len(t, code, DefaultLength)
	for _, r := range code {
		assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected symbol %q", r)
	}
	assert.Len(t, Alphabet, 62)
}

func TestGenerateUniqueCodeReservesCode(t *testing.T) {
	db := dbtest.New(t)
	a := NewAllocator(0, 0)

	code, err := a.GenerateUniqueCode(db, "user-1")
	require.NoError(t, err)
	assert.Len(t, code, DefaultLength)

	var row domain.ReferralCode
	require.NoError(t, db.First(&row, "code = ?", code).Error)
	assert.Equal(t, "user-1", row.UserID)
}

func TestGenerateUniqueCodeRetriesOnCollision(t *testing.T) {
	db := dbtest.New(t)
	takeCode(t, db, "AAAAAA")

	hook := logtest.NewGlobal()
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		logrus.SetLevel(level)
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	})

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	calls := 0
	a := NewAllocator(6, 8)
	a.Generate = func(n int) (string, error) {
		c := codes[calls]
		calls++
		return c, nil
	}

	code, err := a.GenerateUniqueCode(db, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", code)
	assert.Equal(t, 3, calls)

	// Collisions are routine retries, never warnings
	collisions := 0
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Referral code collision" {
			collisions++
			assert.Equal(t, logrus.DebugLevel, entry.Level)
		}
	}
	assert.Equal(t, 2, collisions)
}

func TestGenerateUniqueCodeWidensAfterBudget(t *testing.T) {
	db := dbtest.New(t)
	takeCode(t, db, "AAAAAA")

	var lengths []int
	a := NewAllocator(6, 3)
	a.Generate = func(n int) (string, error) {
		lengths = append(lengths, n)
		if n == 6 {
			return "AAAAAA", nil
		}
		return strings.Repeat("B", n), nil
	}

	code, err := a.GenerateUniqueCode(db, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBB", code)
	assert.Equal(t, []int{6, 6, 6, 8}, lengths)
}

func TestGenerateUniqueCodeTerminatesWhenExhausted(t *testing.T) {
	db := dbtest.New(t)
	for n := 6; n <= 6+maxWidenings*widenStep; n += widenStep {
		takeCode(t, db, strings.Repeat("Z", n))
	}

	calls := 0
	a := NewAllocator(6, 4)
	a.Generate = func(n int) (string, error) {
		calls++
		return strings.Repeat("Z", n), nil
	}

	_, err := a.GenerateUniqueCode(db, "user-1")
	assert.ErrorIs(t, err, domain.ErrCodeSpaceExhausted)
	assert.Equal(t, 4*(maxWidenings+1), calls)
}

func TestGenerateUniqueCodeIsUniqueUnderContention(t *testing.T) {
	db := dbtest.New(t)
	a := NewAllocator(6, 8)
	// A tiny pool forces concurrent callers onto the same candidates
	a.Generate = func(n int) (string, error) {
		return fmt.Sprintf("%0*d", n, rand.Intn(64)), nil
	}

	const workers = 30
	var wg sync.WaitGroup
	codes := make(chan string, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				code, err := a.GenerateUniqueCode(tx, fmt.Sprintf("user-%d", i))
				if err == nil {
					codes <- code
				}
				return err
			})
			if err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(codes)
	close(errs)

	for err := range errs {
		t.Fatalf("allocation failed: %v", err)
	}
	seen := map[string]bool{}
	for c := range codes {
		assert.False(t, seen[c], "code %s handed out twice", c)
		seen[c] = true
	}
	assert.Len(t, seen, workers)
}

func TestLinkReferral(t *testing.T) {
	db := dbtest.New(t)
	alice := domain.User{ID: "alice-id", Username: "alice", ReferralID: "ALICE1", Role: domain.RoleMember}
	require.NoError(t, db.Create(&alice).Error)
	a := NewAllocator(0, 0)

	referrerID, err := a.LinkReferral(db, "ALICE1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, referrerID)

	referrerID, err = a.LinkReferral(db, "NOPE00")
	assert.ErrorIs(t, err, domain.ErrInvalidReferral)
	assert.Empty(t, referrerID)

	var got domain.User
	require.NoError(t, db.First(&got, "id = ?", alice.ID).Error)
	assert.Equal(t, int64(1), got.TotalReferrals)
}
