package rewards

import (
	"sync"
	"testing"

	"task_rewards/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// lockLog records, in order, the table of every statement that takes a row lock:
// inserts, updates and SELECT ... FOR UPDATE.
type lockLog struct {
	mu     sync.Mutex
	tables []string
}

func (l *lockLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tables = nil
}

func (l *lockLog) first(table string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, t := range l.tables {
		if t == table {
			return i
		}
	}
	return -1
}

func watchLocks(t *testing.T, db *gorm.DB) *lockLog {
	t.Helper()
	log := &lockLog{}
	note := func(always bool) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			if _, forUpdate := tx.Statement.Clauses["FOR"]; !always && !forUpdate {
				return
			}
			log.mu.Lock()
			log.tables = append(log.tables, tx.Statement.Table)
			log.mu.Unlock()
		}
	}
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("rewards:lock_log", note(false)))
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("rewards:lock_log", note(true)))
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("rewards:lock_log", note(true)))
	return log
}

func assertTaskLockedFirst(t *testing.T, log *lockLog) {
	t.Helper()
	require.NotEmpty(t, log.tables)
	assert.Equal(t, "tasks", log.tables[0], "locks taken: %v", log.tables)
	if c, u := log.first("task_completions"), log.first("users"); c >= 0 && u >= 0 {
		assert.Less(t, c, u, "locks taken: %v", log.tables)
	}
}

func TestTransitionsLockTaskBeforeCompletionAndUser(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	task := f.task(t, "Order", 15)
	opened := f.task(t, "Opened", 20)
	log := watchLocks(t, f.db)

	log.reset()
	_, err := f.svc.Start(f.ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assertTaskLockedFirst(t, log)

	log.reset()
	_, err = f.svc.Claim(f.ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assertTaskLockedFirst(t, log)
	assert.GreaterOrEqual(t, log.first("users"), 0)

	log.reset()
	_, err = f.svc.RegisterOpen(f.ctx, bob.ID, opened.ID)
	require.NoError(t, err)
	assertTaskLockedFirst(t, log)

	log.reset()
	out, err := f.svc.RegisterOpen(f.ctx, bob.ID, opened.ID)
	require.NoError(t, err)
	require.True(t, out.Completed)
	assertTaskLockedFirst(t, log)
	assert.GreaterOrEqual(t, log.first("task_completions"), 0)
}

func TestStaleCallersAreRejectedByConditionalWrites(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	task := f.task(t, "Stale", 40)
	_, err := f.svc.Start(f.ctx, alice.ID, task.ID)
	require.NoError(t, err)

	// A slow caller observes the pair while it is still claimable
	var seen domain.TaskCompletion
	require.NoError(t, f.db.Where("user_id = ? AND task_id = ?", alice.ID, task.ID).First(&seen).Error)
	require.Equal(t, domain.StatusClaim, seen.Status)

	// Another caller completes and gets paid in the meantime
	_, err = f.svc.Claim(f.ctx, alice.ID, task.ID)
	require.NoError(t, err)

	// Acting on what it saw, the slow caller loses every write
	won, err := casCompletion(f.db, alice.ID, task.ID, seen.Status, domain.StatusComplete)
	require.NoError(t, err)
	assert.False(t, won)

	var m TaskStateMachine
	assert.ErrorIs(t, m.Claim(f.db, alice.ID, task.ID), domain.ErrAlreadyCompleted)
	assert.ErrorIs(t, m.Start(f.db, alice.ID, task.ID), domain.ErrAlreadyCompleted)
	owed, err := m.CompleteFromOpen(f.db, alice.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, owed)

	var ledger WalletLedger
	assert.ErrorIs(t, ledger.Credit(f.db, alice.ID, task.ID, task.Points, domain.SourceClaim), domain.ErrAlreadyCredited)

	assert.Equal(t, int64(40), f.wallet(t, alice.ID))
	var credits int64
	require.NoError(t, f.db.Model(&domain.Credit{}).Where("user_id = ?", alice.ID).Count(&credits).Error)
	assert.Equal(t, int64(1), credits)
}
