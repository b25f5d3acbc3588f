package domain

import "errors"

// Expected business outcomes. Anything else surfacing from the store is a store failure.
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyCompleted   = errors.New("task already completed")
	ErrNotStarted         = errors.New("task must be in 'claim' state before claiming")
	ErrInvalidReferral    = errors.New("invalid referral ID")
	ErrUsernameRequired   = errors.New("username is required")
	ErrInvalidTask        = errors.New("task name and positive points are required")
	ErrInvalidAmount      = errors.New("credit amount must not be negative")
	ErrAlreadyCredited    = errors.New("task reward already credited")
	ErrCodeSpaceExhausted = errors.New("could not reserve a unique referral code")
)

// expected lists the errors that are normal business outcomes rather than failures
var expected = []error{
	ErrTaskNotFound,
	ErrUserNotFound,
	ErrAlreadyCompleted,
	ErrNotStarted,
	ErrInvalidReferral,
	ErrUsernameRequired,
	ErrInvalidTask,
	ErrInvalidAmount,
	ErrAlreadyCredited,
}

// IsExpected reports whether err is a business outcome that should not be logged as an error
func IsExpected(err error) bool {
	for _, e := range expected {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
