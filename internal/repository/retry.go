package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

// readRetryDelay is the pause before the single retry of a failed read.
var readRetryDelay = 50 * time.Millisecond

// withReadRetry runs a read once more after a short pause when it fails with a storage error.
// Missing rows and caller cancellation are returned immediately. Reads on a transaction-bound
// handle run once, since a failed statement may have aborted the transaction.
func withReadRetry[T any](ctx context.Context, db *gorm.DB, op func() (T, error)) (T, error) {
	if inTransaction(db) {
		return op()
	}
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(readRetryDelay)),
		backoff.WithMaxTries(2),
	)
}

func inTransaction(db *gorm.DB) bool {
	if db == nil || db.Statement == nil {
		return false
	}
	committer, ok := db.Statement.ConnPool.(gorm.TxCommitter)
	return ok && committer != nil
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, ErrDBNotReady),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
