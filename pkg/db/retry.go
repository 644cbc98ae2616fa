package db

import (
	"errors"
	"strings"
	"time"

	"artisan-marketplace/pkg/errutil"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxTxAttempts = 3

// RunInTransaction executes fn inside a transaction, retrying a bounded
// number of times when the engine reports a transient conflict (deadlock,
// serialization failure, sqlite busy). Domain errors abort immediately;
// exhausted retries surface as a conflict the caller can map to 409.
func RunInTransaction(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = db.Transaction(fn)
		if err == nil || !isTransient(err) {
			return err
		}
		zap.L().Warn("transient transaction failure, retrying", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}
	return errutil.Conflict("transaction conflict, please retry", err)
}

func isTransient(err error) bool {
	var be errutil.BaseError
	if errors.As(err, &be) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize access")
}
