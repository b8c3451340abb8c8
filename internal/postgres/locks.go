package postgres

import (
	"context"
	"errors"
	"fmt"

	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/lib/pq"
)

// LockKey acquires a transaction scoped advisory lock. It is released on
// commit or rollback and must be called inside a transaction.
func (db *DB) LockKey(ctx context.Context, req types.LockRequest) error {
	tx, ok := GetTx(ctx)
	if !ok {
		return ierr.NewError("LockKey must be called inside transaction").Mark(ierr.ErrSystem)
	}

	timeout := req.GetTimeout()

	if timeout <= 0 {
		acquired, err := db.TryLockKey(ctx, req.Key)
		if err != nil {
			return err
		}
		if !acquired {
			return ierr.NewError("lock already held").
				WithHint("Someone else is already acting on this contract, refresh and retry").
				WithReportableDetails(map[string]any{"key": req.Key}).
				Mark(ierr.ErrConflict)
		}
		return nil
	}

	// lock_timeout is reset on commit or rollback
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", timeout.Milliseconds())); err != nil {
		return ierr.WithError(err).
			WithMessage("failed to set lock timeout").
			Mark(ierr.ErrDatabase)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, req.Key); err != nil {
		if isLockTimeoutError(err) {
			return ierr.WithError(err).
				WithMessagef("failed to acquire lock within %v", timeout).
				WithHint("Someone else is already acting on this contract, refresh and retry").
				Mark(ierr.ErrConflict)
		}
		return ierr.WithError(err).
			WithMessage("failed to acquire lock").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

// isLockTimeoutError reports PostgreSQL error 55P03 (lock_not_available)
func isLockTimeoutError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "55P03"
	}
	return false
}

// TryLockKey tries acquiring the advisory lock immediately and reports
// whether it was granted
func (db *DB) TryLockKey(ctx context.Context, key string) (bool, error) {
	tx, ok := GetTx(ctx)
	if !ok {
		return false, ierr.NewError("TryLockKey must be called inside transaction").Mark(ierr.ErrSystem)
	}

	var acquired bool
	if err := tx.GetContext(ctx, &acquired, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return false, ierr.WithError(err).
			WithMessage("failed to try lock").
			Mark(ierr.ErrDatabase)
	}
	return acquired, nil
}
