package testutil

import (
	"context"
	"sync"
	"time"

	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/postgres"
	"github.com/flexprice/contractflow/internal/types"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

type mockTxKey struct{}

// mockTx tracks the advisory locks taken inside one outermost WithTx call
type mockTx struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// MockPostgresClient is a mock implementation of postgres client for testing.
// There is no rollback, writes made before a failure stay in the stores.
// Advisory locks behave like pg_advisory_xact_lock: they are held until the
// outermost transaction returns.
type MockPostgresClient struct {
	logger *logger.Logger

	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
		locks:  make(map[string]chan struct{}),
	}
}

// WithTx executes the given function within a transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	// If we're already in a transaction, reuse it
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx := &mockTx{held: make(map[string]struct{})}
	defer c.release(tx)

	return fn(context.WithValue(ctx, mockTxKey{}, tx))
}

func txFromContext(ctx context.Context) (*mockTx, bool) {
	tx, ok := ctx.Value(mockTxKey{}).(*mockTx)
	return tx, ok
}

// LockKey blocks until the key is free or the request timeout elapses
func (c *MockPostgresClient) LockKey(ctx context.Context, req types.LockRequest) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return ierr.NewError("LockKey must be called inside transaction").Mark(ierr.ErrSystem)
	}

	tx.mu.Lock()
	_, reentrant := tx.held[req.Key]
	tx.mu.Unlock()
	if reentrant {
		return nil
	}

	sem := c.semaphore(req.Key)
	timeout := req.GetTimeout()

	if timeout <= 0 {
		select {
		case sem <- struct{}{}:
			c.hold(tx, req.Key)
			return nil
		default:
			return lockConflict(req.Key)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		c.hold(tx, req.Key)
		return nil
	case <-timer.C:
		return lockConflict(req.Key)
	case <-ctx.Done():
		return ierr.WithError(ctx.Err()).
			WithMessage("failed to acquire lock").
			Mark(ierr.ErrDatabase)
	}
}

// TryLockKey takes the lock only if it is free
func (c *MockPostgresClient) TryLockKey(ctx context.Context, key string) (bool, error) {
	tx, ok := txFromContext(ctx)
	if !ok {
		return false, ierr.NewError("TryLockKey must be called inside transaction").Mark(ierr.ErrSystem)
	}

	tx.mu.Lock()
	_, reentrant := tx.held[key]
	tx.mu.Unlock()
	if reentrant {
		return true, nil
	}

	select {
	case c.semaphore(key) <- struct{}{}:
		c.hold(tx, key)
		return true, nil
	default:
		return false, nil
	}
}

func (c *MockPostgresClient) semaphore(key string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	sem, ok := c.locks[key]
	if !ok {
		sem = make(chan struct{}, 1)
		c.locks[key] = sem
	}
	return sem
}

func (c *MockPostgresClient) hold(tx *mockTx, key string) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.held[key] = struct{}{}
}

func (c *MockPostgresClient) release(tx *mockTx) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	for key := range tx.held {
		<-c.semaphore(key)
	}
	tx.held = make(map[string]struct{})
}

func lockConflict(key string) error {
	return ierr.NewError("lock already held").
		WithHint("Someone else is already acting on this contract, refresh and retry").
		WithReportableDetails(map[string]any{"key": key}).
		Mark(ierr.ErrConflict)
}
