package types

import (
	"fmt"
	"time"
)

const DefaultLockTimeout = 30 * time.Second

// LockRequest describes a transaction scoped advisory lock
type LockRequest struct {
	Key string
	// Timeout nil means DefaultLockTimeout, zero or negative fails fast
	Timeout *time.Duration
}

func (r LockRequest) GetTimeout() time.Duration {
	if r.Timeout == nil {
		return DefaultLockTimeout
	}
	return *r.Timeout
}

// SignatureLockKey serializes signature writes of one contractor on one
// contract
func SignatureLockKey(contractID, contractorID string) string {
	return fmt.Sprintf("signature:%s:%s", contractID, contractorID)
}

// ContractCancellationLockKey serializes signature cancellations of one
// contract so the last current signature is seen by exactly one caller
func ContractCancellationLockKey(contractID string) string {
	return fmt.Sprintf("contract-cancellation:%s", contractID)
}
