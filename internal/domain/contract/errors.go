package contract

import "errors"

var (
	// ErrAlreadyLocked is returned when a revision lock is requested on a
	// contract that is already under revision
	ErrAlreadyLocked = errors.New("contract is already locked for revision")

	// ErrNotLocked is returned when an operation needs the revision lock but
	// the contract is not under revision
	ErrNotLocked = errors.New("contract is not under revision")

	// ErrNotRevisable is returned when a revision is requested on a contract
	// that is draft or cancelled
	ErrNotRevisable = errors.New("contract cannot be revised in its current status")
)
