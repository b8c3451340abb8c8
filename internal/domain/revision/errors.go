package revision

import "errors"

var (
	// ErrRevisionInProgress is returned when a revision is proposed while
	// another one is still pending on the same contract
	ErrRevisionInProgress = errors.New("a revision is already in progress for this contract")

	// ErrStaleRevision is returned when resolving a revision that is no
	// longer the pending revision of its contract
	ErrStaleRevision = errors.New("revision is no longer pending")

	// ErrEmptyRevision is returned when the proposed terms would not change
	// the contract
	ErrEmptyRevision = errors.New("revision does not change any term")
)
