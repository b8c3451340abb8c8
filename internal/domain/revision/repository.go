package revision

import (
	"context"

	"github.com/flexprice/contractflow/internal/types"
)

// Repository defines the persistence operations for revisions
type Repository interface {
	// Create inserts a revision. (contract_id, revision_number) is unique.
	Create(ctx context.Context, r *Revision) error
	Get(ctx context.Context, id string) (*Revision, error)
	// GetPending returns the pending revision of a contract, marked
	// ErrNotFound when there is none
	GetPending(ctx context.Context, contractID string) (*Revision, error)
	// List returns revisions ordered by contract then revision number
	List(ctx context.Context, filter *types.RevisionFilter) ([]*Revision, error)
	// Resolve persists the resolution of r, only if the stored revision is
	// still pending. A lost race is marked ErrVersionConflict.
	Resolve(ctx context.Context, r *Revision) error
}
