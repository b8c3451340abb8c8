package contract

import (
	"context"

	"github.com/flexprice/contractflow/internal/types"
)

// Repository defines the persistence operations of the contract ledger
type Repository interface {
	// Create persists the contract and its contractors
	Create(ctx context.Context, c *Contract) error
	// Get returns the contract with its contractors in position order
	Get(ctx context.Context, id string) (*Contract, error)
	List(ctx context.Context, filter *types.ContractFilter) ([]*Contract, error)
	Count(ctx context.Context, filter *types.ContractFilter) (int, error)
	// Update writes c only if the stored version still equals c.Version and
	// bumps c.Version on success. A lost race is marked ErrVersionConflict.
	Update(ctx context.Context, c *Contract) error
}
