package addon

import (
	"context"

	"github.com/flexprice/contractflow/internal/types"
)

// Repository defines the persistence operations for plan change addons
type Repository interface {
	Create(ctx context.Context, a *PlanChangeAddon) error
	Get(ctx context.Context, id string) (*PlanChangeAddon, error)
	List(ctx context.Context, filter *types.AddonFilter) ([]*PlanChangeAddon, error)
}
