package testutil

import (
	"context"

	"github.com/flexprice/contractflow/internal/domain/addon"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
)

// InMemoryAddonStore implements addon.Repository
type InMemoryAddonStore struct {
	*InMemoryStore[*addon.PlanChangeAddon]
}

var _ addon.Repository = (*InMemoryAddonStore)(nil)

func NewInMemoryAddonStore() *InMemoryAddonStore {
	return &InMemoryAddonStore{
		InMemoryStore: NewInMemoryStore(func(a *addon.PlanChangeAddon) *addon.PlanChangeAddon {
			cp := *a
			return &cp
		}),
	}
}

func addonFilterFn(ctx context.Context, a *addon.PlanChangeAddon, filter interface{}) bool {
	if a == nil || !CheckTenantFilter(ctx, a.TenantID) || a.Status != types.StatusPublished {
		return false
	}

	f, ok := filter.(*types.AddonFilter)
	if !ok || f == nil {
		return true
	}

	if len(f.ContractIDs) > 0 && !lo.Contains(f.ContractIDs, a.ContractID) {
		return false
	}
	if len(f.AddonStatus) > 0 && !lo.Contains(f.AddonStatus, a.AddonStatus) {
		return false
	}
	return true
}

func addonSortFn(i, j *addon.PlanChangeAddon) bool {
	if i.ContractID != j.ContractID {
		return i.ContractID < j.ContractID
	}
	if !i.RequestDate.Equal(j.RequestDate) {
		return i.RequestDate.Before(j.RequestDate)
	}
	return i.RevisionNumber < j.RevisionNumber
}

func (s *InMemoryAddonStore) Create(ctx context.Context, a *addon.PlanChangeAddon) error {
	if a == nil {
		return ierr.NewError("addon cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, a.ID, a)
}

func (s *InMemoryAddonStore) Get(ctx context.Context, id string) (*addon.PlanChangeAddon, error) {
	a, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !addonFilterFn(ctx, a, nil) {
		return nil, ierr.NewError("addon not found").Mark(ierr.ErrNotFound)
	}
	return a, nil
}

func (s *InMemoryAddonStore) List(ctx context.Context, filter *types.AddonFilter) ([]*addon.PlanChangeAddon, error) {
	if filter == nil {
		filter = types.NewNoLimitAddonFilter()
	}
	return s.InMemoryStore.List(ctx, filter, addonFilterFn, addonSortFn)
}
