package testutil

import (
	"context"
	"strings"

	"github.com/flexprice/contractflow/internal/domain/contract"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
)

// InMemoryContractStore implements contract.Repository
type InMemoryContractStore struct {
	*InMemoryStore[*contract.Contract]
}

var _ contract.Repository = (*InMemoryContractStore)(nil)

func NewInMemoryContractStore() *InMemoryContractStore {
	return &InMemoryContractStore{
		InMemoryStore: NewInMemoryStore(cloneContract),
	}
}

func cloneContract(c *contract.Contract) *contract.Contract {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Contractors = lo.Map(c.Contractors, func(ctr *contract.Contractor, _ int) *contract.Contractor {
		ctrCopy := *ctr
		return &ctrCopy
	})
	return &cp
}

func contractFilterFn(ctx context.Context, c *contract.Contract, filter interface{}) bool {
	if c == nil {
		return false
	}

	if !CheckTenantFilter(ctx, c.TenantID) || c.Status != types.StatusPublished {
		return false
	}

	f, ok := filter.(*types.ContractFilter)
	if !ok || f == nil {
		return true
	}

	if len(f.ContractIDs) > 0 && !lo.Contains(f.ContractIDs, c.ID) {
		return false
	}
	if len(f.ContractStatuses) > 0 && !lo.Contains(f.ContractStatuses, c.ContractStatus) {
		return false
	}
	if f.ContractNumber != "" && f.ContractNumber != c.ContractNumber {
		return false
	}
	if f.State != "" {
		touches := lo.ContainsBy(c.Contractors, func(ctr *contract.Contractor) bool {
			return strings.EqualFold(ctr.State, f.State)
		})
		if !touches {
			return false
		}
	}

	return true
}

func contractSortFn(order string) SortFunc[*contract.Contract] {
	return func(i, j *contract.Contract) bool {
		if i.CreatedAt.Equal(j.CreatedAt) {
			return i.ID < j.ID
		}
		if order == types.OrderAsc {
			return i.CreatedAt.Before(j.CreatedAt)
		}
		return i.CreatedAt.After(j.CreatedAt)
	}
}

func (s *InMemoryContractStore) Create(ctx context.Context, c *contract.Contract) error {
	if c == nil {
		return ierr.NewError("contract cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.CreateIf(ctx, c.ID, c, func(stored *contract.Contract) error {
		if stored.TenantID == c.TenantID && stored.ContractNumber == c.ContractNumber {
			return ierr.NewError("contract number already exists").
				WithHint("Contract already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return nil
	})
}

func (s *InMemoryContractStore) Get(ctx context.Context, id string) (*contract.Contract, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !contractFilterFn(ctx, c, nil) {
		return nil, ierr.NewError("contract not found").
			WithHint("Contract not found").
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryContractStore) List(ctx context.Context, filter *types.ContractFilter) ([]*contract.Contract, error) {
	if filter == nil {
		filter = types.NewNoLimitContractFilter()
	}
	return s.InMemoryStore.List(ctx, filter, contractFilterFn, contractSortFn(filter.GetOrder()))
}

func (s *InMemoryContractStore) Count(ctx context.Context, filter *types.ContractFilter) (int, error) {
	if filter == nil {
		filter = types.NewNoLimitContractFilter()
	}
	return s.InMemoryStore.Count(ctx, filter, contractFilterFn)
}

// Update mirrors the version guarded UPDATE of the postgres repository
func (s *InMemoryContractStore) Update(ctx context.Context, c *contract.Contract) error {
	if c == nil {
		return ierr.NewError("contract cannot be nil").Mark(ierr.ErrValidation)
	}

	next := cloneContract(c)
	next.Version = c.Version + 1

	err := s.InMemoryStore.UpdateIf(ctx, c.ID, next, func(stored *contract.Contract) error {
		if stored.TenantID != c.TenantID || stored.Version != c.Version {
			return ierr.NewError("contract version conflict").
				WithHint("Someone else is already acting on this contract, refresh and retry").
				WithReportableDetails(map[string]any{
					"contract_id": c.ID,
					"version":     c.Version,
				}).
				Mark(ierr.ErrVersionConflict)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.Version++
	return nil
}
