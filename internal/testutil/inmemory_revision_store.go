package testutil

import (
	"context"

	"github.com/flexprice/contractflow/internal/domain/revision"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
)

// InMemoryRevisionStore implements revision.Repository
type InMemoryRevisionStore struct {
	*InMemoryStore[*revision.Revision]
}

var _ revision.Repository = (*InMemoryRevisionStore)(nil)

func NewInMemoryRevisionStore() *InMemoryRevisionStore {
	return &InMemoryRevisionStore{
		InMemoryStore: NewInMemoryStore(func(r *revision.Revision) *revision.Revision {
			cp := *r
			return &cp
		}),
	}
}

func revisionFilterFn(ctx context.Context, r *revision.Revision, filter interface{}) bool {
	if r == nil || !CheckTenantFilter(ctx, r.TenantID) || r.Status != types.StatusPublished {
		return false
	}

	f, ok := filter.(*types.RevisionFilter)
	if !ok || f == nil {
		return true
	}

	if len(f.ContractIDs) > 0 && !lo.Contains(f.ContractIDs, r.ContractID) {
		return false
	}
	if len(f.RevisionStatuses) > 0 && !lo.Contains(f.RevisionStatuses, r.RevisionStatus) {
		return false
	}
	return true
}

func revisionSortFn(i, j *revision.Revision) bool {
	if i.ContractID != j.ContractID {
		return i.ContractID < j.ContractID
	}
	return i.RevisionNumber < j.RevisionNumber
}

// Create enforces the unique revision number and the single pending slot
// per contract
func (s *InMemoryRevisionStore) Create(ctx context.Context, r *revision.Revision) error {
	if r == nil {
		return ierr.NewError("revision cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.CreateIf(ctx, r.ID, r, func(stored *revision.Revision) error {
		if stored.TenantID != r.TenantID || stored.ContractID != r.ContractID {
			return nil
		}
		if stored.RevisionNumber == r.RevisionNumber || (stored.IsPending() && r.IsPending()) {
			return ierr.NewError("revision conflict").
				WithHint("Someone else is already acting on this contract, refresh and retry").
				WithReportableDetails(map[string]any{
					"contract_id":     r.ContractID,
					"revision_number": r.RevisionNumber,
				}).
				Mark(ierr.ErrConflict)
		}
		return nil
	})
}

func (s *InMemoryRevisionStore) Get(ctx context.Context, id string) (*revision.Revision, error) {
	r, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !revisionFilterFn(ctx, r, nil) {
		return nil, ierr.NewError("revision not found").
			WithHint("Revision not found").
			Mark(ierr.ErrNotFound)
	}
	return r, nil
}

func (s *InMemoryRevisionStore) GetPending(ctx context.Context, contractID string) (*revision.Revision, error) {
	r, found := s.InMemoryStore.Find(ctx, func(r *revision.Revision) bool {
		return revisionFilterFn(ctx, r, nil) && r.ContractID == contractID && r.IsPending()
	})
	if !found {
		return nil, ierr.NewError("no pending revision").
			WithHint("Contract has no pending revision").
			WithReportableDetails(map[string]any{"contract_id": contractID}).
			Mark(ierr.ErrNotFound)
	}
	return r, nil
}

func (s *InMemoryRevisionStore) List(ctx context.Context, filter *types.RevisionFilter) ([]*revision.Revision, error) {
	if filter == nil {
		filter = types.NewNoLimitRevisionFilter()
	}
	return s.InMemoryStore.List(ctx, filter, revisionFilterFn, revisionSortFn)
}

// Resolve mirrors the pending guarded UPDATE of the postgres repository
func (s *InMemoryRevisionStore) Resolve(ctx context.Context, r *revision.Revision) error {
	return s.InMemoryStore.UpdateIf(ctx, r.ID, r, func(stored *revision.Revision) error {
		if stored.TenantID != r.TenantID || !stored.IsPending() {
			return ierr.WithError(revision.ErrStaleRevision).
				WithHint("This revision was already resolved, refresh and retry").
				WithReportableDetails(map[string]any{"revision_id": r.ID}).
				Mark(ierr.ErrVersionConflict)
		}
		return nil
	})
}
