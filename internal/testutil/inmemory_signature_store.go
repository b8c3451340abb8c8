package testutil

import (
	"context"

	"github.com/flexprice/contractflow/internal/domain/signature"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
)

// InMemorySignatureStore implements signature.Repository
type InMemorySignatureStore struct {
	*InMemoryStore[*signature.SignatureRecord]
}

var _ signature.Repository = (*InMemorySignatureStore)(nil)

func NewInMemorySignatureStore() *InMemorySignatureStore {
	return &InMemorySignatureStore{
		InMemoryStore: NewInMemoryStore(func(s *signature.SignatureRecord) *signature.SignatureRecord {
			cp := *s
			return &cp
		}),
	}
}

func signatureFilterFn(ctx context.Context, s *signature.SignatureRecord, filter interface{}) bool {
	if s == nil || !CheckTenantFilter(ctx, s.TenantID) || s.Status != types.StatusPublished {
		return false
	}

	f, ok := filter.(*types.SignatureFilter)
	if !ok || f == nil {
		return true
	}

	if len(f.ContractIDs) > 0 && !lo.Contains(f.ContractIDs, s.ContractID) {
		return false
	}
	if len(f.ContractorIDs) > 0 && !lo.Contains(f.ContractorIDs, s.ContractorID) {
		return false
	}
	if f.CurrentOnly && !s.IsCurrent() {
		return false
	}
	if f.SignedBefore != nil && !s.SignedAt.Before(*f.SignedBefore) {
		return false
	}
	return true
}

func signatureSortFn(i, j *signature.SignatureRecord) bool {
	if i.SignedAt.Equal(j.SignedAt) {
		return i.ID < j.ID
	}
	return i.SignedAt.Before(j.SignedAt)
}

// Create enforces the unique idempotency key and the single current
// signature per contractor
func (s *InMemorySignatureStore) Create(ctx context.Context, rec *signature.SignatureRecord) error {
	if rec == nil {
		return ierr.NewError("signature cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.CreateIf(ctx, rec.ID, rec, func(stored *signature.SignatureRecord) error {
		if stored.IdempotencyKey == rec.IdempotencyKey {
			return ierr.NewError("duplicate idempotency key").
				WithHint("Signature already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		if stored.TenantID == rec.TenantID &&
			stored.ContractID == rec.ContractID &&
			stored.ContractorID == rec.ContractorID &&
			stored.IsCurrent() && rec.IsCurrent() {
			return ierr.NewError("current signature exists").
				WithHint("Signature already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return nil
	})
}

func (s *InMemorySignatureStore) Get(ctx context.Context, id string) (*signature.SignatureRecord, error) {
	rec, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !signatureFilterFn(ctx, rec, nil) {
		return nil, ierr.NewError("signature not found").Mark(ierr.ErrNotFound)
	}
	return rec, nil
}

func (s *InMemorySignatureStore) GetByIdempotencyKey(ctx context.Context, key string) (*signature.SignatureRecord, error) {
	rec, found := s.InMemoryStore.Find(ctx, func(rec *signature.SignatureRecord) bool {
		return CheckTenantFilter(ctx, rec.TenantID) && rec.IdempotencyKey == key
	})
	if !found {
		return nil, ierr.NewError("signature not found").Mark(ierr.ErrNotFound)
	}
	return rec, nil
}

func (s *InMemorySignatureStore) List(ctx context.Context, filter *types.SignatureFilter) ([]*signature.SignatureRecord, error) {
	if filter == nil {
		filter = types.NewNoLimitSignatureFilter()
	}
	return s.InMemoryStore.List(ctx, filter, signatureFilterFn, signatureSortFn)
}

func (s *InMemorySignatureStore) Update(ctx context.Context, rec *signature.SignatureRecord) error {
	return s.InMemoryStore.Update(ctx, rec.ID, rec)
}

// InMemorySigningRequestStore implements signature.SigningRequestRepository
type InMemorySigningRequestStore struct {
	*InMemoryStore[*signature.SigningRequest]
}

var _ signature.SigningRequestRepository = (*InMemorySigningRequestStore)(nil)

func NewInMemorySigningRequestStore() *InMemorySigningRequestStore {
	return &InMemorySigningRequestStore{
		InMemoryStore: NewInMemoryStore(func(r *signature.SigningRequest) *signature.SigningRequest {
			cp := *r
			return &cp
		}),
	}
}

func (s *InMemorySigningRequestStore) Create(ctx context.Context, r *signature.SigningRequest) error {
	return s.InMemoryStore.CreateIf(ctx, r.ID, r, func(stored *signature.SigningRequest) error {
		if stored.Provider == r.Provider && stored.ExternalID == r.ExternalID {
			return ierr.NewError("signing request already exists").
				WithHint("Signing request already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return nil
	})
}

// GetByExternalID is not tenant scoped, like the postgres repository
func (s *InMemorySigningRequestStore) GetByExternalID(ctx context.Context, provider types.ProviderType, externalID string) (*signature.SigningRequest, error) {
	r, found := s.InMemoryStore.Find(ctx, func(r *signature.SigningRequest) bool {
		return r.Provider == provider && r.ExternalID == externalID && r.Status == types.StatusPublished
	})
	if !found {
		return nil, ierr.NewError("signing request not found").
			WithHint("Signing request not found").
			Mark(ierr.ErrNotFound)
	}
	return r, nil
}

func (s *InMemorySigningRequestStore) Update(ctx context.Context, r *signature.SigningRequest) error {
	return s.InMemoryStore.Update(ctx, r.ID, r)
}

// InMemoryProviderEventStore implements signature.ProviderEventRepository
type InMemoryProviderEventStore struct {
	*InMemoryStore[*signature.ProviderEvent]
}

var _ signature.ProviderEventRepository = (*InMemoryProviderEventStore)(nil)

func NewInMemoryProviderEventStore() *InMemoryProviderEventStore {
	return &InMemoryProviderEventStore{
		InMemoryStore: NewInMemoryStore(func(e *signature.ProviderEvent) *signature.ProviderEvent {
			cp := *e
			return &cp
		}),
	}
}

func (s *InMemoryProviderEventStore) Create(ctx context.Context, e *signature.ProviderEvent) error {
	return s.InMemoryStore.CreateIf(ctx, e.ID, e, func(stored *signature.ProviderEvent) error {
		if stored.Provider == e.Provider && stored.ProviderEventID == e.ProviderEventID {
			return ierr.NewError("provider event already exists").
				WithHint("Provider event already processed").
				Mark(ierr.ErrAlreadyExists)
		}
		return nil
	})
}

func (s *InMemoryProviderEventStore) Get(ctx context.Context, provider types.ProviderType, providerEventID string) (*signature.ProviderEvent, error) {
	e, found := s.InMemoryStore.Find(ctx, func(e *signature.ProviderEvent) bool {
		return e.Provider == provider && e.ProviderEventID == providerEventID
	})
	if !found {
		return nil, ierr.NewError("provider event not found").Mark(ierr.ErrNotFound)
	}
	return e, nil
}
