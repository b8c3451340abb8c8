package signature

import (
	"context"

	"github.com/flexprice/contractflow/internal/types"
)

// Repository defines the persistence operations for signature records
type Repository interface {
	Create(ctx context.Context, s *SignatureRecord) error
	Get(ctx context.Context, id string) (*SignatureRecord, error)
	// GetByIdempotencyKey is marked ErrNotFound when no record carries the key
	GetByIdempotencyKey(ctx context.Context, key string) (*SignatureRecord, error)
	List(ctx context.Context, filter *types.SignatureFilter) ([]*SignatureRecord, error)
	// Update persists cancellation and supersession fields
	Update(ctx context.Context, s *SignatureRecord) error
}

// SigningRequestRepository persists outbound signing requests
type SigningRequestRepository interface {
	Create(ctx context.Context, r *SigningRequest) error
	GetByExternalID(ctx context.Context, provider types.ProviderType, externalID string) (*SigningRequest, error)
	Update(ctx context.Context, r *SigningRequest) error
}

// ProviderEventRepository persists the callback dedup ledger
type ProviderEventRepository interface {
	// Create is marked ErrAlreadyExists when (provider, provider_event_id)
	// was seen before
	Create(ctx context.Context, e *ProviderEvent) error
	Get(ctx context.Context, provider types.ProviderType, providerEventID string) (*ProviderEvent, error)
}
