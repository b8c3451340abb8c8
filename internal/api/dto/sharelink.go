package dto

import (
	"time"

	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/domain/signature"
	"github.com/flexprice/contractflow/internal/validator"
)

type CreateShareLinkRequest struct {
	ContractorID string `json:"contractor_id" validate:"required"`
	// ExpiresInHours falls back to the configured ttl when zero
	ExpiresInHours int `json:"expires_in_hours,omitempty" validate:"omitempty,min=1,max=2160"`
}

func (r *CreateShareLinkRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateShareLinkRequest) TTL() time.Duration {
	return time.Duration(r.ExpiresInHours) * time.Hour
}

type ShareLinkResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SharedContractResponse is what a share link holder may see. The contract
// lists their own contractor only, as do the signatures.
type SharedContractResponse struct {
	Contract    *contract.Contract           `json:"contract"`
	Contractor  *contract.Contractor         `json:"contractor"`
	Signatures  []*signature.SignatureRecord `json:"signatures"`
	Negotiation *NegotiationStateResponse    `json:"negotiation"`
	ExpiresAt   time.Time                    `json:"expires_at"`
}
