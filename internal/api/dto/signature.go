package dto

import (
	"github.com/flexprice/contractflow/internal/domain/signature"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/flexprice/contractflow/internal/validator"
)

type RecordSignatureRequest struct {
	ContractorID string             `json:"contractor_id" validate:"required"`
	Provider     types.ProviderType `json:"provider" validate:"required"`
	Proof        signature.Proof    `json:"proof" validate:"required"`
	// TermsVersion is the version the signer was shown. When set, the
	// signature is refused if the contract moved to other terms.
	TermsVersion *int `json:"terms_version,omitempty" validate:"omitempty,min=1"`
}

func (r *RecordSignatureRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Provider.Validate()
}

type CancelSignatureRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

func (r *CancelSignatureRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type CreateSigningRequestRequest struct {
	ContractorID string             `json:"contractor_id" validate:"required"`
	Provider     types.ProviderType `json:"provider" validate:"required"`
}

func (r *CreateSigningRequestRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Provider.Validate()
}

type SignatureResponse struct {
	*signature.SignatureRecord
	Outcome types.SignatureOutcome `json:"outcome,omitempty"`
}

type SigningRequestResponse struct {
	*signature.SigningRequest
}

// ProviderCallbackResponse is always rendered with 200 so providers stop
// retrying
type ProviderCallbackResponse struct {
	Outcome     types.CallbackOutcome `json:"outcome"`
	SignatureID string                `json:"signature_id,omitempty"`
	Detail      string                `json:"detail,omitempty"`
}

// ListSignaturesResponse represents the response for listing signatures
type ListSignaturesResponse = types.ListResponse[*SignatureResponse]
