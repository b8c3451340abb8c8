package dto

import "github.com/flexprice/contractflow/internal/types"

// InternalContractEvent is the payload of contract.* events
type InternalContractEvent struct {
	ContractID     string               `json:"contract_id"`
	ContractNumber string               `json:"contract_number"`
	ContractStatus types.ContractStatus `json:"contract_status"`
	TenantID       string               `json:"tenant_id"`
}

// InternalRevisionEvent is the payload of revision.* events
type InternalRevisionEvent struct {
	ContractID     string                 `json:"contract_id"`
	RevisionID     string                 `json:"revision_id"`
	RevisionNumber int                    `json:"revision_number"`
	Round          int                    `json:"round"`
	ProposedBy     types.ProposedBy       `json:"proposed_by"`
	RevisionStatus types.RevisionStatus   `json:"revision_status"`
	State          types.NegotiationState `json:"negotiation_state"`
	TenantID       string                 `json:"tenant_id"`
}

// InternalSignatureEvent is the payload of signature.* events
type InternalSignatureEvent struct {
	ContractID   string `json:"contract_id"`
	ContractorID string `json:"contractor_id,omitempty"`
	SignatureID  string `json:"signature_id,omitempty"`
	TermsVersion int    `json:"terms_version"`
	// RevisionID is set on resign_required events
	RevisionID string `json:"revision_id,omitempty"`
	TenantID   string `json:"tenant_id"`
}
