package dto

import (
	"github.com/flexprice/contractflow/internal/domain/addon"
	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/domain/revision"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/flexprice/contractflow/internal/validator"
)

type ProposeRevisionRequest struct {
	ProposedBy types.ProposedBy       `json:"proposed_by" validate:"required"`
	Terms      contract.ContractTerms `json:"terms"`
	Reason     string                 `json:"reason,omitempty" validate:"max=2000"`
}

// Validate checks the shape of the proposal. Whether the terms change the
// contract is decided against the stored contract.
func (r *ProposeRevisionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.ProposedBy.Validate(); err != nil {
		return err
	}
	if r.Terms.IsEmpty() {
		return EmptyRevisionError("terms")
	}
	return r.Terms.Validate()
}

type ResolveRevisionRequest struct {
	Outcome     types.ResolutionOutcome `json:"outcome" validate:"required"`
	Explanation string                  `json:"explanation,omitempty" validate:"max=2000"`
	// CounterTerms is required when the contractor rejects a company
	// proposal
	CounterTerms *contract.ContractTerms `json:"counter_terms,omitempty"`
}

func (r *ResolveRevisionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.Outcome.Validate(); err != nil {
		return err
	}
	if r.CounterTerms != nil {
		return r.CounterTerms.Validate()
	}
	return nil
}

// EmptyRevisionError marks a proposal that would not change the contract
func EmptyRevisionError(field string) error {
	return ierr.WithError(revision.ErrEmptyRevision).
		WithHintf("The proposed %s do not change the contract", field).
		WithReportableDetails(map[string]any{
			field: "must change at least one term",
		}).
		Mark(ierr.ErrValidation)
}

type RevisionResponse struct {
	*revision.Revision
}

// ResolveRevisionResponse carries the resolved revision and what the
// resolution produced
type ResolveRevisionResponse struct {
	Revision *revision.Revision `json:"revision"`
	// CounterRevision is set when a rejection turned into a counter-proposal
	CounterRevision  *revision.Revision     `json:"counter_revision,omitempty"`
	Addon            *addon.PlanChangeAddon `json:"addon,omitempty"`
	NegotiationState types.NegotiationState `json:"negotiation_state"`
}

type NegotiationStateResponse struct {
	ContractID      string                 `json:"contract_id"`
	ContractStatus  types.ContractStatus   `json:"contract_status"`
	State           types.NegotiationState `json:"state"`
	TermsVersion    int                    `json:"terms_version"`
	PendingRevision *revision.Revision     `json:"pending_revision,omitempty"`
}

// ListRevisionsResponse represents the response for listing revisions
type ListRevisionsResponse = types.ListResponse[*RevisionResponse]
