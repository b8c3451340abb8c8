package types

import (
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/samber/lo"
)

type RevisionStatus string

const (
	RevisionStatusPending  RevisionStatus = "pending"
	RevisionStatusApproved RevisionStatus = "approved"
	RevisionStatusRejected RevisionStatus = "rejected"
)

// ProposedBy is the party that authored a revision
type ProposedBy string

const (
	ProposedByCompany    ProposedBy = "company"
	ProposedByContractor ProposedBy = "contractor"
)

func (p ProposedBy) Validate() error {
	if !lo.Contains([]ProposedBy{ProposedByCompany, ProposedByContractor}, p) {
		return ierr.NewError("invalid proposer").
			WithHint("Proposed by must be either company or contractor").
			WithReportableDetails(map[string]any{
				"proposed_by": p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Counterparty is the party expected to resolve a revision authored by p
func (p ProposedBy) Counterparty() ProposedBy {
	if p == ProposedByCompany {
		return ProposedByContractor
	}
	return ProposedByCompany
}

// NegotiationState is derived from the contract status and the pending
// revision, it is never stored.
type NegotiationState string

const (
	NegotiationStateActive                   NegotiationState = "active"
	NegotiationStateAwaitingContractorReview NegotiationState = "awaiting_contractor_review"
	NegotiationStateAwaitingCompanyReview    NegotiationState = "awaiting_company_review"
)

// NegotiationStateFor returns the review state a pending revision authored
// by p puts the contract in.
func NegotiationStateFor(p ProposedBy) NegotiationState {
	if p == ProposedByCompany {
		return NegotiationStateAwaitingContractorReview
	}
	return NegotiationStateAwaitingCompanyReview
}

type ResolutionOutcome string

const (
	ResolutionApprove ResolutionOutcome = "approve"
	ResolutionReject  ResolutionOutcome = "reject"
)

func (o ResolutionOutcome) Validate() error {
	if !lo.Contains([]ResolutionOutcome{ResolutionApprove, ResolutionReject}, o) {
		return ierr.NewError("invalid resolution outcome").
			WithHint("Outcome must be either approve or reject").
			WithReportableDetails(map[string]any{
				"outcome": o,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// AddonType classifies a plan change addon by what the approved revision
// changed.
type AddonType string

const (
	AddonTypeValueChange AddonType = "value_change"
	AddonTypePlanChange  AddonType = "plan_change"
	AddonTypeTermsChange AddonType = "terms_change"
)

type AddonStatus string

const (
	AddonStatusApproved AddonStatus = "approved"
)

// RevisionFilter filters revision listings
type RevisionFilter struct {
	*QueryFilter
	ContractIDs      []string         `json:"contract_ids,omitempty" form:"contract_ids"`
	RevisionStatuses []RevisionStatus `json:"revision_statuses,omitempty" form:"revision_status"`
}

func NewNoLimitRevisionFilter() *RevisionFilter {
	return &RevisionFilter{QueryFilter: NewNoLimitQueryFilter()}
}

// AddonFilter filters plan change addon listings
type AddonFilter struct {
	*QueryFilter
	ContractIDs []string      `json:"contract_ids,omitempty"`
	AddonStatus []AddonStatus `json:"addon_status,omitempty"`
}

func NewNoLimitAddonFilter() *AddonFilter {
	return &AddonFilter{QueryFilter: NewNoLimitQueryFilter()}
}
