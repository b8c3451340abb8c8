package revision

import (
	"time"

	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/types"
)

// Revision is one round of a negotiation over a contract's billing terms
type Revision struct {
	ID             string               `db:"id" json:"id"`
	ContractID     string               `db:"contract_id" json:"contract_id"`
	RevisionNumber int                  `db:"revision_number" json:"revision_number"`
	Round          int                  `db:"round" json:"round"`
	ProposedBy     types.ProposedBy     `db:"proposed_by" json:"proposed_by"`
	RevisionStatus types.RevisionStatus `db:"revision_status" json:"revision_status"`

	ProposedTerms contract.ContractTerms `db:"proposed_terms" json:"proposed_terms"`
	// PreviousTerms snapshots the effective terms at proposal time
	PreviousTerms contract.ContractTerms `db:"previous_terms" json:"previous_terms"`

	Reason string `db:"reason" json:"reason,omitempty"`
	// ParentRevisionID is set on counter-proposals and points at the round
	// they answer
	ParentRevisionID *string `db:"parent_revision_id" json:"parent_revision_id,omitempty"`

	ResolvedAt          *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy          string     `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolverExplanation string     `db:"resolver_explanation" json:"resolver_explanation,omitempty"`

	types.BaseModel
}

func (r *Revision) IsPending() bool {
	return r.RevisionStatus == types.RevisionStatusPending
}

// IsCounterProposal reports whether the revision answers an earlier round
func (r *Revision) IsCounterProposal() bool {
	return r.ParentRevisionID != nil
}

// AwaitingParty is the party expected to resolve the revision
func (r *Revision) AwaitingParty() types.ProposedBy {
	return r.ProposedBy.Counterparty()
}

// NegotiationState is the review state this revision puts its contract in
// while pending.
func (r *Revision) NegotiationState() types.NegotiationState {
	if !r.IsPending() {
		return types.NegotiationStateActive
	}
	return types.NegotiationStateFor(r.ProposedBy)
}

// CanCounter reports whether rejecting the revision produces a
// counter-proposal instead of ending the negotiation. Only a company
// proposal that is not itself a counter can be countered by the contractor.
func (r *Revision) CanCounter() bool {
	return r.ProposedBy == types.ProposedByCompany && !r.IsCounterProposal()
}

func (r *Revision) Resolve(status types.RevisionStatus, resolvedBy, explanation string, at time.Time) {
	r.RevisionStatus = status
	r.ResolvedAt = &at
	r.ResolvedBy = resolvedBy
	r.ResolverExplanation = explanation
	r.UpdatedAt = at
	r.UpdatedBy = resolvedBy
}
