package service

import (
	"context"
	"time"

	"github.com/flexprice/contractflow/internal/api/dto"
	"github.com/flexprice/contractflow/internal/domain/addon"
	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/domain/revision"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
)

// RevisionService drives the two party negotiation over a contract's
// billing terms.
//
//	active --company proposes--> awaiting_contractor_review
//	awaiting_contractor_review --approve--> active (terms applied)
//	awaiting_contractor_review --reject--> awaiting_company_review (counter-proposal)
//	awaiting_company_review --approve--> active (terms applied)
//	awaiting_company_review --reject--> active (terms unchanged)
//
// A contractor may also open a negotiation, the company then answers it
// and a rejection ends it.
type RevisionService interface {
	ProposeRevision(ctx context.Context, contractID string, req dto.ProposeRevisionRequest) (*dto.RevisionResponse, error)
	ResolveRevision(ctx context.Context, revisionID string, req dto.ResolveRevisionRequest) (*dto.ResolveRevisionResponse, error)
	GetNegotiationState(ctx context.Context, contractID string) (*dto.NegotiationStateResponse, error)
	ListRevisions(ctx context.Context, contractID string) (*dto.ListRevisionsResponse, error)
}

type revisionService struct {
	ServiceParams
	contracts ContractService
	notifier  *notifier
}

func NewRevisionService(params ServiceParams) RevisionService {
	return &revisionService{
		ServiceParams: params,
		contracts:     NewContractService(params),
		notifier:      newNotifier(params),
	}
}

func (s *revisionService) ProposeRevision(ctx context.Context, contractID string, req dto.ProposeRevisionRequest) (*dto.RevisionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.ContractRepo.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if current.IsLocked() {
		return nil, revisionInProgressError(contractID, contract.ErrAlreadyLocked)
	}
	if err := validateProposal(current, req.Terms, "terms"); err != nil {
		return nil, err
	}

	var rev *revision.Revision
	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		locked, err := s.contracts.LockForRevision(txCtx, contractID)
		if err != nil {
			if ierr.Is(err, contract.ErrAlreadyLocked) {
				return revisionInProgressError(contractID, err)
			}
			return err
		}

		// terms may have moved between the first read and the lock
		diff := req.Terms.Diff(locked.Terms())
		if diff.IsEmpty() {
			if _, err := s.contracts.Unlock(txCtx, contractID); err != nil {
				return err
			}
			return dto.EmptyRevisionError("terms")
		}

		number, err := s.contracts.ReserveRevisionNumber(txCtx, contractID)
		if err != nil {
			return err
		}

		rev = &revision.Revision{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REVISION),
			ContractID:     contractID,
			RevisionNumber: number,
			Round:          1,
			ProposedBy:     req.ProposedBy,
			RevisionStatus: types.RevisionStatusPending,
			ProposedTerms:  diff,
			PreviousTerms:  locked.Terms(),
			Reason:         req.Reason,
			BaseModel:      types.GetDefaultBaseModel(txCtx),
		}
		return s.RevisionRepo.Create(txCtx, rev)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("revision proposed",
		"contract_id", contractID,
		"revision_id", rev.ID,
		"revision_number", rev.RevisionNumber,
		"proposed_by", rev.ProposedBy,
		"fields", rev.ProposedTerms.ChangedFields(),
	)
	s.notifier.revisionEvent(ctx, types.WebhookEventRevisionProposed, rev, rev.NegotiationState())

	return &dto.RevisionResponse{Revision: rev}, nil
}

func (s *revisionService) ResolveRevision(ctx context.Context, revisionID string, req dto.ResolveRevisionRequest) (*dto.ResolveRevisionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rev, err := s.RevisionRepo.Get(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCurrentPending(ctx, rev); err != nil {
		return nil, err
	}

	c, err := s.ContractRepo.Get(ctx, rev.ContractID)
	if err != nil {
		return nil, err
	}

	switch {
	case req.Outcome == types.ResolutionApprove:
		return s.approve(ctx, rev, req.Explanation)
	case rev.CanCounter():
		if err := requireExplanation(req.Explanation); err != nil {
			return nil, err
		}
		if req.CounterTerms == nil || req.CounterTerms.IsEmpty() {
			return nil, ierr.WithError(revision.ErrEmptyRevision).
				WithHint("Rejecting a company proposal requires counter terms").
				WithReportableDetails(map[string]any{
					"counter_terms": "required",
				}).
				Mark(ierr.ErrValidation)
		}
		if err := validateProposal(c, *req.CounterTerms, "counter_terms"); err != nil {
			return nil, err
		}
		return s.counter(ctx, rev, *req.CounterTerms, req.Explanation)
	default:
		if err := requireExplanation(req.Explanation); err != nil {
			return nil, err
		}
		return s.reject(ctx, rev, req.Explanation)
	}
}

func (s *revisionService) approve(ctx context.Context, rev *revision.Revision, explanation string) (*dto.ResolveRevisionResponse, error) {
	var (
		applied *contract.Contract
		created *addon.PlanChangeAddon
	)

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		before, err := s.ContractRepo.Get(txCtx, rev.ContractID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		rev.Resolve(types.RevisionStatusApproved, resolver(txCtx, rev), explanation, now)
		if err := s.RevisionRepo.Resolve(txCtx, rev); err != nil {
			return err
		}

		applied, err = s.contracts.ApplyApprovedTerms(txCtx, rev.ContractID, rev.ID, rev.ProposedTerms)
		if err != nil {
			return err
		}

		created = newPlanChangeAddon(txCtx, rev, before, applied, now)
		if err := s.AddonRepo.Create(txCtx, created); err != nil {
			return err
		}

		applied, err = s.contracts.Unlock(txCtx, rev.ContractID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("revision approved",
		"contract_id", rev.ContractID,
		"revision_id", rev.ID,
		"terms_version", applied.TermsVersion,
		"previous_value", created.PreviousValue,
		"new_value", created.NewValue,
	)
	s.notifier.revisionEvent(ctx, types.WebhookEventRevisionApproved, rev, types.NegotiationStateActive)
	s.notifier.resignRequired(ctx, applied, rev.ID)

	return &dto.ResolveRevisionResponse{
		Revision:         rev,
		Addon:            created,
		NegotiationState: types.NegotiationStateActive,
	}, nil
}

// counter rejects a company proposal and opens the contractor's
// counter-proposal in its place. The contract stays locked.
func (s *revisionService) counter(ctx context.Context, rev *revision.Revision, terms contract.ContractTerms, explanation string) (*dto.ResolveRevisionResponse, error) {
	var counterRev *revision.Revision

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		rev.Resolve(types.RevisionStatusRejected, resolver(txCtx, rev), explanation, time.Now().UTC())
		if err := s.RevisionRepo.Resolve(txCtx, rev); err != nil {
			return err
		}

		number, err := s.contracts.ReserveRevisionNumber(txCtx, rev.ContractID)
		if err != nil {
			return err
		}

		c, err := s.ContractRepo.Get(txCtx, rev.ContractID)
		if err != nil {
			return err
		}

		counterRev = &revision.Revision{
			ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REVISION),
			ContractID:       rev.ContractID,
			RevisionNumber:   number,
			Round:            rev.Round + 1,
			ProposedBy:       types.ProposedByContractor,
			RevisionStatus:   types.RevisionStatusPending,
			ProposedTerms:    terms.Diff(c.Terms()),
			PreviousTerms:    c.Terms(),
			Reason:           explanation,
			ParentRevisionID: lo.ToPtr(rev.ID),
			BaseModel:        types.GetDefaultBaseModel(txCtx),
		}
		return s.RevisionRepo.Create(txCtx, counterRev)
	})
	if err != nil {
		return nil, err
	}

	state := counterRev.NegotiationState()
	s.Logger.Infow("revision countered",
		"contract_id", rev.ContractID,
		"revision_id", rev.ID,
		"counter_revision_id", counterRev.ID,
		"counter_revision_number", counterRev.RevisionNumber,
	)
	s.notifier.revisionEvent(ctx, types.WebhookEventRevisionCountered, counterRev, state)

	return &dto.ResolveRevisionResponse{
		Revision:         rev,
		CounterRevision:  counterRev,
		NegotiationState: state,
	}, nil
}

// reject ends the negotiation and leaves the terms untouched
func (s *revisionService) reject(ctx context.Context, rev *revision.Revision, explanation string) (*dto.ResolveRevisionResponse, error) {
	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		rev.Resolve(types.RevisionStatusRejected, resolver(txCtx, rev), explanation, time.Now().UTC())
		if err := s.RevisionRepo.Resolve(txCtx, rev); err != nil {
			return err
		}
		_, err := s.contracts.Unlock(txCtx, rev.ContractID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("revision rejected",
		"contract_id", rev.ContractID,
		"revision_id", rev.ID,
		"proposed_by", rev.ProposedBy,
	)
	s.notifier.revisionEvent(ctx, types.WebhookEventRevisionRejected, rev, types.NegotiationStateActive)

	return &dto.ResolveRevisionResponse{
		Revision:         rev,
		NegotiationState: types.NegotiationStateActive,
	}, nil
}

func (s *revisionService) GetNegotiationState(ctx context.Context, contractID string) (*dto.NegotiationStateResponse, error) {
	c, err := s.ContractRepo.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}

	resp := &dto.NegotiationStateResponse{
		ContractID:     c.ID,
		ContractStatus: c.ContractStatus,
		State:          types.NegotiationStateActive,
		TermsVersion:   c.TermsVersion,
	}

	pending, err := s.RevisionRepo.GetPending(ctx, contractID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return resp, nil
		}
		return nil, err
	}

	resp.State = pending.NegotiationState()
	resp.PendingRevision = pending
	return resp, nil
}

func (s *revisionService) ListRevisions(ctx context.Context, contractID string) (*dto.ListRevisionsResponse, error) {
	if _, err := s.ContractRepo.Get(ctx, contractID); err != nil {
		return nil, err
	}

	filter := types.NewNoLimitRevisionFilter()
	filter.ContractIDs = []string{contractID}

	revisions, err := s.RevisionRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(revisions, func(r *revision.Revision, _ int) *dto.RevisionResponse {
		return &dto.RevisionResponse{Revision: r}
	})
	resp := types.NewListResponse(items, len(items), len(items), 0)
	return &resp, nil
}

// ensureCurrentPending fails with revision.ErrStaleRevision unless rev is
// the pending revision of its contract
func (s *revisionService) ensureCurrentPending(ctx context.Context, rev *revision.Revision) error {
	if !rev.IsPending() {
		return staleRevisionError(rev)
	}

	pending, err := s.RevisionRepo.GetPending(ctx, rev.ContractID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return staleRevisionError(rev)
		}
		return err
	}
	if pending.ID != rev.ID {
		return staleRevisionError(rev)
	}
	return nil
}

// validateProposal rejects overlays that are malformed or would not change
// the contract
func validateProposal(c *contract.Contract, terms contract.ContractTerms, field string) error {
	if err := terms.Validate(); err != nil {
		return err
	}
	if terms.Diff(c.Terms()).IsEmpty() {
		return dto.EmptyRevisionError(field)
	}
	if err := c.Terms().Merge(terms).Validate(); err != nil {
		return err
	}
	return nil
}

func newPlanChangeAddon(ctx context.Context, rev *revision.Revision, before, after *contract.Contract, at time.Time) *addon.PlanChangeAddon {
	valueChanged := !before.BaseValue.Equal(after.BaseValue)
	planChanged := before.PlanType != after.PlanType

	return &addon.PlanChangeAddon{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN_CHANGE_ADDON),
		ContractID:       rev.ContractID,
		RevisionID:       rev.ID,
		RevisionNumber:   rev.RevisionNumber,
		AddonType:        addon.ClassifyAddon(valueChanged, planChanged),
		AddonStatus:      types.AddonStatusApproved,
		PreviousValue:    before.BaseValue,
		NewValue:         after.BaseValue,
		PreviousPlanType: before.PlanType,
		NewPlanType:      after.PlanType,
		RequestedBy:      rev.ProposedBy,
		RequestDate:      at,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
}

func resolver(ctx context.Context, rev *revision.Revision) string {
	if userID := types.GetUserID(ctx); userID != "" {
		return userID
	}
	return string(rev.AwaitingParty())
}

func requireExplanation(explanation string) error {
	if explanation != "" {
		return nil
	}
	return ierr.NewError("explanation is required").
		WithHint("An explanation is required when rejecting a revision").
		WithReportableDetails(map[string]any{
			"explanation": "required",
		}).
		Mark(ierr.ErrValidation)
}

func revisionInProgressError(contractID string, cause error) error {
	return ierr.WithError(revision.ErrRevisionInProgress).
		WithMessage(cause.Error()).
		WithHint(conflictHint).
		WithReportableDetails(map[string]any{
			"contract_id": contractID,
		}).
		Mark(ierr.ErrConflict)
}

func staleRevisionError(rev *revision.Revision) error {
	return ierr.WithError(revision.ErrStaleRevision).
		WithHint("This revision was already resolved, refresh and retry").
		WithReportableDetails(map[string]any{
			"revision_id":     rev.ID,
			"revision_status": rev.RevisionStatus,
		}).
		Mark(ierr.ErrVersionConflict)
}
