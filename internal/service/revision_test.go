package service

import (
	"sync"
	"testing"
	"time"

	"github.com/flexprice/contractflow/internal/api/dto"
	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/domain/revision"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/testutil"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RevisionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service   RevisionService
	contracts ContractService
	contract  *contract.Contract
}

func TestRevisionService(t *testing.T) {
	suite.Run(t, new(RevisionServiceSuite))
}

func (s *RevisionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	s.service = NewRevisionService(params)
	s.contracts = NewContractService(params)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	resp, err := s.contracts.CreateContract(s.GetContext(), newContractRequest("400", types.PlanTypeMonthly, start))
	s.Require().NoError(err)
	s.contract, err = s.contracts.Activate(s.GetContext(), resp.ID)
	s.Require().NoError(err)
}

func (s *RevisionServiceSuite) propose(by types.ProposedBy, value string) *revision.Revision {
	resp, err := s.service.ProposeRevision(s.GetContext(), s.contract.ID, dto.ProposeRevisionRequest{
		ProposedBy: by,
		Terms:      valueTerms(value),
		Reason:     "price review",
	})
	s.Require().NoError(err)
	return resp.Revision
}

func (s *RevisionServiceSuite) reload() *contract.Contract {
	c, err := s.GetStores().ContractRepo.Get(s.GetContext(), s.contract.ID)
	s.Require().NoError(err)
	return c
}

func (s *RevisionServiceSuite) TestProposeRevision() {
	rev := s.propose(types.ProposedByCompany, "500")

	s.Equal(1, rev.RevisionNumber)
	s.Equal(1, rev.Round)
	s.Equal(types.RevisionStatusPending, rev.RevisionStatus)
	s.Require().NotNil(rev.ProposedTerms.BaseValue)
	s.True(decimal.NewFromInt(500).Equal(*rev.ProposedTerms.BaseValue))
	s.Require().NotNil(rev.PreviousTerms.BaseValue)
	s.True(decimal.NewFromInt(400).Equal(*rev.PreviousTerms.BaseValue))
	s.Nil(rev.ProposedTerms.PaymentDay)

	c := s.reload()
	s.Equal(types.ContractStatusUnderRevision, c.ContractStatus)
	s.Equal(1, c.RevisionCounter)

	state, err := s.service.GetNegotiationState(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Equal(types.NegotiationStateAwaitingContractorReview, state.State)
	s.Require().NotNil(state.PendingRevision)
	s.Equal(rev.ID, state.PendingRevision.ID)
	s.True(s.GetWebhookPublisher().HasEvent(types.WebhookEventRevisionProposed))
}

func (s *RevisionServiceSuite) TestProposeRevisionValidation() {
	testCases := []struct {
		name    string
		request dto.ProposeRevisionRequest
		check   func(err error)
	}{
		{
			name:    "empty_terms",
			request: dto.ProposeRevisionRequest{ProposedBy: types.ProposedByCompany},
			check: func(err error) {
				s.True(ierr.Is(err, revision.ErrEmptyRevision))
				s.True(ierr.IsValidation(err))
			},
		},
		{
			name: "terms_equal_to_current",
			request: dto.ProposeRevisionRequest{
				ProposedBy: types.ProposedByCompany,
				Terms:      valueTerms("400"),
			},
			check: func(err error) {
				s.True(ierr.Is(err, revision.ErrEmptyRevision))
			},
		},
		{
			name: "negative_value",
			request: dto.ProposeRevisionRequest{
				ProposedBy: types.ProposedByCompany,
				Terms:      valueTerms("-10"),
			},
			check: func(err error) {
				s.True(ierr.IsValidation(err))
			},
		},
		{
			name: "unknown_party",
			request: dto.ProposeRevisionRequest{
				ProposedBy: types.ProposedBy("broker"),
				Terms:      valueTerms("500"),
			},
			check: func(err error) {
				s.True(ierr.IsValidation(err))
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.service.ProposeRevision(s.GetContext(), s.contract.ID, tc.request)
			s.Require().Error(err)
			tc.check(err)
			s.Equal(types.ContractStatusActive, s.reload().ContractStatus)
		})
	}
}

func (s *RevisionServiceSuite) TestSecondProposalIsRejected() {
	s.propose(types.ProposedByCompany, "500")

	_, err := s.service.ProposeRevision(s.GetContext(), s.contract.ID, dto.ProposeRevisionRequest{
		ProposedBy: types.ProposedByContractor,
		Terms:      valueTerms("300"),
	})
	s.True(ierr.Is(err, revision.ErrRevisionInProgress))
	s.True(ierr.IsConflict(err))
}

func (s *RevisionServiceSuite) TestProposalOnLockedContractReportsInProgress() {
	s.propose(types.ProposedByCompany, "500")

	// the overlay matches the unchanged contract, the lock still wins
	_, err := s.service.ProposeRevision(s.GetContext(), s.contract.ID, dto.ProposeRevisionRequest{
		ProposedBy: types.ProposedByContractor,
		Terms:      valueTerms("400"),
	})
	s.True(ierr.Is(err, revision.ErrRevisionInProgress))
	s.True(ierr.IsConflict(err))
	s.False(ierr.Is(err, revision.ErrEmptyRevision))
}

func (s *RevisionServiceSuite) TestConcurrentProposalsLeaveOnePending() {
	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.service.ProposeRevision(s.GetContext(), s.contract.ID, dto.ProposeRevisionRequest{
				ProposedBy: types.ProposedByCompany,
				Terms:      valueTerms(decimal.NewFromInt(int64(500 + i)).String()),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if ierr.IsConflict(err) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(workers-1, conflicts)

	list, err := s.service.ListRevisions(s.GetContext(), s.contract.ID)
	s.Require().NoError(err)
	s.Len(list.Items, 1)
	s.Equal(1, list.Items[0].RevisionNumber)
	s.Equal(1, s.reload().RevisionCounter)
}

func (s *RevisionServiceSuite) TestConcurrentApprovalsApplyOnce() {
	rev := s.propose(types.ProposedByCompany, "500")

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		stale     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.ResolveRevision(s.GetContext(), rev.ID, dto.ResolveRevisionRequest{
				Outcome: types.ResolutionApprove,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if ierr.Is(err, revision.ErrStaleRevision) && ierr.IsConflict(err) {
				stale++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(workers-1, stale)

	addons, err := s.GetStores().AddonRepo.List(s.GetContext(), &types.AddonFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		ContractIDs: []string{s.contract.ID},
	})
	s.Require().NoError(err)
	s.Len(addons, 1)

	c := s.reload()
	s.Equal(2, c.TermsVersion)
	s.Equal(types.ContractStatusActive, c.ContractStatus)
	s.True(decimal.NewFromInt(500).Equal(c.BaseValue))
	s.Len(s.GetWebhookPublisher().EventsNamed(types.WebhookEventRevisionApproved), 1)
}

func (s *RevisionServiceSuite) TestCounterThenApprove() {
	proposal := s.propose(types.ProposedByCompany, "500")

	countered, err := s.service.ResolveRevision(s.GetContext(), proposal.ID, dto.ResolveRevisionRequest{
		Outcome:      types.ResolutionReject,
		Explanation:  "too expensive",
		CounterTerms: lo.ToPtr(valueTerms("450")),
	})
	s.Require().NoError(err)
	s.Equal(types.RevisionStatusRejected, countered.Revision.RevisionStatus)
	s.Equal(types.NegotiationStateAwaitingCompanyReview, countered.NegotiationState)
	s.Require().NotNil(countered.CounterRevision)

	counter := countered.CounterRevision
	s.Equal(2, counter.RevisionNumber)
	s.Equal(2, counter.Round)
	s.Equal(types.ProposedByContractor, counter.ProposedBy)
	s.Require().NotNil(counter.ParentRevisionID)
	s.Equal(proposal.ID, *counter.ParentRevisionID)
	s.Equal(types.ContractStatusUnderRevision, s.reload().ContractStatus)

	approved, err := s.service.ResolveRevision(s.GetContext(), counter.ID, dto.ResolveRevisionRequest{
		Outcome: types.ResolutionApprove,
	})
	s.Require().NoError(err)
	s.Equal(types.RevisionStatusApproved, approved.Revision.RevisionStatus)
	s.Equal(types.NegotiationStateActive, approved.NegotiationState)

	s.Require().NotNil(approved.Addon)
	s.True(decimal.NewFromInt(400).Equal(approved.Addon.PreviousValue))
	s.True(decimal.NewFromInt(450).Equal(approved.Addon.NewValue))
	s.Equal(types.AddonTypeValueChange, approved.Addon.AddonType)
	s.Equal(counter.RevisionNumber, approved.Addon.RevisionNumber)

	c := s.reload()
	s.Equal(types.ContractStatusActive, c.ContractStatus)
	s.True(decimal.NewFromInt(450).Equal(c.BaseValue))
	s.Equal(2, c.TermsVersion)
	s.Require().NotNil(c.LastApprovedRevisionID)
	s.Equal(counter.ID, *c.LastApprovedRevisionID)

	s.True(s.GetWebhookPublisher().HasEvent(types.WebhookEventRevisionCountered))
	s.True(s.GetWebhookPublisher().HasEvent(types.WebhookEventRevisionApproved))
	s.True(s.GetWebhookPublisher().HasEvent(types.WebhookEventSignatureResignRequired))
}

func (s *RevisionServiceSuite) TestCounterRequiresExplanationAndTerms() {
	proposal := s.propose(types.ProposedByCompany, "500")

	_, err := s.service.ResolveRevision(s.GetContext(), proposal.ID, dto.ResolveRevisionRequest{
		Outcome:      types.ResolutionReject,
		CounterTerms: lo.ToPtr(valueTerms("450")),
	})
	s.True(ierr.IsValidation(err))

	_, err = s.service.ResolveRevision(s.GetContext(), proposal.ID, dto.ResolveRevisionRequest{
		Outcome:     types.ResolutionReject,
		Explanation: "too expensive",
	})
	s.True(ierr.Is(err, revision.ErrEmptyRevision))

	_, err = s.service.ResolveRevision(s.GetContext(), proposal.ID, dto.ResolveRevisionRequest{
		Outcome:      types.ResolutionReject,
		Explanation:  "too expensive",
		CounterTerms: lo.ToPtr(valueTerms("400")),
	})
	s.True(ierr.Is(err, revision.ErrEmptyRevision))

	stored, err := s.GetStores().RevisionRepo.Get(s.GetContext(), proposal.ID)
	s.Require().NoError(err)
	s.True(stored.IsPending())
}

func (s *RevisionServiceSuite) TestCompanyRejectsCounterEndsNegotiation() {
	proposal := s.propose(types.ProposedByCompany, "500")
	countered, err := s.service.ResolveRevision(s.GetContext(), proposal.ID, dto.ResolveRevisionRequest{
		Outcome:      types.ResolutionReject,
		Explanation:  "too expensive",
		CounterTerms: lo.ToPtr(valueTerms("450")),
	})
	s.Require().NoError(err)

	rejected, err := s.service.ResolveRevision(s.GetContext(), countered.CounterRevision.ID, dto.ResolveRevisionRequest{
		Outcome:     types.ResolutionReject,
		Explanation: "final offer stands",
	})
	s.Require().NoError(err)
	s.Nil(rejected.CounterRevision)
	s.Equal(types.NegotiationStateActive, rejected.NegotiationState)

	c := s.reload()
	s.Equal(types.ContractStatusActive, c.ContractStatus)
	s.True(decimal.NewFromInt(400).Equal(c.BaseValue))
	s.Equal(1, c.TermsVersion)

	addons, err := s.GetStores().AddonRepo.List(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Empty(addons)
}

func (s *RevisionServiceSuite) TestContractorProposalRejectedByCompany() {
	rev := s.propose(types.ProposedByContractor, "350")

	state, err := s.service.GetNegotiationState(s.GetContext(), s.contract.ID)
	s.Require().NoError(err)
	s.Equal(types.NegotiationStateAwaitingCompanyReview, state.State)

	resp, err := s.service.ResolveRevision(s.GetContext(), rev.ID, dto.ResolveRevisionRequest{
		Outcome:      types.ResolutionReject,
		Explanation:  "no discount this year",
		CounterTerms: lo.ToPtr(valueTerms("380")),
	})
	s.Require().NoError(err)
	s.Nil(resp.CounterRevision)
	s.Equal(types.ContractStatusActive, s.reload().ContractStatus)
}

func (s *RevisionServiceSuite) TestResolvingStaleRevision() {
	rev := s.propose(types.ProposedByCompany, "500")

	_, err := s.service.ResolveRevision(s.GetContext(), rev.ID, dto.ResolveRevisionRequest{
		Outcome: types.ResolutionApprove,
	})
	s.Require().NoError(err)

	_, err = s.service.ResolveRevision(s.GetContext(), rev.ID, dto.ResolveRevisionRequest{
		Outcome: types.ResolutionApprove,
	})
	s.True(ierr.Is(err, revision.ErrStaleRevision))
	s.True(ierr.IsConflict(err))

	_, err = s.service.ResolveRevision(s.GetContext(), "missing", dto.ResolveRevisionRequest{
		Outcome: types.ResolutionApprove,
	})
	s.True(ierr.IsNotFound(err))
}

func (s *RevisionServiceSuite) TestRevisionNumbersAreMonotonic() {
	for i, value := range []string{"500", "600", "700"} {
		rev := s.propose(types.ProposedByCompany, value)
		s.Equal(i+1, rev.RevisionNumber)

		_, err := s.service.ResolveRevision(s.GetContext(), rev.ID, dto.ResolveRevisionRequest{
			Outcome: types.ResolutionApprove,
		})
		s.Require().NoError(err)
	}

	c := s.reload()
	s.Equal(3, c.RevisionCounter)
	s.Equal(4, c.TermsVersion)
	s.True(decimal.NewFromInt(700).Equal(c.BaseValue))

	list, err := s.service.ListRevisions(s.GetContext(), c.ID)
	s.Require().NoError(err)
	numbers := lo.Map(list.Items, func(r *dto.RevisionResponse, _ int) int { return r.RevisionNumber })
	s.Equal([]int{1, 2, 3}, numbers)
}
