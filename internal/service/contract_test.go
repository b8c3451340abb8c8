package service

import (
	"sync"
	"testing"
	"time"

	"github.com/flexprice/contractflow/internal/api/dto"
	"github.com/flexprice/contractflow/internal/domain/contract"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/testutil"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ContractServiceSuite struct {
	testutil.BaseServiceTestSuite
	service ContractService
	start   time.Time
}

func TestContractService(t *testing.T) {
	suite.Run(t, new(ContractServiceSuite))
}

func (s *ContractServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewContractService(newTestServiceParams(&s.BaseServiceTestSuite))
	s.start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
}

func (s *ContractServiceSuite) createActive(value string) *contract.Contract {
	resp, err := s.service.CreateContract(s.GetContext(), newContractRequest(value, types.PlanTypeMonthly, s.start))
	s.Require().NoError(err)
	c, err := s.service.Activate(s.GetContext(), resp.ID)
	s.Require().NoError(err)
	return c
}

func (s *ContractServiceSuite) TestCreateContract() {
	testCases := []struct {
		name      string
		request   dto.CreateContractRequest
		wantErr   bool
		errorCode string
	}{
		{
			name:    "draft_contract",
			request: newContractRequest("400", types.PlanTypeMonthly, s.start),
		},
		{
			name:      "invalid_plan_type",
			request:   newContractRequest("400", types.PlanType("weekly"), s.start),
			wantErr:   true,
			errorCode: ierr.ErrCodeValidation,
		},
		{
			name: "no_contractors",
			request: dto.CreateContractRequest{
				PlanType:   types.PlanTypeMonthly,
				BaseValue:  decimal.NewFromInt(400),
				StartDate:  s.start,
				PaymentDay: 10,
			},
			wantErr:   true,
			errorCode: ierr.ErrCodeValidation,
		},
		{
			name:      "invalid_state",
			request:   newContractRequest("400", types.PlanTypeMonthly, s.start, testContractor{city: "Campinas", state: "S1"}),
			wantErr:   true,
			errorCode: ierr.ErrCodeValidation,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			resp, err := s.service.CreateContract(s.GetContext(), tc.request)
			if tc.wantErr {
				s.Error(err)
				s.Equal(tc.errorCode, ierr.CodeFromErr(err))
				return
			}

			s.Require().NoError(err)
			s.Equal(types.ContractStatusDraft, resp.ContractStatus)
			s.Equal(1, resp.TermsVersion)
			s.Equal(0, resp.RevisionCounter)
			s.NotEmpty(resp.ContractNumber)
			s.Equal("BRL", resp.Currency)
			s.Len(resp.Contractors, 1)
			s.Equal("SP", resp.Contractors[0].State)
			s.True(s.GetWebhookPublisher().HasEvent(types.WebhookEventContractCreated))
		})
	}
}

func (s *ContractServiceSuite) TestGetAndListContracts() {
	first := s.createActive("400")
	s.createActive("900")

	got, err := s.service.GetContract(s.GetContext(), first.ID)
	s.Require().NoError(err)
	s.Equal(first.ID, got.ID)
	s.True(decimal.NewFromInt(400).Equal(got.BaseValue))

	_, err = s.service.GetContract(s.GetContext(), "")
	s.True(ierr.IsValidation(err))

	_, err = s.service.GetContract(s.GetContext(), "missing")
	s.True(ierr.IsNotFound(err))

	list, err := s.service.ListContracts(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Len(list.Items, 2)
	s.Equal(2, list.Pagination.Total)
}

func (s *ContractServiceSuite) TestRevisionLock() {
	c := s.createActive("400")

	locked, err := s.service.LockForRevision(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Equal(types.ContractStatusUnderRevision, locked.ContractStatus)

	_, err = s.service.LockForRevision(s.GetContext(), c.ID)
	s.True(ierr.Is(err, contract.ErrAlreadyLocked))
	s.True(ierr.IsConflict(err))

	number, err := s.service.ReserveRevisionNumber(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Equal(1, number)
	number, err = s.service.ReserveRevisionNumber(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Equal(2, number)

	unlocked, err := s.service.Unlock(s.GetContext(), c.ID)
	s.Require().NoError(err)
	s.Equal(types.ContractStatusActive, unlocked.ContractStatus)
	s.Equal(2, unlocked.RevisionCounter)

	_, err = s.service.Unlock(s.GetContext(), c.ID)
	s.True(ierr.Is(err, contract.ErrNotLocked))

	_, err = s.service.ReserveRevisionNumber(s.GetContext(), c.ID)
	s.True(ierr.Is(err, contract.ErrNotLocked))
}

func (s *ContractServiceSuite) TestLockRequiresActiveContract() {
	resp, err := s.service.CreateContract(s.GetContext(), newContractRequest("400", types.PlanTypeMonthly, s.start))
	s.Require().NoError(err)

	_, err = s.service.LockForRevision(s.GetContext(), resp.ID)
	s.True(ierr.Is(err, contract.ErrNotRevisable))
	s.True(ierr.IsInvalidOperation(err))
}

func (s *ContractServiceSuite) TestConcurrentLockHasOneWinner() {
	c := s.createActive("400")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.LockForRevision(s.GetContext(), c.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case ierr.IsConflict(err):
				conflicts++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(workers-1, conflicts)
}

func (s *ContractServiceSuite) TestApplyApprovedTerms() {
	c := s.createActive("400")

	_, err := s.service.ApplyApprovedTerms(s.GetContext(), c.ID, "rev_1", valueTerms("500"))
	s.True(ierr.Is(err, contract.ErrNotLocked))

	_, err = s.service.LockForRevision(s.GetContext(), c.ID)
	s.Require().NoError(err)

	applied, err := s.service.ApplyApprovedTerms(s.GetContext(), c.ID, "rev_1", valueTerms("500"))
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(500).Equal(applied.BaseValue))
	s.Equal(2, applied.TermsVersion)
	s.Require().NotNil(applied.LastApprovedRevisionID)
	s.Equal("rev_1", *applied.LastApprovedRevisionID)

	_, err = s.service.ApplyApprovedTerms(s.GetContext(), c.ID, "rev_2", valueTerms("-1"))
	s.True(ierr.IsValidation(err))
}

func (s *ContractServiceSuite) TestActivateAndCancel() {
	resp, err := s.service.CreateContract(s.GetContext(), newContractRequest("400", types.PlanTypeMonthly, s.start))
	s.Require().NoError(err)

	_, err = s.service.Cancel(s.GetContext(), resp.ID)
	s.True(ierr.IsInvalidOperation(err))

	active, err := s.service.Activate(s.GetContext(), resp.ID)
	s.Require().NoError(err)
	s.Equal(types.ContractStatusActive, active.ContractStatus)

	again, err := s.service.Activate(s.GetContext(), resp.ID)
	s.Require().NoError(err)
	s.Equal(active.Version, again.Version)

	_, err = s.service.LockForRevision(s.GetContext(), resp.ID)
	s.Require().NoError(err)
	_, err = s.service.Cancel(s.GetContext(), resp.ID)
	s.True(ierr.Is(err, contract.ErrAlreadyLocked))

	_, err = s.service.Unlock(s.GetContext(), resp.ID)
	s.Require().NoError(err)

	cancelled, err := s.service.Cancel(s.GetContext(), resp.ID)
	s.Require().NoError(err)
	s.Equal(types.ContractStatusCancelled, cancelled.ContractStatus)
	s.NotNil(cancelled.CancelledAt)
	s.True(s.GetWebhookPublisher().HasEvent(types.WebhookEventContractCancelled))

	_, err = s.service.Activate(s.GetContext(), resp.ID)
	s.True(ierr.IsInvalidOperation(err))
}
