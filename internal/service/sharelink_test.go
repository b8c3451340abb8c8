package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/flexprice/contractflow/internal/api/dto"
	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/domain/signature"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/testutil"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/stretchr/testify/suite"
)

type ShareLinkServiceSuite struct {
	testutil.BaseServiceTestSuite
	params   ServiceParams
	service  ShareLinkService
	contract *contract.Contract
}

func TestShareLinkService(t *testing.T) {
	suite.Run(t, new(ShareLinkServiceSuite))
}

func (s *ShareLinkServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = newTestServiceParams(&s.BaseServiceTestSuite)
	s.service = NewShareLinkService(s.params)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	resp, err := NewContractService(s.params).CreateContract(s.GetContext(), newContractRequest("400", types.PlanTypeMonthly, start,
		testContractor{city: "Campinas", state: "SP"},
		testContractor{city: "Curitiba", state: "PR"},
	))
	s.Require().NoError(err)
	s.contract = resp.Contract

	signatures := NewSignatureService(s.params)
	for i, ctr := range s.contract.Contractors {
		_, err := signatures.RecordSignature(s.GetContext(), s.contract.ID, dto.RecordSignatureRequest{
			ContractorID: ctr.ID,
			Provider:     types.ProviderNative,
			Proof:        signature.Proof{Nonce: string(rune('a' + i))},
		})
		s.Require().NoError(err)
	}
}

func (s *ShareLinkServiceSuite) TestIssueAndResolve() {
	contractorID := s.contract.Contractors[1].ID

	link, err := s.service.IssueShareLink(s.GetContext(), s.contract.ID, dto.CreateShareLinkRequest{
		ContractorID:   contractorID,
		ExpiresInHours: 24,
	})
	s.Require().NoError(err)
	s.NotEmpty(link.Token)
	s.Contains(link.URL, link.Token)
	s.WithinDuration(time.Now().Add(24*time.Hour), link.ExpiresAt, time.Minute)

	shared, err := s.service.ResolveShareLink(s.GetContext(), link.Token)
	s.Require().NoError(err)
	s.Equal(s.contract.ID, shared.Contract.ID)
	s.Equal(contractorID, shared.Contractor.ID)
	s.Require().Len(shared.Signatures, 1)
	s.Equal(contractorID, shared.Signatures[0].ContractorID)
	s.Equal(types.NegotiationStateActive, shared.Negotiation.State)

	s.Require().Len(shared.Contract.Contractors, 1)
	s.Equal(contractorID, shared.Contract.Contractors[0].ID)

	other := s.contract.Contractors[0]
	body, err := json.Marshal(shared)
	s.Require().NoError(err)
	s.NotContains(string(body), other.ID)
	s.NotContains(string(body), other.LegalName)
	s.NotContains(string(body), other.TaxID)
	s.NotContains(string(body), other.City)

	// the stored contract keeps every contractor
	stored, err := s.GetStores().ContractRepo.Get(s.GetContext(), s.contract.ID)
	s.Require().NoError(err)
	s.Len(stored.Contractors, 2)
}

func (s *ShareLinkServiceSuite) TestIssueValidation() {
	_, err := s.service.IssueShareLink(s.GetContext(), s.contract.ID, dto.CreateShareLinkRequest{})
	s.True(ierr.IsValidation(err))

	_, err = s.service.IssueShareLink(s.GetContext(), s.contract.ID, dto.CreateShareLinkRequest{ContractorID: "missing"})
	s.True(ierr.IsNotFound(err))

	_, err = s.service.IssueShareLink(s.GetContext(), "missing", dto.CreateShareLinkRequest{ContractorID: "missing"})
	s.True(ierr.IsNotFound(err))
}

func (s *ShareLinkServiceSuite) TestExpiredLink() {
	link, err := s.service.IssueShareLink(s.GetContext(), s.contract.ID, dto.CreateShareLinkRequest{
		ContractorID:   s.contract.Contractors[0].ID,
		ExpiresInHours: 1,
	})
	s.Require().NoError(err)

	later := s.params
	later.ShareLinks = s.GetShareLinks().WithClock(func() time.Time {
		return time.Now().Add(2 * time.Hour)
	})

	_, err = NewShareLinkService(later).ResolveShareLink(s.GetContext(), link.Token)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *ShareLinkServiceSuite) TestTamperedLink() {
	link, err := s.service.IssueShareLink(s.GetContext(), s.contract.ID, dto.CreateShareLinkRequest{
		ContractorID: s.contract.Contractors[0].ID,
	})
	s.Require().NoError(err)

	_, err = s.service.ResolveShareLink(s.GetContext(), link.Token+"x")
	s.True(ierr.IsPermissionDenied(err))

	_, err = s.service.ResolveShareLink(s.GetContext(), "")
	s.True(ierr.IsPermissionDenied(err))
}
