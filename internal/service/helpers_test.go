package service

import (
	"time"

	"github.com/flexprice/contractflow/internal/api/dto"
	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/testutil"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

func newTestServiceParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		s.GetCache(),
		s.GetSentry(),
		stores.ContractRepo,
		stores.RevisionRepo,
		stores.AddonRepo,
		stores.SignatureRepo,
		stores.SigningRequestRepo,
		stores.ProviderEventRepo,
		s.GetProviders(),
		s.GetShareLinks(),
		s.GetWebhookPublisher(),
	)
}

type testContractor struct {
	city  string
	state string
	email string
}

func newContractRequest(value string, planType types.PlanType, start time.Time, contractors ...testContractor) dto.CreateContractRequest {
	if len(contractors) == 0 {
		contractors = []testContractor{{city: "Campinas", state: "SP", email: "ops@acme.example"}}
	}

	req := dto.CreateContractRequest{
		PlanType:   planType,
		BaseValue:  decimal.RequireFromString(value),
		StartDate:  start,
		PaymentDay: 10,
	}
	for i, ctr := range contractors {
		req.Contractors = append(req.Contractors, dto.CreateContractorRequest{
			LegalName: "Contractor " + string(rune('A'+i)),
			TaxID:     "12.345.678/0001-0" + string(rune('0'+i)),
			City:      ctr.city,
			State:     ctr.state,
			Email:     ctr.email,
		})
	}
	return req
}

func valueTerms(value string) contract.ContractTerms {
	return contract.ContractTerms{BaseValue: lo.ToPtr(decimal.RequireFromString(value))}
}
