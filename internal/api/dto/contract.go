package dto

import (
	"context"
	"strings"
	"time"

	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/flexprice/contractflow/internal/validator"
	"github.com/shopspring/decimal"
)

type CreateContractRequest struct {
	// ContractNumber is generated when empty
	ContractNumber         string                    `json:"contract_number,omitempty" validate:"omitempty,max=50"`
	PlanType               types.PlanType            `json:"plan_type" validate:"required,plan_type"`
	BaseValue              decimal.Decimal           `json:"base_value" validate:"required" swaggertype:"string"`
	Currency               string                    `json:"currency,omitempty" validate:"omitempty,len=3"`
	StartDate              time.Time                 `json:"start_date" validate:"required"`
	RenewalDate            *time.Time                `json:"renewal_date,omitempty"`
	PaymentDay             int                       `json:"payment_day" validate:"required,min=1,max=31"`
	TrialDays              int                       `json:"trial_days" validate:"min=0"`
	PrimaryContractorIndex int                       `json:"primary_contractor_index" validate:"min=0"`
	Contractors            []CreateContractorRequest `json:"contractors" validate:"required,min=1,dive"`
}

type CreateContractorRequest struct {
	LegalName             string `json:"legal_name" validate:"required,max=255"`
	TaxID                 string `json:"tax_id" validate:"required,max=50"`
	City                  string `json:"city" validate:"required,max=100"`
	State                 string `json:"state" validate:"required,state_code"`
	ResponsibleName       string `json:"responsible_name" validate:"omitempty,max=255"`
	ResponsiblePersonalID string `json:"responsible_personal_id" validate:"omitempty,max=50"`
	Email                 string `json:"email,omitempty" validate:"omitempty,email"`
}

func (r *CreateContractRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToContract builds a draft contract. Domain rules are checked by
// contract.Validate.
func (r *CreateContractRequest) ToContract(ctx context.Context, defaultCurrency, numberPrefix string) *contract.Contract {
	c := &contract.Contract{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONTRACT),
		ContractNumber:         r.ContractNumber,
		ContractStatus:         types.ContractStatusDraft,
		PlanType:               r.PlanType,
		BaseValue:              r.BaseValue,
		Currency:               strings.ToUpper(r.Currency),
		StartDate:              r.StartDate.UTC(),
		RenewalDate:            r.RenewalDate,
		PaymentDay:             r.PaymentDay,
		TrialDays:              r.TrialDays,
		PrimaryContractorIndex: r.PrimaryContractorIndex,
		RevisionCounter:        0,
		TermsVersion:           1,
		Version:                1,
		BaseModel:              types.GetDefaultBaseModel(ctx),
	}
	if c.ContractNumber == "" {
		c.ContractNumber = types.GenerateShortIDWithPrefix(numberPrefix)
	}
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}

	c.Contractors = make([]*contract.Contractor, 0, len(r.Contractors))
	for i, ctr := range r.Contractors {
		c.Contractors = append(c.Contractors, &contract.Contractor{
			ID:                    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONTRACTOR),
			ContractID:            c.ID,
			Position:              i,
			LegalName:             ctr.LegalName,
			TaxID:                 ctr.TaxID,
			City:                  strings.TrimSpace(ctr.City),
			State:                 strings.ToUpper(strings.TrimSpace(ctr.State)),
			ResponsibleName:       ctr.ResponsibleName,
			ResponsiblePersonalID: ctr.ResponsiblePersonalID,
			Email:                 ctr.Email,
			BaseModel:             types.GetDefaultBaseModel(ctx),
		})
	}
	return c
}

type ContractResponse struct {
	*contract.Contract
}

// ListContractsResponse represents the response for listing contracts
type ListContractsResponse = types.ListResponse[*ContractResponse]
