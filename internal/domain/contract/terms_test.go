package contract

import (
	"testing"
	"time"

	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContract() *Contract {
	return &Contract{
		ID:             "ctr_1",
		ContractNumber: "CT-TEST0001",
		ContractStatus: types.ContractStatusActive,
		PlanType:       types.PlanTypeMonthly,
		BaseValue:      decimal.NewFromInt(400),
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PaymentDay:     10,
		Contractors: []*Contractor{
			{ID: "ctrr_1", LegalName: "Acme", TaxID: "1", City: "Campinas", State: "SP"},
			{ID: "ctrr_2", LegalName: "Beta", TaxID: "2", City: "Curitiba", State: "PR"},
		},
	}
}

func TestContractTermsDiff(t *testing.T) {
	c := newTestContract()

	same := ContractTerms{BaseValue: lo.ToPtr(decimal.RequireFromString("400.00"))}
	assert.True(t, same.Diff(c.Terms()).IsEmpty(), "equal decimal values are not a change")

	changed := ContractTerms{
		BaseValue:  lo.ToPtr(decimal.NewFromInt(500)),
		PaymentDay: lo.ToPtr(10),
	}
	diff := changed.Diff(c.Terms())
	require.False(t, diff.IsEmpty())
	assert.Equal(t, []string{"base_value"}, diff.ChangedFields())
	assert.True(t, diff.BaseValue.Equal(decimal.NewFromInt(500)))
}

func TestContractTermsValidate(t *testing.T) {
	tests := []struct {
		name   string
		terms  ContractTerms
		fields []string
	}{
		{
			name:  "valid",
			terms: ContractTerms{BaseValue: lo.ToPtr(decimal.NewFromInt(1)), PlanType: lo.ToPtr(types.PlanTypeAnnual)},
		},
		{
			name:   "zero value",
			terms:  ContractTerms{BaseValue: lo.ToPtr(decimal.Zero)},
			fields: []string{"base_value"},
		},
		{
			name:   "bad payment day and trial",
			terms:  ContractTerms{PaymentDay: lo.ToPtr(32), TrialDays: lo.ToPtr(-1)},
			fields: []string{"payment_day", "trial_days"},
		},
		{
			name:   "unknown plan",
			terms:  ContractTerms{PlanType: lo.ToPtr(types.PlanType("weekly"))},
			fields: []string{"plan_type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.terms.Validate()
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
			for _, f := range tt.fields {
				assert.Contains(t, ierr.FlattenHints(err), f)
			}
		})
	}
}

func TestApplyTermsAndScan(t *testing.T) {
	c := newTestContract()
	c.ApplyTerms(ContractTerms{
		BaseValue: lo.ToPtr(decimal.NewFromInt(450)),
		PlanType:  lo.ToPtr(types.PlanTypeSemiannual),
	})
	assert.True(t, c.BaseValue.Equal(decimal.NewFromInt(450)))
	assert.Equal(t, types.PlanTypeSemiannual, c.PlanType)
	assert.Equal(t, 10, c.PaymentDay)

	raw, err := c.Terms().Value()
	require.NoError(t, err)

	var scanned ContractTerms
	require.NoError(t, scanned.Scan(raw))
	assert.True(t, scanned.Diff(c.Terms()).IsEmpty())
}

func TestPrimaryContractor(t *testing.T) {
	c := newTestContract()
	assert.Equal(t, "ctrr_1", c.PrimaryContractor().ID)

	c.PrimaryContractorIndex = 1
	assert.Equal(t, "ctrr_2", c.PrimaryContractor().ID)

	c.PrimaryContractorIndex = 7
	assert.Equal(t, "ctrr_1", c.PrimaryContractor().ID)
	assert.True(t, ierr.IsValidation(c.Validate()))

	c.PrimaryContractorIndex = 0
	c.Contractors = nil
	assert.Nil(t, c.PrimaryContractor())
	assert.True(t, ierr.IsValidation(c.Validate()))
}
