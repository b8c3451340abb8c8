package revenue

import (
	"testing"
	"time"

	"github.com/flexprice/contractflow/internal/domain/addon"
	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/domain/revision"
	"github.com/flexprice/contractflow/internal/domain/signature"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Currency: "BRL", RoundingPlaces: 2, ActiveOnly: true}

func contractor(id, city, state string) *contract.Contractor {
	return &contract.Contractor{ID: id, LegalName: id, TaxID: id, City: city, State: state}
}

func newContract(id string, plan types.PlanType, value int64, start time.Time, contractors ...*contract.Contractor) *contract.Contract {
	return &contract.Contract{
		ID:             id,
		ContractNumber: id,
		ContractStatus: types.ContractStatusActive,
		PlanType:       plan,
		BaseValue:      decimal.NewFromInt(value),
		StartDate:      start,
		Contractors:    contractors,
	}
}

func bucket(t *testing.T, buckets []Bucket, key string) Bucket {
	b, ok := lo.Find(buckets, func(b Bucket) bool { return b.Key == key })
	require.True(t, ok, "bucket %s not found", key)
	return b
}

var jan = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func TestAggregateMultiContractorCountedOnce(t *testing.T) {
	c := newContract("ctr_1", types.PlanTypeMonthly, 300, jan,
		contractor("a", "Campinas", "SP"),
		contractor("b", "Curitiba", "PR"),
		contractor("c", "Recife", "PE"),
	)

	res := Aggregate(testConfig, Snapshot{Contracts: []*contract.Contract{c}}, types.RevenueFilter{})

	assert.True(t, res.TotalValue.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 1, res.ContractCount)
	require.Len(t, res.ByState, 3)

	withValue := lo.Filter(res.ByState, func(b Bucket, _ int) bool { return b.Value.IsPositive() })
	require.Len(t, withValue, 1)
	assert.Equal(t, "SP", withValue[0].State)
	assert.True(t, withValue[0].Value.Equal(decimal.NewFromInt(300)))

	for _, b := range res.ByState {
		assert.Equal(t, 1, b.CoverageCount, b.Key)
	}
	assert.Len(t, res.ByCity, 3)
	assert.Equal(t, 1, bucket(t, res.ByMonth, "2024-01").ContractCount)
}

func TestAggregatePeriodNormalization(t *testing.T) {
	tests := []struct {
		name  string
		plan  types.PlanType
		value int64
	}{
		{"annual", types.PlanTypeAnnual, 1200},
		{"semiannual", types.PlanTypeSemiannual, 600},
		{"monthly", types.PlanTypeMonthly, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newContract("ctr_"+tt.name, tt.plan, tt.value, jan, contractor("a", "Campinas", "SP"))
			res := Aggregate(testConfig, Snapshot{Contracts: []*contract.Contract{c}}, types.RevenueFilter{})
			assert.True(t, res.TotalValue.Equal(decimal.NewFromInt(100)), res.TotalValue.String())
		})
	}
}

func TestAggregateUsesLatestApprovedAddon(t *testing.T) {
	c := newContract("ctr_1", types.PlanTypeMonthly, 400, jan, contractor("a", "Campinas", "SP"))
	addons := []*addon.PlanChangeAddon{
		{
			ID: "pca_1", ContractID: "ctr_1", RevisionID: "rev_1", RevisionNumber: 1,
			AddonStatus: types.AddonStatusApproved, PreviousValue: decimal.NewFromInt(400),
			NewValue: decimal.NewFromInt(450), RequestDate: jan.AddDate(0, 1, 0),
		},
		{
			ID: "pca_2", ContractID: "ctr_1", RevisionID: "rev_2", RevisionNumber: 2,
			AddonStatus: types.AddonStatusApproved, PreviousValue: decimal.NewFromInt(450),
			NewValue: decimal.NewFromInt(6000), NewPlanType: types.PlanTypeAnnual,
			RequestDate: jan.AddDate(0, 2, 0),
		},
	}

	res := Aggregate(testConfig, Snapshot{
		Contracts: []*contract.Contract{c},
		Addons:    addons,
	}, types.RevenueFilter{})
	assert.True(t, res.TotalValue.Equal(decimal.NewFromInt(500)), res.TotalValue.String())

	// an addon whose revision is not approved in the snapshot does not count
	res = Aggregate(testConfig, Snapshot{
		Contracts: []*contract.Contract{c},
		Addons:    addons,
		Revisions: []*revision.Revision{
			{ID: "rev_2", ContractID: "ctr_1", RevisionStatus: types.RevisionStatusRejected},
		},
	}, types.RevenueFilter{})
	assert.True(t, res.TotalValue.Equal(decimal.NewFromInt(450)), res.TotalValue.String())
}

func TestAggregateFilters(t *testing.T) {
	feb := jan.AddDate(0, 1, 0)
	draft := newContract("ctr_draft", types.PlanTypeMonthly, 50, jan, contractor("d", "Santos", "SP"))
	draft.ContractStatus = types.ContractStatusDraft
	underRevision := newContract("ctr_rev", types.PlanTypeMonthly, 70, feb, contractor("r", "Santos", "SP"))
	underRevision.ContractStatus = types.ContractStatusUnderRevision
	multi := newContract("ctr_multi", types.PlanTypeMonthly, 200, jan,
		contractor("p", "Curitiba", "PR"),
		contractor("s", "Campinas", "SP"),
	)

	snap := Snapshot{
		Contracts: []*contract.Contract{draft, underRevision, multi},
		Signatures: []*signature.SignatureRecord{
			{ID: "sig_1", ContractID: "ctr_multi", ContractorID: "p"},
			{ID: "sig_2", ContractID: "ctr_rev", ContractorID: "r", IsCancelled: true},
		},
	}

	t.Run("active only by default", func(t *testing.T) {
		res := Aggregate(testConfig, snap, types.RevenueFilter{})
		assert.True(t, res.TotalValue.Equal(decimal.NewFromInt(270)))
		assert.Equal(t, 2, res.ContractCount)
		assert.Equal(t, 1, res.SignedContractCount)
	})

	t.Run("include inactive", func(t *testing.T) {
		res := Aggregate(testConfig, snap, types.RevenueFilter{ActiveOnly: lo.ToPtr(false)})
		assert.True(t, res.TotalValue.Equal(decimal.NewFromInt(320)))
		assert.Equal(t, 3, res.ContractCount)
	})

	t.Run("period is half open", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		res := Aggregate(testConfig, snap, types.RevenueFilter{
			PeriodStart: lo.ToPtr(start),
			PeriodEnd:   lo.ToPtr(feb),
		})
		assert.True(t, res.TotalValue.Equal(decimal.NewFromInt(200)))
		require.Len(t, res.ByMonth, 1)
		assert.Equal(t, "2024-01", res.ByMonth[0].Month)
	})

	t.Run("state filter attributes money to primary only", func(t *testing.T) {
		res := Aggregate(testConfig, snap, types.RevenueFilter{State: "sp"})
		assert.True(t, res.TotalValue.Equal(decimal.NewFromInt(70)))
		assert.Equal(t, 1, res.ContractCount)

		require.Len(t, res.ByState, 1)
		sp := res.ByState[0]
		assert.Equal(t, "SP", sp.State)
		assert.Equal(t, 2, sp.CoverageCount)
		assert.Equal(t, 1, sp.ContractCount)
	})
}

func TestAggregateRoundsAtTheEdge(t *testing.T) {
	c := newContract("ctr_1", types.PlanTypeAnnual, 1000, jan, contractor("a", "Campinas", "SP"))
	res := Aggregate(testConfig, Snapshot{Contracts: []*contract.Contract{c}}, types.RevenueFilter{})
	assert.Equal(t, "83.33", res.TotalValue.StringFixed(2))

	rows := res.Rows()
	require.NotEmpty(t, rows)
	assert.Equal(t, "total", rows[0].Dimension)
	assert.Equal(t, "83.33", rows[0].Value)
}
