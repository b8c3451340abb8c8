package revenue

import (
	"sort"
	"strings"
	"time"

	"github.com/flexprice/contractflow/internal/domain/addon"
	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/domain/revision"
	"github.com/flexprice/contractflow/internal/domain/signature"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const monthKeyLayout = "2006-01"

// Config is the reporting profile. It is fixed at construction time.
type Config struct {
	Currency       string
	RoundingPlaces int32
	// ActiveOnly applies when the filter does not say otherwise
	ActiveOnly bool
}

// Snapshot is the stored state the roll-up is derived from
type Snapshot struct {
	Contracts  []*contract.Contract
	Revisions  []*revision.Revision
	Addons     []*addon.PlanChangeAddon
	Signatures []*signature.SignatureRecord
}

// Bucket is one row of a geographic or monthly roll-up. Value and
// ContractCount only include contracts attributed to the bucket through
// their primary contractor; CoverageCount counts every contract with at
// least one contractor in the bucket.
type Bucket struct {
	Key           string          `json:"key"`
	State         string          `json:"state,omitempty"`
	City          string          `json:"city,omitempty"`
	Month         string          `json:"month,omitempty"`
	Value         decimal.Decimal `json:"value" swaggertype:"string"`
	ContractCount int             `json:"contract_count"`
	CoverageCount int             `json:"coverage_count"`
}

// Result is the monthly-equivalent roll-up of contract value
type Result struct {
	TotalValue          decimal.Decimal `json:"total_value" swaggertype:"string"`
	ContractCount       int             `json:"contract_count"`
	SignedContractCount int             `json:"signed_contract_count"`
	Currency            string          `json:"currency"`
	ByState             []Bucket        `json:"by_state"`
	ByCity              []Bucket        `json:"by_city"`
	ByMonth             []Bucket        `json:"by_month"`
}

// EffectiveTerms returns the value and plan type currently in force for a
// contract: the newest approved addon wins over the contract's base value.
// Addons are ordered by request date, then by revision number.
func EffectiveTerms(c *contract.Contract, addons []*addon.PlanChangeAddon, revisions map[string]*revision.Revision) (decimal.Decimal, types.PlanType) {
	var latest *addon.PlanChangeAddon
	for _, a := range addons {
		if a.ContractID != c.ID || !a.IsApproved() {
			continue
		}
		if r, ok := revisions[a.RevisionID]; ok && r.RevisionStatus != types.RevisionStatusApproved {
			continue
		}
		if latest == nil ||
			a.RequestDate.After(latest.RequestDate) ||
			(a.RequestDate.Equal(latest.RequestDate) && a.RevisionNumber > latest.RevisionNumber) {
			latest = a
		}
	}

	if latest == nil {
		return c.BaseValue, c.PlanType
	}

	planType := c.PlanType
	if latest.NewPlanType != "" {
		planType = latest.NewPlanType
	}
	return latest.NewValue, planType
}

// MonthlyEquivalent normalizes a plan period value to one month
func MonthlyEquivalent(value decimal.Decimal, planType types.PlanType) decimal.Decimal {
	months := planType.Months()
	if months <= 1 {
		return value
	}
	return value.Div(decimal.NewFromInt(months))
}

type bucketSet map[string]*Bucket

func (s bucketSet) get(key string, init func(*Bucket)) *Bucket {
	b, ok := s[key]
	if !ok {
		b = &Bucket{Key: key, Value: decimal.Zero}
		init(b)
		s[key] = b
	}
	return b
}

func (s bucketSet) sorted(places int32) []Bucket {
	out := make([]Bucket, 0, len(s))
	for _, b := range s {
		row := *b
		row.Value = row.Value.Round(places)
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}

func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

func cityKey(city, state string) string {
	return strings.TrimSpace(city) + "/" + normalizeState(state)
}

func monthKey(t time.Time) string {
	return t.UTC().Format(monthKeyLayout)
}

// Aggregate derives the revenue roll-up from stored state. It is a pure
// function of its inputs.
//
// Every contract contributes its monthly-equivalent value exactly once per
// bucket family, attributed to the primary contractor's location. Each
// distinct contractor location adds one to the coverage counter of its
// bucket.
func Aggregate(cfg Config, snap Snapshot, filter types.RevenueFilter) *Result {
	activeOnly := cfg.ActiveOnly
	if filter.ActiveOnly != nil {
		activeOnly = *filter.ActiveOnly
	}
	period := filter.Period()
	stateFilter := normalizeState(filter.State)

	revisionsByID := lo.KeyBy(snap.Revisions, func(r *revision.Revision) string {
		return r.ID
	})
	signedContracts := make(map[string]bool)
	for _, s := range snap.Signatures {
		if s.IsCurrent() {
			signedContracts[s.ContractID] = true
		}
	}

	result := &Result{
		TotalValue: decimal.Zero,
		Currency:   cfg.Currency,
	}
	byState := make(bucketSet)
	byCity := make(bucketSet)
	byMonth := make(bucketSet)

	for _, c := range snap.Contracts {
		if activeOnly && !c.ContractStatus.IsInForce() {
			continue
		}
		if !period.Contains(c.StartDate) {
			continue
		}

		touchesState := stateFilter == "" || lo.ContainsBy(c.Contractors, func(ctr *contract.Contractor) bool {
			return normalizeState(ctr.State) == stateFilter
		})
		if !touchesState {
			continue
		}

		primary := c.PrimaryContractor()
		attributed := primary != nil &&
			(stateFilter == "" || normalizeState(primary.State) == stateFilter)

		month := monthKey(c.StartDate)
		monthBucket := byMonth.get(month, func(b *Bucket) { b.Month = month })
		monthBucket.CoverageCount++

		if attributed {
			value, planType := EffectiveTerms(c, snap.Addons, revisionsByID)
			monthly := MonthlyEquivalent(value, planType)

			result.TotalValue = result.TotalValue.Add(monthly)
			result.ContractCount++
			if signedContracts[c.ID] {
				result.SignedContractCount++
			}

			state := normalizeState(primary.State)
			stateBucket := byState.get(state, func(b *Bucket) { b.State = state })
			stateBucket.Value = stateBucket.Value.Add(monthly)
			stateBucket.ContractCount++

			city := cityKey(primary.City, primary.State)
			cityBucket := byCity.get(city, func(b *Bucket) {
				b.City = strings.TrimSpace(primary.City)
				b.State = state
			})
			cityBucket.Value = cityBucket.Value.Add(monthly)
			cityBucket.ContractCount++

			monthBucket.Value = monthBucket.Value.Add(monthly)
			monthBucket.ContractCount++
		}

		seenStates := make(map[string]bool)
		seenCities := make(map[string]bool)
		for _, ctr := range c.Contractors {
			state := normalizeState(ctr.State)
			if stateFilter != "" && state != stateFilter {
				continue
			}
			if !seenStates[state] {
				seenStates[state] = true
				byState.get(state, func(b *Bucket) { b.State = state }).CoverageCount++
			}
			city := cityKey(ctr.City, ctr.State)
			if !seenCities[city] {
				seenCities[city] = true
				cityName := strings.TrimSpace(ctr.City)
				byCity.get(city, func(b *Bucket) {
					b.City = cityName
					b.State = state
				}).CoverageCount++
			}
		}
	}

	result.TotalValue = result.TotalValue.Round(cfg.RoundingPlaces)
	result.ByState = byState.sorted(cfg.RoundingPlaces)
	result.ByCity = byCity.sorted(cfg.RoundingPlaces)
	result.ByMonth = byMonth.sorted(cfg.RoundingPlaces)
	return result
}

// ExportRow is one flattened bucket of a roll-up for CSV export
type ExportRow struct {
	Dimension     string `csv:"dimension"`
	Key           string `csv:"key"`
	State         string `csv:"state"`
	City          string `csv:"city"`
	Month         string `csv:"month"`
	Value         string `csv:"monthly_value"`
	Currency      string `csv:"currency"`
	ContractCount int    `csv:"contract_count"`
	CoverageCount int    `csv:"coverage_count"`
}

// Rows flattens the result, starting with a total row
func (r *Result) Rows() []*ExportRow {
	rows := []*ExportRow{{
		Dimension:     "total",
		Key:           "total",
		Value:         r.TotalValue.String(),
		Currency:      r.Currency,
		ContractCount: r.ContractCount,
	}}
	add := func(dimension string, buckets []Bucket) {
		for _, b := range buckets {
			rows = append(rows, &ExportRow{
				Dimension:     dimension,
				Key:           b.Key,
				State:         b.State,
				City:          b.City,
				Month:         b.Month,
				Value:         b.Value.String(),
				Currency:      r.Currency,
				ContractCount: b.ContractCount,
				CoverageCount: b.CoverageCount,
			})
		}
	}
	add("state", r.ByState)
	add("city", r.ByCity)
	add("month", r.ByMonth)
	return rows
}
