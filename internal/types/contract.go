package types

import (
	"fmt"

	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/samber/lo"
)

// ContractStatus is the lifecycle state of a contract. The revision lock is
// the under_revision status itself.
type ContractStatus string

const (
	ContractStatusDraft         ContractStatus = "draft"
	ContractStatusActive        ContractStatus = "active"
	ContractStatusUnderRevision ContractStatus = "under_revision"
	ContractStatusCancelled     ContractStatus = "cancelled"
)

func (s ContractStatus) String() string {
	return string(s)
}

func (s ContractStatus) Validate() error {
	allowed := []ContractStatus{
		ContractStatusDraft,
		ContractStatusActive,
		ContractStatusUnderRevision,
		ContractStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid contract status").
			WithHint("Contract status must be one of draft, active, under_revision or cancelled").
			WithReportableDetails(map[string]any{
				"contract_status": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsInForce reports whether the contract counts as running for reporting
// purposes. A contract under revision keeps its current terms in force.
func (s ContractStatus) IsInForce() bool {
	return s == ContractStatusActive || s == ContractStatusUnderRevision
}

// PlanType is the billing period of a contract value
type PlanType string

const (
	PlanTypeMonthly    PlanType = "monthly"
	PlanTypeSemiannual PlanType = "semiannual"
	PlanTypeAnnual     PlanType = "annual"
)

func (p PlanType) String() string {
	return string(p)
}

func (p PlanType) Validate() error {
	if p.Months() == 0 {
		return ierr.NewError(fmt.Sprintf("invalid plan type %q", p)).
			WithHint("Plan type must be one of monthly, semiannual or annual").
			WithReportableDetails(map[string]any{
				"plan_type": p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Months is the number of months one payment of the plan covers. Zero for
// unknown plan types.
func (p PlanType) Months() int64 {
	switch p {
	case PlanTypeMonthly:
		return 1
	case PlanTypeSemiannual:
		return 6
	case PlanTypeAnnual:
		return 12
	}
	return 0
}

// ContractFilter filters contract listings
type ContractFilter struct {
	*QueryFilter
	ContractIDs      []string         `json:"contract_ids,omitempty" form:"contract_ids"`
	ContractStatuses []ContractStatus `json:"contract_statuses,omitempty" form:"contract_status"`
	State            string           `json:"state,omitempty" form:"state"`
	ContractNumber   string           `json:"contract_number,omitempty" form:"contract_number"`
}

func NewContractFilter() *ContractFilter {
	return &ContractFilter{QueryFilter: NewDefaultQueryFilter()}
}

func NewNoLimitContractFilter() *ContractFilter {
	return &ContractFilter{QueryFilter: NewNoLimitQueryFilter()}
}

func (f *ContractFilter) Validate() error {
	if f == nil {
		return nil
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	for _, s := range f.ContractStatuses {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
