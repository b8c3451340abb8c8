package addon

import (
	"time"

	"github.com/flexprice/contractflow/internal/types"
	"github.com/shopspring/decimal"
)

// PlanChangeAddon records the delta of an approved revision. The newest
// approved addon of a contract overrides its base value in reports.
type PlanChangeAddon struct {
	ID               string            `db:"id" json:"id"`
	ContractID       string            `db:"contract_id" json:"contract_id"`
	RevisionID       string            `db:"revision_id" json:"revision_id"`
	RevisionNumber   int               `db:"revision_number" json:"revision_number"`
	AddonType        types.AddonType   `db:"addon_type" json:"addon_type"`
	AddonStatus      types.AddonStatus `db:"addon_status" json:"addon_status"`
	PreviousValue    decimal.Decimal   `db:"previous_value" json:"previous_value" swaggertype:"string"`
	NewValue         decimal.Decimal   `db:"new_value" json:"new_value" swaggertype:"string"`
	PreviousPlanType types.PlanType    `db:"previous_plan_type" json:"previous_plan_type"`
	NewPlanType      types.PlanType    `db:"new_plan_type" json:"new_plan_type"`
	RequestedBy      types.ProposedBy  `db:"requested_by" json:"requested_by"`
	RequestDate      time.Time         `db:"request_date" json:"request_date"`

	// optional signature metadata when the addon itself was signed
	SignatureProvider   *types.ProviderType `db:"signature_provider" json:"signature_provider,omitempty"`
	SignatureSignedAt   *time.Time          `db:"signature_signed_at" json:"signature_signed_at,omitempty"`
	SignatureExternalID *string             `db:"signature_external_id" json:"signature_external_id,omitempty"`

	types.BaseModel
}

func (a *PlanChangeAddon) IsApproved() bool {
	return a.AddonStatus == types.AddonStatusApproved
}

// ClassifyAddon picks the addon type from what changed between two terms
// snapshots
func ClassifyAddon(valueChanged, planChanged bool) types.AddonType {
	switch {
	case planChanged:
		return types.AddonTypePlanChange
	case valueChanged:
		return types.AddonTypeValueChange
	default:
		return types.AddonTypeTermsChange
	}
}
