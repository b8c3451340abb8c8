package contract

import (
	"context"
	"time"

	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Contract is the canonical contract record. Only the contract ledger
// mutates it.
type Contract struct {
	ID             string               `db:"id" json:"id"`
	ContractNumber string               `db:"contract_number" json:"contract_number"`
	ContractStatus types.ContractStatus `db:"contract_status" json:"contract_status"`
	PlanType       types.PlanType       `db:"plan_type" json:"plan_type"`
	// BaseValue is denominated in the plan period, an annual contract carries
	// the full annual price
	BaseValue   decimal.Decimal `db:"base_value" json:"base_value" swaggertype:"string"`
	Currency    string          `db:"currency" json:"currency"`
	StartDate   time.Time       `db:"start_date" json:"start_date"`
	RenewalDate *time.Time      `db:"renewal_date" json:"renewal_date,omitempty"`
	PaymentDay  int             `db:"payment_day" json:"payment_day"`
	TrialDays   int             `db:"trial_days" json:"trial_days"`

	// PrimaryContractorIndex points at the contractor that receives monetary
	// attribution in reports
	PrimaryContractorIndex int `db:"primary_contractor_index" json:"primary_contractor_index"`

	// RevisionCounter is the highest revision number ever assigned
	RevisionCounter int `db:"revision_counter" json:"revision_counter"`

	// TermsVersion starts at 1 and increments on every applied revision.
	// Signatures record the terms version they were given against.
	TermsVersion           int     `db:"terms_version" json:"terms_version"`
	LastApprovedRevisionID *string `db:"last_approved_revision_id" json:"last_approved_revision_id,omitempty"`

	Version     int        `db:"version" json:"version"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`

	Contractors []*Contractor `db:"-" json:"contractors"`

	types.BaseModel
}

// Contractor is a signing party of exactly one contract
type Contractor struct {
	ID                    string `db:"id" json:"id"`
	ContractID            string `db:"contract_id" json:"contract_id"`
	Position              int    `db:"position" json:"position"`
	LegalName             string `db:"legal_name" json:"legal_name"`
	TaxID                 string `db:"tax_id" json:"tax_id"`
	City                  string `db:"city" json:"city"`
	State                 string `db:"state" json:"state"`
	ResponsibleName       string `db:"responsible_name" json:"responsible_name"`
	ResponsiblePersonalID string `db:"responsible_personal_id" json:"responsible_personal_id"`
	Email                 string `db:"email" json:"email,omitempty"`

	types.BaseModel
}

// Terms returns the full current terms as an overlay
func (c *Contract) Terms() ContractTerms {
	value := c.BaseValue
	planType := c.PlanType
	paymentDay := c.PaymentDay
	trialDays := c.TrialDays
	startDate := c.StartDate

	return ContractTerms{
		BaseValue:   &value,
		PlanType:    &planType,
		PaymentDay:  &paymentDay,
		TrialDays:   &trialDays,
		StartDate:   &startDate,
		RenewalDate: c.RenewalDate,
	}
}

// ApplyTerms overlays the set fields of terms onto the contract
func (c *Contract) ApplyTerms(terms ContractTerms) {
	if terms.BaseValue != nil {
		c.BaseValue = *terms.BaseValue
	}
	if terms.PlanType != nil {
		c.PlanType = *terms.PlanType
	}
	if terms.PaymentDay != nil {
		c.PaymentDay = *terms.PaymentDay
	}
	if terms.TrialDays != nil {
		c.TrialDays = *terms.TrialDays
	}
	if terms.StartDate != nil {
		c.StartDate = *terms.StartDate
	}
	if terms.RenewalDate != nil {
		c.RenewalDate = terms.RenewalDate
	}
}

// PrimaryContractor returns the contractor attributed with the contract
// value. An out of range index falls back to the first contractor.
func (c *Contract) PrimaryContractor() *Contractor {
	if len(c.Contractors) == 0 {
		return nil
	}
	if c.PrimaryContractorIndex < 0 || c.PrimaryContractorIndex >= len(c.Contractors) {
		return c.Contractors[0]
	}
	return c.Contractors[c.PrimaryContractorIndex]
}

// ScopedTo returns a shallow copy listing only the given contractor. The
// primary index is rebased so it stays within the listed contractors.
func (c *Contract) ScopedTo(ctr *Contractor) *Contract {
	scoped := *c
	scoped.Contractors = []*Contractor{ctr}
	scoped.PrimaryContractorIndex = 0
	return &scoped
}

func (c *Contract) GetContractor(contractorID string) (*Contractor, bool) {
	return lo.Find(c.Contractors, func(ctr *Contractor) bool {
		return ctr.ID == contractorID
	})
}

// IsLocked reports whether a revision currently holds the contract
func (c *Contract) IsLocked() bool {
	return c.ContractStatus == types.ContractStatusUnderRevision
}

// Touch bumps the audit fields before a write
func (c *Contract) Touch(ctx context.Context) {
	c.BaseModel.Touch(ctx)
}

func (c *Contract) Validate() error {
	if c.ContractNumber == "" {
		return ierr.NewError("contract number is required").
			WithHint("Contract number is required").
			Mark(ierr.ErrValidation)
	}

	if err := c.ContractStatus.Validate(); err != nil {
		return err
	}

	if err := c.Terms().Validate(); err != nil {
		return err
	}

	if len(c.Contractors) == 0 {
		return ierr.NewError("contract requires at least one contractor").
			WithHint("A contract needs at least one contractor").
			WithReportableDetails(map[string]any{
				"contractors": "must not be empty",
			}).
			Mark(ierr.ErrValidation)
	}

	if c.PrimaryContractorIndex < 0 || c.PrimaryContractorIndex >= len(c.Contractors) {
		return ierr.NewError("primary contractor index out of range").
			WithHint("Primary contractor must reference one of the contract's contractors").
			WithReportableDetails(map[string]any{
				"primary_contractor_index": c.PrimaryContractorIndex,
				"contractors":              len(c.Contractors),
			}).
			Mark(ierr.ErrValidation)
	}

	for i, ctr := range c.Contractors {
		if err := ctr.Validate(); err != nil {
			return ierr.WithError(err).
				WithReportableDetails(map[string]any{
					"contractor_index": i,
				}).
				Mark(ierr.ErrValidation)
		}
	}

	return nil
}

func (c *Contractor) Validate() error {
	missing := make([]string, 0)
	if c.LegalName == "" {
		missing = append(missing, "legal_name")
	}
	if c.TaxID == "" {
		missing = append(missing, "tax_id")
	}
	if c.City == "" {
		missing = append(missing, "city")
	}
	if c.State == "" {
		missing = append(missing, "state")
	}
	if len(missing) > 0 {
		return ierr.NewError("contractor is missing required fields").
			WithHintf("Contractor is missing required fields: %v", missing).
			WithReportableDetails(map[string]any{
				"missing_fields": missing,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
