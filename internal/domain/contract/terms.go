package contract

import (
	"database/sql/driver"
	"encoding/json"
	"sort"
	"strings"
	"time"

	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ContractTerms is a partial overlay of the billing terms of a contract.
// Nil fields are left untouched when the overlay is applied.
type ContractTerms struct {
	BaseValue   *decimal.Decimal `json:"base_value,omitempty" swaggertype:"string"`
	PlanType    *types.PlanType  `json:"plan_type,omitempty"`
	PaymentDay  *int             `json:"payment_day,omitempty"`
	TrialDays   *int             `json:"trial_days,omitempty"`
	StartDate   *time.Time       `json:"start_date,omitempty"`
	RenewalDate *time.Time       `json:"renewal_date,omitempty"`
}

// IsEmpty reports whether the overlay sets no field at all
func (t ContractTerms) IsEmpty() bool {
	return t.BaseValue == nil &&
		t.PlanType == nil &&
		t.PaymentDay == nil &&
		t.TrialDays == nil &&
		t.StartDate == nil &&
		t.RenewalDate == nil
}

// Validate checks every field that is set. The error names the offending
// fields so callers can point at them.
func (t ContractTerms) Validate() error {
	invalid := make(map[string]any)

	if t.BaseValue != nil && !t.BaseValue.IsPositive() {
		invalid["base_value"] = "must be greater than zero"
	}
	if t.PlanType != nil && t.PlanType.Months() == 0 {
		invalid["plan_type"] = "must be one of monthly, semiannual or annual"
	}
	if t.PaymentDay != nil && (*t.PaymentDay < 1 || *t.PaymentDay > 31) {
		invalid["payment_day"] = "must be between 1 and 31"
	}
	if t.TrialDays != nil && *t.TrialDays < 0 {
		invalid["trial_days"] = "must not be negative"
	}
	if t.StartDate != nil && t.RenewalDate != nil && !t.RenewalDate.After(*t.StartDate) {
		invalid["renewal_date"] = "must be after start_date"
	}

	if len(invalid) > 0 {
		fields := lo.Keys(invalid)
		sort.Strings(fields)
		return ierr.NewError("invalid contract terms").
			WithHintf("Invalid contract terms: %s", strings.Join(fields, ", ")).
			WithReportableDetails(invalid).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Merge returns t overlaid with every field set in other
func (t ContractTerms) Merge(other ContractTerms) ContractTerms {
	merged := t
	if other.BaseValue != nil {
		merged.BaseValue = other.BaseValue
	}
	if other.PlanType != nil {
		merged.PlanType = other.PlanType
	}
	if other.PaymentDay != nil {
		merged.PaymentDay = other.PaymentDay
	}
	if other.TrialDays != nil {
		merged.TrialDays = other.TrialDays
	}
	if other.StartDate != nil {
		merged.StartDate = other.StartDate
	}
	if other.RenewalDate != nil {
		merged.RenewalDate = other.RenewalDate
	}
	return merged
}

// Diff keeps only the fields of t that differ from current. An empty result
// means the overlay would not change anything.
func (t ContractTerms) Diff(current ContractTerms) ContractTerms {
	var diff ContractTerms
	if t.BaseValue != nil && (current.BaseValue == nil || !t.BaseValue.Equal(*current.BaseValue)) {
		diff.BaseValue = t.BaseValue
	}
	if t.PlanType != nil && (current.PlanType == nil || *t.PlanType != *current.PlanType) {
		diff.PlanType = t.PlanType
	}
	if t.PaymentDay != nil && (current.PaymentDay == nil || *t.PaymentDay != *current.PaymentDay) {
		diff.PaymentDay = t.PaymentDay
	}
	if t.TrialDays != nil && (current.TrialDays == nil || *t.TrialDays != *current.TrialDays) {
		diff.TrialDays = t.TrialDays
	}
	if t.StartDate != nil && (current.StartDate == nil || !t.StartDate.Equal(*current.StartDate)) {
		diff.StartDate = t.StartDate
	}
	if t.RenewalDate != nil && (current.RenewalDate == nil || !t.RenewalDate.Equal(*current.RenewalDate)) {
		diff.RenewalDate = t.RenewalDate
	}
	return diff
}

// ChangedFields lists the json names of the fields set in the overlay
func (t ContractTerms) ChangedFields() []string {
	fields := make([]string, 0, 6)
	if t.BaseValue != nil {
		fields = append(fields, "base_value")
	}
	if t.PlanType != nil {
		fields = append(fields, "plan_type")
	}
	if t.PaymentDay != nil {
		fields = append(fields, "payment_day")
	}
	if t.TrialDays != nil {
		fields = append(fields, "trial_days")
	}
	if t.StartDate != nil {
		fields = append(fields, "start_date")
	}
	if t.RenewalDate != nil {
		fields = append(fields, "renewal_date")
	}
	return fields
}

// Value implements driver.Valuer for the jsonb columns
func (t ContractTerms) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements sql.Scanner for the jsonb columns
func (t *ContractTerms) Scan(value interface{}) error {
	if value == nil {
		*t = ContractTerms{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return ierr.NewErrorf("cannot scan %T into contract terms", value).
			Mark(ierr.ErrDatabase)
	}
	return json.Unmarshal(data, t)
}
