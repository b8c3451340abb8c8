package types

import (
	"time"

	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/samber/lo"
)

// ProviderType identifies a signature provider
type ProviderType string

const (
	ProviderNative    ProviderType = "native"
	ProviderClickSign ProviderType = "clicksign"
	ProviderD4Sign    ProviderType = "d4sign"
	ProviderZapSign   ProviderType = "zapsign"
)

func (p ProviderType) String() string {
	return string(p)
}

func (p ProviderType) Validate() error {
	allowed := []ProviderType{ProviderNative, ProviderClickSign, ProviderD4Sign, ProviderZapSign}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid signature provider").
			WithHint("Unknown signature provider").
			WithReportableDetails(map[string]any{
				"provider": p,
				"allowed":  allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SignatureOutcome is the result of recording a signature
type SignatureOutcome string

const (
	SignatureOutcomeRecorded  SignatureOutcome = "recorded"
	SignatureOutcomeResigned  SignatureOutcome = "resigned"
	SignatureOutcomeDuplicate SignatureOutcome = "duplicate"
)

// CallbackOutcome is the result of ingesting a provider callback
type CallbackOutcome string

const (
	CallbackOutcomeApplied   CallbackOutcome = "applied"
	CallbackOutcomeIgnored   CallbackOutcome = "ignored"
	CallbackOutcomeDuplicate CallbackOutcome = "duplicate"
)

type SigningRequestStatus string

const (
	SigningRequestStatusPending   SigningRequestStatus = "pending"
	SigningRequestStatusCompleted SigningRequestStatus = "completed"
	// SigningRequestStatusSuperseded marks a request issued for terms that an
	// approved revision replaced
	SigningRequestStatusSuperseded SigningRequestStatus = "superseded"
)

// Provider callback statuses that mean the signer finished signing. Anything
// else (viewed, refused, expired) is ignored.
var SignatureCompletedStatuses = []string{"signed", "completed", "closed", "finished"}

// SignatureFilter filters signature record listings
type SignatureFilter struct {
	*QueryFilter
	ContractIDs   []string `json:"contract_ids,omitempty" form:"contract_ids"`
	ContractorIDs []string `json:"contractor_ids,omitempty" form:"contractor_ids"`
	// CurrentOnly keeps records that are neither cancelled nor superseded
	CurrentOnly bool `json:"current_only,omitempty" form:"current_only"`
	// SignedBefore keeps records signed strictly before the given time
	SignedBefore *time.Time `json:"signed_before,omitempty" form:"signed_before"`
}

func NewNoLimitSignatureFilter() *SignatureFilter {
	return &SignatureFilter{QueryFilter: NewNoLimitQueryFilter()}
}
