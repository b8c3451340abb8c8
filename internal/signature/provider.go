package signature

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/flexprice/contractflow/internal/domain/contract"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Provider is the capability every signature provider exposes. Providers
// never touch contract state, they hand back an external id that later
// callbacks refer to.
type Provider interface {
	Type() types.ProviderType
	CreateSigningRequest(ctx context.Context, snapshot ContractSnapshot, identity ContractorIdentity) (*SigningRequestResult, error)
}

// ContractSnapshot is the read-only view of a contract sent to a provider
type ContractSnapshot struct {
	TenantID       string
	ContractID     string
	ContractNumber string
	TermsVersion   int
	PlanType       types.PlanType
	BaseValue      decimal.Decimal
	Currency       string
	StartDate      time.Time
}

// ContractorIdentity is the signer a request is issued for
type ContractorIdentity struct {
	ContractorID          string
	LegalName             string
	TaxID                 string
	ResponsibleName       string
	ResponsiblePersonalID string
	Email                 string
}

// SigningRequestResult is what a provider returns for a new request
type SigningRequestResult struct {
	ExternalID string
	SigningURL string
}

func NewContractSnapshot(c *contract.Contract) ContractSnapshot {
	return ContractSnapshot{
		TenantID:       c.TenantID,
		ContractID:     c.ID,
		ContractNumber: c.ContractNumber,
		TermsVersion:   c.TermsVersion,
		PlanType:       c.PlanType,
		BaseValue:      c.BaseValue,
		Currency:       c.Currency,
		StartDate:      c.StartDate,
	}
}

func NewContractorIdentity(c *contract.Contractor) ContractorIdentity {
	return ContractorIdentity{
		ContractorID:          c.ID,
		LegalName:             c.LegalName,
		TaxID:                 c.TaxID,
		ResponsibleName:       c.ResponsibleName,
		ResponsiblePersonalID: c.ResponsiblePersonalID,
		Email:                 c.Email,
	}
}

// SignerIdentity is the signer as reported by the provider
type SignerIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CallbackPayload is the uniform body every provider callback is mapped to
type CallbackPayload struct {
	Event          string         `json:"event"`
	ExternalID     string         `json:"externalId"`
	SignerIdentity SignerIdentity `json:"signerIdentity"`
	Status         string         `json:"status"`
	SignedAt       *time.Time     `json:"signedAt,omitempty"`
}

// IsCompleted reports whether the callback announces a finished signature
func (p *CallbackPayload) IsCompleted() bool {
	return lo.Contains(types.SignatureCompletedStatuses, strings.ToLower(strings.TrimSpace(p.Status)))
}

// ParseCallback decodes a raw callback body
func ParseCallback(raw []byte) (*CallbackPayload, error) {
	var payload CallbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Callback body is not valid JSON").
			Mark(ierr.ErrValidation)
	}
	return &payload, nil
}
