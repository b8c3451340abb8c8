package signature

import (
	"time"

	"github.com/flexprice/contractflow/internal/types"
)

// SignatureRecord is a completed signing event. Records are never deleted.
// A record stops being current when it is cancelled or superseded by a
// re-sign after an approved revision.
type SignatureRecord struct {
	ID             string             `db:"id" json:"id"`
	ContractID     string             `db:"contract_id" json:"contract_id"`
	ContractorID   string             `db:"contractor_id" json:"contractor_id"`
	Provider       types.ProviderType `db:"provider" json:"provider"`
	Nonce          string             `db:"nonce" json:"nonce"`
	IdempotencyKey string             `db:"idempotency_key" json:"idempotency_key"`
	ExternalID     *string            `db:"external_id" json:"external_id,omitempty"`
	// TermsVersion is the contract terms version that was signed
	TermsVersion int       `db:"terms_version" json:"terms_version"`
	SignedAt     time.Time `db:"signed_at" json:"signed_at"`
	ClientIP     string    `db:"client_ip" json:"client_ip,omitempty"`
	UserAgent    string    `db:"user_agent" json:"user_agent,omitempty"`

	IsCancelled        bool       `db:"is_cancelled" json:"is_cancelled"`
	CancellationReason string     `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`

	SupersededByRevisionID *string    `db:"superseded_by_revision_id" json:"superseded_by_revision_id,omitempty"`
	SupersededAt           *time.Time `db:"superseded_at" json:"superseded_at,omitempty"`

	types.BaseModel
}

// IsCurrent reports whether the record still carries legal force
func (s *SignatureRecord) IsCurrent() bool {
	return !s.IsCancelled && s.SupersededByRevisionID == nil
}

func (s *SignatureRecord) IsSuperseded() bool {
	return s.SupersededByRevisionID != nil
}

func (s *SignatureRecord) Cancel(reason string, at time.Time) {
	s.IsCancelled = true
	s.CancellationReason = reason
	s.CancelledAt = &at
}

func (s *SignatureRecord) Supersede(revisionID string, at time.Time) {
	s.SupersededByRevisionID = &revisionID
	s.SupersededAt = &at
}

// Proof is the evidence accompanying a signature
type Proof struct {
	Nonce      string     `json:"nonce" validate:"required"`
	ExternalID *string    `json:"external_id,omitempty"`
	SignedAt   *time.Time `json:"signed_at,omitempty"`
	ClientIP   string     `json:"client_ip,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
}

// SigningRequest maps a provider's external id back to the contractor it
// was issued for
type SigningRequest struct {
	ID            string                     `db:"id" json:"id"`
	ContractID    string                     `db:"contract_id" json:"contract_id"`
	ContractorID  string                     `db:"contractor_id" json:"contractor_id"`
	Provider      types.ProviderType         `db:"provider" json:"provider"`
	ExternalID    string                     `db:"external_id" json:"external_id"`
	SigningURL    string                     `db:"signing_url" json:"signing_url"`
	TermsVersion  int                        `db:"terms_version" json:"terms_version"`
	RequestStatus types.SigningRequestStatus `db:"request_status" json:"request_status"`

	types.BaseModel
}

// ProviderEvent is the dedup ledger entry of one inbound provider callback
type ProviderEvent struct {
	ID              string                `db:"id" json:"id"`
	Provider        types.ProviderType    `db:"provider" json:"provider"`
	ProviderEventID string                `db:"provider_event_id" json:"provider_event_id"`
	ExternalID      string                `db:"external_id" json:"external_id"`
	Outcome         types.CallbackOutcome `db:"outcome" json:"outcome"`
	Detail          string                `db:"detail" json:"detail,omitempty"`
	ReceivedAt      time.Time             `db:"received_at" json:"received_at"`

	types.BaseModel
}
