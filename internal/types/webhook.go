package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent is the envelope of every outbound domain notification
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	TenantID  string          `json:"tenant_id"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// contract event names
const (
	WebhookEventContractCreated   = "contract.created"
	WebhookEventContractCancelled = "contract.cancelled"
)

// revision event names
const (
	WebhookEventRevisionProposed  = "revision.proposed"
	WebhookEventRevisionCountered = "revision.countered"
	WebhookEventRevisionApproved  = "revision.approved"
	WebhookEventRevisionRejected  = "revision.rejected"
)

// signature event names
const (
	WebhookEventSignatureRecorded       = "signature.recorded"
	WebhookEventSignatureResignRequired = "signature.resign_required"
	WebhookEventSignatureCancelled      = "signature.cancelled"
)
