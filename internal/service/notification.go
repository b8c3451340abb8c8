package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/domain/revision"
	"github.com/flexprice/contractflow/internal/domain/signature"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/types"
	webhookDto "github.com/flexprice/contractflow/internal/webhook/dto"
	webhookPublisher "github.com/flexprice/contractflow/internal/webhook/publisher"
)

// notifier is the fire-and-forget notification surface. Publishing failures
// are logged and never change the outcome of the operation that triggered
// them.
type notifier struct {
	publisher webhookPublisher.WebhookPublisher
	logger    *logger.Logger
}

func newNotifier(params ServiceParams) *notifier {
	return &notifier{
		publisher: params.WebhookPublisher,
		logger:    params.Logger,
	}
}

func (n *notifier) publish(ctx context.Context, eventName string, payload interface{}) {
	if n.publisher == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		n.logger.Errorw("failed to marshal webhook payload", "event_name", eventName, "error", err)
		return
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName: eventName,
		TenantID:  types.GetTenantID(ctx),
		UserID:    types.GetUserID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   json.RawMessage(raw),
	}
	if err := n.publisher.PublishWebhook(ctx, event); err != nil {
		n.logger.Errorf("failed to publish %s event: %v", event.EventName, err)
	}
}

func (n *notifier) contractEvent(ctx context.Context, eventName string, c *contract.Contract) {
	n.publish(ctx, eventName, webhookDto.InternalContractEvent{
		ContractID:     c.ID,
		ContractNumber: c.ContractNumber,
		ContractStatus: c.ContractStatus,
		TenantID:       c.TenantID,
	})
}

func (n *notifier) revisionEvent(ctx context.Context, eventName string, r *revision.Revision, state types.NegotiationState) {
	n.publish(ctx, eventName, webhookDto.InternalRevisionEvent{
		ContractID:     r.ContractID,
		RevisionID:     r.ID,
		RevisionNumber: r.RevisionNumber,
		Round:          r.Round,
		ProposedBy:     r.ProposedBy,
		RevisionStatus: r.RevisionStatus,
		State:          state,
		TenantID:       r.TenantID,
	})
}

func (n *notifier) signatureEvent(ctx context.Context, eventName string, s *signature.SignatureRecord) {
	n.publish(ctx, eventName, webhookDto.InternalSignatureEvent{
		ContractID:   s.ContractID,
		ContractorID: s.ContractorID,
		SignatureID:  s.ID,
		TermsVersion: s.TermsVersion,
		TenantID:     s.TenantID,
	})
}

// resignRequired tells every contractor of c that the approved revision
// superseded the terms they signed
func (n *notifier) resignRequired(ctx context.Context, c *contract.Contract, revisionID string) {
	n.publish(ctx, types.WebhookEventSignatureResignRequired, webhookDto.InternalSignatureEvent{
		ContractID:   c.ID,
		TermsVersion: c.TermsVersion,
		RevisionID:   revisionID,
		TenantID:     c.TenantID,
	})
}
