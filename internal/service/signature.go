package service

import (
	"context"
	"strings"
	"time"

	"github.com/flexprice/contractflow/internal/api/dto"
	"github.com/flexprice/contractflow/internal/cache"
	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/domain/signature"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/idempotency"
	sigprovider "github.com/flexprice/contractflow/internal/signature"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
)

// SignatureService is the signature ledger. It keeps at most one current
// signature per contractor and contract.
type SignatureService interface {
	RecordSignature(ctx context.Context, contractID string, req dto.RecordSignatureRequest) (*dto.SignatureResponse, error)
	CancelSignature(ctx context.Context, signatureID string, req dto.CancelSignatureRequest) (*dto.SignatureResponse, error)
	RequestSignature(ctx context.Context, contractID string, req dto.CreateSigningRequestRequest) (*dto.SigningRequestResponse, error)
	IngestProviderCallback(ctx context.Context, provider types.ProviderType, providerEventID string, payload *sigprovider.CallbackPayload) (*dto.ProviderCallbackResponse, error)
	ListSignatures(ctx context.Context, contractID string, filter *types.SignatureFilter) (*dto.ListSignaturesResponse, error)
}

type signatureService struct {
	ServiceParams
	contracts   ContractService
	notifier    *notifier
	idempotency *idempotency.Generator
}

func NewSignatureService(params ServiceParams) SignatureService {
	return &signatureService{
		ServiceParams: params,
		contracts:     NewContractService(params),
		notifier:      newNotifier(params),
		idempotency:   idempotency.NewGenerator(),
	}
}

func (s *signatureService) RecordSignature(ctx context.Context, contractID string, req dto.RecordSignatureRequest) (*dto.SignatureResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.ContractRepo.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if _, ok := c.GetContractor(req.ContractorID); !ok {
		return nil, contractorNotFoundError(contractID, req.ContractorID)
	}

	key := s.idempotency.GenerateKey(idempotency.ScopeSignatureRecord, map[string]interface{}{
		"contract_id":   contractID,
		"contractor_id": req.ContractorID,
		"provider":      req.Provider,
		"nonce":         req.Proof.Nonce,
	})

	var (
		rec     *signature.SignatureRecord
		outcome types.SignatureOutcome
	)

	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.DB.LockKey(txCtx, types.LockRequest{
			Key: types.SignatureLockKey(contractID, req.ContractorID),
		}); err != nil {
			return err
		}

		existing, err := s.SignatureRepo.GetByIdempotencyKey(txCtx, key)
		if err == nil {
			rec = existing
			outcome = types.SignatureOutcomeDuplicate
			return nil
		}
		if !ierr.IsNotFound(err) {
			return err
		}

		// re-read under the lock, an approval may have moved the terms
		c, err := s.ContractRepo.Get(txCtx, contractID)
		if err != nil {
			return err
		}
		if c.ContractStatus == types.ContractStatusCancelled {
			return ierr.NewError("contract is cancelled").
				WithHint("A cancelled contract cannot be signed").
				WithReportableDetails(map[string]any{
					"contract_id": contractID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		if req.TermsVersion != nil && *req.TermsVersion != c.TermsVersion {
			return ierr.WithError(signature.ErrTermsChanged).
				WithHintf("The contract is now at terms version %d, request a new signature", c.TermsVersion).
				WithReportableDetails(map[string]any{
					"contract_id":             contractID,
					"contractor_id":           req.ContractorID,
					"requested_terms_version": *req.TermsVersion,
					"terms_version":           c.TermsVersion,
				}).
				Mark(ierr.ErrConflict)
		}

		now := time.Now().UTC()
		outcome = types.SignatureOutcomeRecorded

		current, err := s.currentSignature(txCtx, contractID, req.ContractorID)
		if err != nil {
			return err
		}
		if current != nil {
			if current.TermsVersion >= c.TermsVersion || c.LastApprovedRevisionID == nil {
				return ierr.WithError(signature.ErrAlreadySigned).
					WithHint("This contractor already signed the current terms").
					WithReportableDetails(map[string]any{
						"contract_id":   contractID,
						"contractor_id": req.ContractorID,
						"signature_id":  current.ID,
						"terms_version": current.TermsVersion,
					}).
					Mark(ierr.ErrConflict)
			}

			current.Supersede(*c.LastApprovedRevisionID, now)
			current.Touch(txCtx)
			if err := s.SignatureRepo.Update(txCtx, current); err != nil {
				return err
			}
			outcome = types.SignatureOutcomeResigned
		}

		rec = &signature.SignatureRecord{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SIGNATURE),
			ContractID:     contractID,
			ContractorID:   req.ContractorID,
			Provider:       req.Provider,
			Nonce:          req.Proof.Nonce,
			IdempotencyKey: key,
			ExternalID:     req.Proof.ExternalID,
			TermsVersion:   c.TermsVersion,
			SignedAt:       lo.FromPtrOr(req.Proof.SignedAt, now).UTC(),
			ClientIP:       req.Proof.ClientIP,
			UserAgent:      req.Proof.UserAgent,
			BaseModel:      types.GetDefaultBaseModel(txCtx),
		}
		if err := s.SignatureRepo.Create(txCtx, rec); err != nil {
			return err
		}

		if c.ContractStatus == types.ContractStatusDraft {
			if _, err := s.contracts.Activate(txCtx, contractID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome != types.SignatureOutcomeDuplicate {
		s.Logger.Infow("signature recorded",
			"contract_id", contractID,
			"contractor_id", req.ContractorID,
			"signature_id", rec.ID,
			"provider", req.Provider,
			"outcome", outcome,
			"terms_version", rec.TermsVersion,
		)
		s.notifier.signatureEvent(ctx, types.WebhookEventSignatureRecorded, rec)
	}

	return &dto.SignatureResponse{SignatureRecord: rec, Outcome: outcome}, nil
}

func (s *signatureService) CancelSignature(ctx context.Context, signatureID string, req dto.CancelSignatureRequest) (*dto.SignatureResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rec, err := s.SignatureRepo.Get(ctx, signatureID)
	if err != nil {
		return nil, err
	}
	if rec.IsCancelled {
		return nil, alreadyCancelledError(rec)
	}

	var cancelledContract *contract.Contract

	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.DB.LockKey(txCtx, types.LockRequest{
			Key: types.ContractCancellationLockKey(rec.ContractID),
		}); err != nil {
			return err
		}
		if err := s.DB.LockKey(txCtx, types.LockRequest{
			Key: types.SignatureLockKey(rec.ContractID, rec.ContractorID),
		}); err != nil {
			return err
		}

		rec, err = s.SignatureRepo.Get(txCtx, signatureID)
		if err != nil {
			return err
		}
		if rec.IsCancelled {
			return alreadyCancelledError(rec)
		}

		c, err := s.ContractRepo.Get(txCtx, rec.ContractID)
		if err != nil {
			return err
		}

		filter := types.NewNoLimitSignatureFilter()
		filter.ContractIDs = []string{rec.ContractID}
		filter.CurrentOnly = true
		currents, err := s.SignatureRepo.List(txCtx, filter)
		if err != nil {
			return err
		}
		others := lo.Reject(currents, func(o *signature.SignatureRecord, _ int) bool {
			return o.ID == rec.ID
		})
		last := rec.IsCurrent() && len(others) == 0

		if last && c.ContractStatus == types.ContractStatusUnderRevision {
			return revisionInProgressError(c.ID, ierr.NewError("last current signature of a contract under revision").Error())
		}

		rec.Cancel(req.Reason, time.Now().UTC())
		rec.Touch(txCtx)
		if err := s.SignatureRepo.Update(txCtx, rec); err != nil {
			return err
		}

		if last && c.ContractStatus == types.ContractStatusActive {
			cancelledContract, err = s.contracts.Cancel(txCtx, c.ID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("signature cancelled",
		"contract_id", rec.ContractID,
		"contractor_id", rec.ContractorID,
		"signature_id", rec.ID,
		"contract_cancelled", cancelledContract != nil,
	)
	s.notifier.signatureEvent(ctx, types.WebhookEventSignatureCancelled, rec)

	return &dto.SignatureResponse{SignatureRecord: rec}, nil
}

func (s *signatureService) RequestSignature(ctx context.Context, contractID string, req dto.CreateSigningRequestRequest) (*dto.SigningRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	provider, err := s.Providers.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	c, err := s.ContractRepo.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	ctr, ok := c.GetContractor(req.ContractorID)
	if !ok {
		return nil, contractorNotFoundError(contractID, req.ContractorID)
	}
	if c.ContractStatus == types.ContractStatusCancelled {
		return nil, ierr.NewError("contract is cancelled").
			WithHint("A cancelled contract cannot be signed").
			Mark(ierr.ErrInvalidOperation)
	}

	result, err := s.createSigningRequest(ctx, provider, c, ctr)
	if err != nil {
		return nil, err
	}

	sr := &signature.SigningRequest{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SIGNING_REQUEST),
		ContractID:    c.ID,
		ContractorID:  ctr.ID,
		Provider:      provider.Type(),
		ExternalID:    result.ExternalID,
		SigningURL:    result.SigningURL,
		TermsVersion:  c.TermsVersion,
		RequestStatus: types.SigningRequestStatusPending,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		return s.SigningRequestRepo.Create(txCtx, sr)
	}); err != nil {
		return nil, err
	}

	s.Logger.Infow("signing request created",
		"contract_id", c.ID,
		"contractor_id", ctr.ID,
		"provider", sr.Provider,
		"external_id", sr.ExternalID,
	)
	return &dto.SigningRequestResponse{SigningRequest: sr}, nil
}

func (s *signatureService) createSigningRequest(ctx context.Context, provider sigprovider.Provider, c *contract.Contract, ctr *contract.Contractor) (*sigprovider.SigningRequestResult, error) {
	if s.Sentry != nil {
		span, spanCtx := s.Sentry.StartProviderSpan(ctx, provider.Type().String(), "create_signing_request")
		if span != nil {
			defer span.Finish()
			ctx = spanCtx
		}
	}

	return provider.CreateSigningRequest(ctx, sigprovider.NewContractSnapshot(c), sigprovider.NewContractorIdentity(ctr))
}

// IngestProviderCallback maps a provider completion callback onto
// RecordSignature. Stale or unknown references are ignored rather than
// failed so providers do not retry them.
func (s *signatureService) IngestProviderCallback(ctx context.Context, provider types.ProviderType, providerEventID string, payload *sigprovider.CallbackPayload) (*dto.ProviderCallbackResponse, error) {
	if err := provider.Validate(); err != nil {
		return nil, err
	}
	if payload == nil || payload.ExternalID == "" {
		return nil, ierr.NewError("external id is required").
			WithHint("Callback is missing the external id").
			WithReportableDetails(map[string]any{
				"externalId": "required",
			}).
			Mark(ierr.ErrValidation)
	}
	if providerEventID == "" {
		providerEventID = s.idempotency.GenerateKey(idempotency.ScopeProviderEvent, map[string]interface{}{
			"provider":    provider,
			"external_id": payload.ExternalID,
			"event":       payload.Event,
			"status":      strings.ToLower(payload.Status),
		})
	}

	cacheKey := cache.GenerateKey(cache.PrefixProviderEvent, provider, providerEventID)
	if !s.Cache.Add(ctx, cacheKey, true, 0) {
		return &dto.ProviderCallbackResponse{Outcome: types.CallbackOutcomeDuplicate}, nil
	}

	resp, err := s.ingest(ctx, provider, providerEventID, payload)
	if err != nil {
		// let the provider retry
		s.Cache.Delete(ctx, cacheKey)
		return nil, err
	}

	s.Logger.Infow("provider callback processed",
		"provider", provider,
		"provider_event_id", providerEventID,
		"external_id", payload.ExternalID,
		"outcome", resp.Outcome,
		"detail", resp.Detail,
	)
	return resp, nil
}

func (s *signatureService) ingest(ctx context.Context, provider types.ProviderType, providerEventID string, payload *sigprovider.CallbackPayload) (*dto.ProviderCallbackResponse, error) {
	if _, err := s.ProviderEventRepo.Get(ctx, provider, providerEventID); err == nil {
		return &dto.ProviderCallbackResponse{Outcome: types.CallbackOutcomeDuplicate}, nil
	} else if !ierr.IsNotFound(err) {
		return nil, err
	}

	ctx, resp, err := s.applyCallback(ctx, provider, payload)
	if err != nil {
		return nil, err
	}

	event := &signature.ProviderEvent{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROVIDER_EVENT),
		Provider:        provider,
		ProviderEventID: providerEventID,
		ExternalID:      payload.ExternalID,
		Outcome:         resp.Outcome,
		Detail:          resp.Detail,
		ReceivedAt:      time.Now().UTC(),
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	if err := s.ProviderEventRepo.Create(ctx, event); err != nil {
		if ierr.IsAlreadyExists(err) {
			return &dto.ProviderCallbackResponse{Outcome: types.CallbackOutcomeDuplicate}, nil
		}
		return nil, err
	}
	return resp, nil
}

// applyCallback returns the ctx scoped to the tenant of the signing request
// so the dedup ledger entry lands in the same tenant
func (s *signatureService) applyCallback(ctx context.Context, provider types.ProviderType, payload *sigprovider.CallbackPayload) (context.Context, *dto.ProviderCallbackResponse, error) {
	ignored := func(detail string) (context.Context, *dto.ProviderCallbackResponse, error) {
		return ctx, &dto.ProviderCallbackResponse{Outcome: types.CallbackOutcomeIgnored, Detail: detail}, nil
	}

	if !payload.IsCompleted() {
		return ignored("status " + payload.Status + " is not a completion")
	}

	sr, err := s.SigningRequestRepo.GetByExternalID(ctx, provider, payload.ExternalID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return ignored("unknown external id")
		}
		return ctx, nil, err
	}
	ctx = types.SetTenantID(ctx, sr.TenantID)

	c, err := s.ContractRepo.Get(ctx, sr.ContractID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return ignored("contract not found")
		}
		return ctx, nil, err
	}
	ctr, ok := c.GetContractor(sr.ContractorID)
	if !ok {
		return ignored("contractor not found")
	}
	if ctr.Email != "" && payload.SignerIdentity.Email != "" &&
		!strings.EqualFold(strings.TrimSpace(ctr.Email), strings.TrimSpace(payload.SignerIdentity.Email)) {
		return ignored("signer email does not match the contractor")
	}
	if sr.RequestStatus == types.SigningRequestStatusSuperseded {
		return ignored("signing request was issued for superseded terms")
	}

	externalID := payload.ExternalID
	recorded, err := s.RecordSignature(ctx, c.ID, dto.RecordSignatureRequest{
		ContractorID: ctr.ID,
		Provider:     provider,
		Proof: signature.Proof{
			Nonce:      externalID,
			ExternalID: &externalID,
			SignedAt:   payload.SignedAt,
		},
		TermsVersion: lo.ToPtr(sr.TermsVersion),
	})
	if err != nil {
		switch {
		case ierr.Is(err, signature.ErrTermsChanged):
			s.setRequestStatus(ctx, sr, types.SigningRequestStatusSuperseded)
			return ignored("signing request was issued for superseded terms")
		case ierr.Is(err, signature.ErrAlreadySigned):
			return ignored("contractor already signed the current terms")
		case ierr.IsNotFound(err), ierr.IsInvalidOperation(err):
			return ignored(ierr.FlattenHints(err))
		}
		return ctx, nil, err
	}

	if recorded.Outcome == types.SignatureOutcomeDuplicate {
		return ctx, &dto.ProviderCallbackResponse{
			Outcome:     types.CallbackOutcomeDuplicate,
			SignatureID: recorded.ID,
		}, nil
	}

	s.setRequestStatus(ctx, sr, types.SigningRequestStatusCompleted)

	return ctx, &dto.ProviderCallbackResponse{
		Outcome:     types.CallbackOutcomeApplied,
		SignatureID: recorded.ID,
	}, nil
}

// setRequestStatus is best effort, the callback outcome does not depend on it
func (s *signatureService) setRequestStatus(ctx context.Context, sr *signature.SigningRequest, status types.SigningRequestStatus) {
	if sr.RequestStatus == status {
		return
	}
	sr.RequestStatus = status
	sr.Touch(ctx)
	if err := s.SigningRequestRepo.Update(ctx, sr); err != nil {
		s.Logger.Errorw("failed to update signing request",
			"signing_request_id", sr.ID,
			"request_status", status,
			"error", err,
		)
	}
}

func (s *signatureService) ListSignatures(ctx context.Context, contractID string, filter *types.SignatureFilter) (*dto.ListSignaturesResponse, error) {
	if _, err := s.ContractRepo.Get(ctx, contractID); err != nil {
		return nil, err
	}

	if filter == nil {
		filter = types.NewNoLimitSignatureFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewNoLimitQueryFilter()
	}
	if err := filter.QueryFilter.Validate(); err != nil {
		return nil, err
	}
	filter.ContractIDs = []string{contractID}

	records, err := s.SignatureRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(records, func(r *signature.SignatureRecord, _ int) *dto.SignatureResponse {
		return &dto.SignatureResponse{SignatureRecord: r}
	})
	resp := types.NewListResponse(items, len(items), filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

func (s *signatureService) currentSignature(ctx context.Context, contractID, contractorID string) (*signature.SignatureRecord, error) {
	filter := types.NewNoLimitSignatureFilter()
	filter.ContractIDs = []string{contractID}
	filter.ContractorIDs = []string{contractorID}
	filter.CurrentOnly = true

	records, err := s.SignatureRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[len(records)-1], nil
}

func contractorNotFoundError(contractID, contractorID string) error {
	return ierr.NewError("contractor not found").
		WithHint("Contractor is not part of this contract").
		WithReportableDetails(map[string]any{
			"contract_id":   contractID,
			"contractor_id": contractorID,
		}).
		Mark(ierr.ErrNotFound)
}

func alreadyCancelledError(rec *signature.SignatureRecord) error {
	return ierr.WithError(signature.ErrAlreadyCancelled).
		WithHint("This signature is already cancelled").
		WithReportableDetails(map[string]any{
			"signature_id": rec.ID,
		}).
		Mark(ierr.ErrInvalidOperation)
}
