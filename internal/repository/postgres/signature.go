package postgres

import (
	"context"

	"github.com/flexprice/contractflow/internal/domain/signature"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/postgres"
	"github.com/flexprice/contractflow/internal/types"
)

type signatureRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSignatureRepository(db *postgres.DB, logger *logger.Logger) signature.Repository {
	return &signatureRepository{db: db, logger: logger}
}

const signatureColumns = `id, tenant_id, contract_id, contractor_id, provider, nonce, idempotency_key,
	external_id, terms_version, signed_at, client_ip, user_agent, is_cancelled, cancellation_reason,
	cancelled_at, superseded_by_revision_id, superseded_at,
	status, created_at, updated_at, created_by, updated_by`

func (r *signatureRepository) Create(ctx context.Context, s *signature.SignatureRecord) error {
	q := r.db.GetQuerier(ctx)

	_, err := q.NamedExecContext(ctx, `
		INSERT INTO signature_records (`+signatureColumns+`)
		VALUES (
			:id, :tenant_id, :contract_id, :contractor_id, :provider, :nonce, :idempotency_key,
			:external_id, :terms_version, :signed_at, :client_ip, :user_agent, :is_cancelled, :cancellation_reason,
			:cancelled_at, :superseded_by_revision_id, :superseded_at,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`, s)
	if err != nil {
		return postgres.WrapError(err, "Signature", map[string]any{
			"contract_id":   s.ContractID,
			"contractor_id": s.ContractorID,
		})
	}
	return nil
}

func (r *signatureRepository) Get(ctx context.Context, id string) (*signature.SignatureRecord, error) {
	q := r.db.GetQuerier(ctx)

	var s signature.SignatureRecord
	err := q.GetContext(ctx, &s, `
		SELECT `+signatureColumns+` FROM signature_records
		WHERE id = $1 AND tenant_id = $2 AND status = $3`,
		id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, postgres.WrapError(err, "Signature", map[string]any{"signature_id": id})
	}
	return &s, nil
}

func (r *signatureRepository) GetByIdempotencyKey(ctx context.Context, key string) (*signature.SignatureRecord, error) {
	q := r.db.GetQuerier(ctx)

	var s signature.SignatureRecord
	err := q.GetContext(ctx, &s, `
		SELECT `+signatureColumns+` FROM signature_records
		WHERE idempotency_key = $1 AND tenant_id = $2`,
		key, types.GetTenantID(ctx))
	if err != nil {
		return nil, postgres.WrapError(err, "Signature", nil)
	}
	return &s, nil
}

func (r *signatureRepository) List(ctx context.Context, filter *types.SignatureFilter) ([]*signature.SignatureRecord, error) {
	if filter == nil {
		filter = types.NewNoLimitSignatureFilter()
	}
	q := r.db.GetQuerier(ctx)

	b := newQueryBuilder(types.GetTenantID(ctx))
	b.in("contract_id", filter.ContractIDs, len(filter.ContractIDs))
	b.in("contractor_id", filter.ContractorIDs, len(filter.ContractorIDs))
	if filter.CurrentOnly {
		b.add("is_cancelled = FALSE AND superseded_by_revision_id IS NULL")
	}
	if filter.SignedBefore != nil {
		b.add("signed_at < ?", *filter.SignedBefore)
	}

	query, args, err := b.build("SELECT "+signatureColumns+" FROM signature_records",
		orderAndPage(filter.QueryFilter, []string{"signed_at", "created_at"}, "id"))
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}

	var records []*signature.SignatureRecord
	if err := q.SelectContext(ctx, &records, q.Rebind(query), args...); err != nil {
		return nil, postgres.WrapError(err, "Signature", nil)
	}
	return records, nil
}

func (r *signatureRepository) Update(ctx context.Context, s *signature.SignatureRecord) error {
	q := r.db.GetQuerier(ctx)

	res, err := q.NamedExecContext(ctx, `
		UPDATE signature_records SET
			is_cancelled = :is_cancelled,
			cancellation_reason = :cancellation_reason,
			cancelled_at = :cancelled_at,
			superseded_by_revision_id = :superseded_by_revision_id,
			superseded_at = :superseded_at,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`, s)
	if err != nil {
		return postgres.WrapError(err, "Signature", map[string]any{"signature_id": s.ID})
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ierr.NewError("signature not found").
			WithHint("Signature not found").
			WithReportableDetails(map[string]any{"signature_id": s.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

type signingRequestRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSigningRequestRepository(db *postgres.DB, logger *logger.Logger) signature.SigningRequestRepository {
	return &signingRequestRepository{db: db, logger: logger}
}

const signingRequestColumns = `id, tenant_id, contract_id, contractor_id, provider, external_id,
	signing_url, terms_version, request_status, status, created_at, updated_at, created_by, updated_by`

func (r *signingRequestRepository) Create(ctx context.Context, req *signature.SigningRequest) error {
	q := r.db.GetQuerier(ctx)

	_, err := q.NamedExecContext(ctx, `
		INSERT INTO signing_requests (`+signingRequestColumns+`)
		VALUES (
			:id, :tenant_id, :contract_id, :contractor_id, :provider, :external_id,
			:signing_url, :terms_version, :request_status, :status, :created_at, :updated_at, :created_by, :updated_by
		)`, req)
	if err != nil {
		return postgres.WrapError(err, "Signing request", map[string]any{"external_id": req.ExternalID})
	}
	return nil
}

// GetByExternalID is not tenant scoped, provider callbacks arrive without a
// tenant and the external id is what identifies it
func (r *signingRequestRepository) GetByExternalID(ctx context.Context, provider types.ProviderType, externalID string) (*signature.SigningRequest, error) {
	q := r.db.GetQuerier(ctx)

	var req signature.SigningRequest
	err := q.GetContext(ctx, &req, `
		SELECT `+signingRequestColumns+` FROM signing_requests
		WHERE provider = $1 AND external_id = $2 AND status = $3`,
		provider, externalID, types.StatusPublished)
	if err != nil {
		return nil, postgres.WrapError(err, "Signing request", map[string]any{"external_id": externalID})
	}
	return &req, nil
}

func (r *signingRequestRepository) Update(ctx context.Context, req *signature.SigningRequest) error {
	q := r.db.GetQuerier(ctx)

	_, err := q.NamedExecContext(ctx, `
		UPDATE signing_requests SET
			request_status = :request_status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`, req)
	if err != nil {
		return postgres.WrapError(err, "Signing request", map[string]any{"signing_request_id": req.ID})
	}
	return nil
}

type providerEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewProviderEventRepository(db *postgres.DB, logger *logger.Logger) signature.ProviderEventRepository {
	return &providerEventRepository{db: db, logger: logger}
}

const providerEventColumns = `id, tenant_id, provider, provider_event_id, external_id, outcome, detail,
	received_at, status, created_at, updated_at, created_by, updated_by`

func (r *providerEventRepository) Create(ctx context.Context, e *signature.ProviderEvent) error {
	q := r.db.GetQuerier(ctx)

	_, err := q.NamedExecContext(ctx, `
		INSERT INTO provider_events (`+providerEventColumns+`)
		VALUES (
			:id, :tenant_id, :provider, :provider_event_id, :external_id, :outcome, :detail,
			:received_at, :status, :created_at, :updated_at, :created_by, :updated_by
		)`, e)
	if err != nil {
		return postgres.WrapError(err, "Provider event", map[string]any{
			"provider":          e.Provider,
			"provider_event_id": e.ProviderEventID,
		})
	}
	return nil
}

func (r *providerEventRepository) Get(ctx context.Context, provider types.ProviderType, providerEventID string) (*signature.ProviderEvent, error) {
	q := r.db.GetQuerier(ctx)

	var e signature.ProviderEvent
	err := q.GetContext(ctx, &e, `
		SELECT `+providerEventColumns+` FROM provider_events
		WHERE provider = $1 AND provider_event_id = $2`,
		provider, providerEventID)
	if err != nil {
		return nil, postgres.WrapError(err, "Provider event", map[string]any{"provider_event_id": providerEventID})
	}
	return &e, nil
}
