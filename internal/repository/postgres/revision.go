package postgres

import (
	"context"

	"github.com/flexprice/contractflow/internal/domain/revision"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/postgres"
	"github.com/flexprice/contractflow/internal/types"
)

type revisionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewRevisionRepository(db *postgres.DB, logger *logger.Logger) revision.Repository {
	return &revisionRepository{db: db, logger: logger}
}

const revisionColumns = `id, tenant_id, contract_id, revision_number, round, proposed_by, revision_status,
	proposed_terms, previous_terms, reason, parent_revision_id, resolved_at, resolved_by,
	resolver_explanation, status, created_at, updated_at, created_by, updated_by`

func (r *revisionRepository) Create(ctx context.Context, rev *revision.Revision) error {
	q := r.db.GetQuerier(ctx)

	_, err := q.NamedExecContext(ctx, `
		INSERT INTO revisions (`+revisionColumns+`)
		VALUES (
			:id, :tenant_id, :contract_id, :revision_number, :round, :proposed_by, :revision_status,
			:proposed_terms, :previous_terms, :reason, :parent_revision_id, :resolved_at, :resolved_by,
			:resolver_explanation, :status, :created_at, :updated_at, :created_by, :updated_by
		)`, rev)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			// either the revision number or the single pending slot is taken
			return ierr.WithError(err).
				WithHint("Someone else is already acting on this contract, refresh and retry").
				WithReportableDetails(map[string]any{
					"contract_id":     rev.ContractID,
					"revision_number": rev.RevisionNumber,
				}).
				Mark(ierr.ErrConflict)
		}
		return postgres.WrapError(err, "Revision", map[string]any{"revision_id": rev.ID})
	}
	return nil
}

func (r *revisionRepository) Get(ctx context.Context, id string) (*revision.Revision, error) {
	q := r.db.GetQuerier(ctx)

	var rev revision.Revision
	err := q.GetContext(ctx, &rev, `
		SELECT `+revisionColumns+` FROM revisions
		WHERE id = $1 AND tenant_id = $2 AND status = $3`,
		id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, postgres.WrapError(err, "Revision", map[string]any{"revision_id": id})
	}
	return &rev, nil
}

func (r *revisionRepository) GetPending(ctx context.Context, contractID string) (*revision.Revision, error) {
	q := r.db.GetQuerier(ctx)

	var rev revision.Revision
	err := q.GetContext(ctx, &rev, `
		SELECT `+revisionColumns+` FROM revisions
		WHERE contract_id = $1 AND tenant_id = $2 AND status = $3 AND revision_status = $4`,
		contractID, types.GetTenantID(ctx), types.StatusPublished, types.RevisionStatusPending)
	if err != nil {
		return nil, postgres.WrapError(err, "Pending revision", map[string]any{"contract_id": contractID})
	}
	return &rev, nil
}

func (r *revisionRepository) List(ctx context.Context, filter *types.RevisionFilter) ([]*revision.Revision, error) {
	if filter == nil {
		filter = types.NewNoLimitRevisionFilter()
	}
	q := r.db.GetQuerier(ctx)

	b := newQueryBuilder(types.GetTenantID(ctx))
	b.in("contract_id", filter.ContractIDs, len(filter.ContractIDs))
	b.in("revision_status", filter.RevisionStatuses, len(filter.RevisionStatuses))

	suffix := " ORDER BY contract_id, revision_number"
	if !filter.IsUnlimited() {
		suffix = orderAndPage(filter.QueryFilter, []string{"revision_number", "created_at"}, "id")
	}

	query, args, err := b.build("SELECT "+revisionColumns+" FROM revisions", suffix)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}

	var revisions []*revision.Revision
	if err := q.SelectContext(ctx, &revisions, q.Rebind(query), args...); err != nil {
		return nil, postgres.WrapError(err, "Revision", nil)
	}
	return revisions, nil
}

func (r *revisionRepository) Resolve(ctx context.Context, rev *revision.Revision) error {
	q := r.db.GetQuerier(ctx)

	res, err := q.NamedExecContext(ctx, `
		UPDATE revisions SET
			revision_status = :revision_status,
			resolved_at = :resolved_at,
			resolved_by = :resolved_by,
			resolver_explanation = :resolver_explanation,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND revision_status = 'pending'`, rev)
	if err != nil {
		return postgres.WrapError(err, "Revision", map[string]any{"revision_id": rev.ID})
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.WithError(revision.ErrStaleRevision).
			WithHint("This revision was already resolved, refresh and retry").
			WithReportableDetails(map[string]any{"revision_id": rev.ID}).
			Mark(ierr.ErrVersionConflict)
	}
	return nil
}
