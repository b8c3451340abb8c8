package postgres

import (
	"context"

	"github.com/flexprice/contractflow/internal/domain/addon"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/postgres"
	"github.com/flexprice/contractflow/internal/types"
)

type addonRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewAddonRepository(db *postgres.DB, logger *logger.Logger) addon.Repository {
	return &addonRepository{db: db, logger: logger}
}

const addonColumns = `id, tenant_id, contract_id, revision_id, revision_number, addon_type, addon_status,
	previous_value, new_value, previous_plan_type, new_plan_type, requested_by, request_date,
	signature_provider, signature_signed_at, signature_external_id,
	status, created_at, updated_at, created_by, updated_by`

func (r *addonRepository) Create(ctx context.Context, a *addon.PlanChangeAddon) error {
	q := r.db.GetQuerier(ctx)

	_, err := q.NamedExecContext(ctx, `
		INSERT INTO plan_change_addons (`+addonColumns+`)
		VALUES (
			:id, :tenant_id, :contract_id, :revision_id, :revision_number, :addon_type, :addon_status,
			:previous_value, :new_value, :previous_plan_type, :new_plan_type, :requested_by, :request_date,
			:signature_provider, :signature_signed_at, :signature_external_id,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`, a)
	if err != nil {
		return postgres.WrapError(err, "Plan change addon", map[string]any{"addon_id": a.ID})
	}
	return nil
}

func (r *addonRepository) Get(ctx context.Context, id string) (*addon.PlanChangeAddon, error) {
	q := r.db.GetQuerier(ctx)

	var a addon.PlanChangeAddon
	err := q.GetContext(ctx, &a, `
		SELECT `+addonColumns+` FROM plan_change_addons
		WHERE id = $1 AND tenant_id = $2 AND status = $3`,
		id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, postgres.WrapError(err, "Plan change addon", map[string]any{"addon_id": id})
	}
	return &a, nil
}

func (r *addonRepository) List(ctx context.Context, filter *types.AddonFilter) ([]*addon.PlanChangeAddon, error) {
	if filter == nil {
		filter = types.NewNoLimitAddonFilter()
	}
	q := r.db.GetQuerier(ctx)

	b := newQueryBuilder(types.GetTenantID(ctx))
	b.in("contract_id", filter.ContractIDs, len(filter.ContractIDs))
	b.in("addon_status", filter.AddonStatus, len(filter.AddonStatus))

	query, args, err := b.build("SELECT "+addonColumns+" FROM plan_change_addons",
		" ORDER BY contract_id, request_date, revision_number")
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}

	var addons []*addon.PlanChangeAddon
	if err := q.SelectContext(ctx, &addons, q.Rebind(query), args...); err != nil {
		return nil, postgres.WrapError(err, "Plan change addon", nil)
	}
	return addons, nil
}
