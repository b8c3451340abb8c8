package postgres

import (
	"context"

	"github.com/flexprice/contractflow/internal/domain/contract"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/postgres"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
)

type contractRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewContractRepository(db *postgres.DB, logger *logger.Logger) contract.Repository {
	return &contractRepository{db: db, logger: logger}
}

const contractColumns = `id, tenant_id, contract_number, contract_status, plan_type, base_value,
	currency, start_date, renewal_date, payment_day, trial_days, primary_contractor_index,
	revision_counter, terms_version, last_approved_revision_id, version, cancelled_at,
	status, created_at, updated_at, created_by, updated_by`

const contractorColumns = `id, tenant_id, contract_id, position, legal_name, tax_id, city, state,
	responsible_name, responsible_personal_id, email,
	status, created_at, updated_at, created_by, updated_by`

var contractSortColumns = []string{"created_at", "start_date", "contract_number", "updated_at"}

func (r *contractRepository) Create(ctx context.Context, c *contract.Contract) error {
	q := r.db.GetQuerier(ctx)

	r.logger.Debugw("creating contract",
		"contract_id", c.ID,
		"contract_number", c.ContractNumber,
		"contractors", len(c.Contractors),
	)

	_, err := q.NamedExecContext(ctx, `
		INSERT INTO contracts (`+contractColumns+`)
		VALUES (
			:id, :tenant_id, :contract_number, :contract_status, :plan_type, :base_value,
			:currency, :start_date, :renewal_date, :payment_day, :trial_days, :primary_contractor_index,
			:revision_counter, :terms_version, :last_approved_revision_id, :version, :cancelled_at,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`, c)
	if err != nil {
		return postgres.WrapError(err, "Contract", map[string]any{"contract_id": c.ID})
	}

	for _, ctr := range c.Contractors {
		_, err := q.NamedExecContext(ctx, `
			INSERT INTO contractors (`+contractorColumns+`)
			VALUES (
				:id, :tenant_id, :contract_id, :position, :legal_name, :tax_id, :city, :state,
				:responsible_name, :responsible_personal_id, :email,
				:status, :created_at, :updated_at, :created_by, :updated_by
			)`, ctr)
		if err != nil {
			return postgres.WrapError(err, "Contractor", map[string]any{
				"contract_id":   c.ID,
				"contractor_id": ctr.ID,
			})
		}
	}
	return nil
}

func (r *contractRepository) Get(ctx context.Context, id string) (*contract.Contract, error) {
	q := r.db.GetQuerier(ctx)

	var c contract.Contract
	err := q.GetContext(ctx, &c, `
		SELECT `+contractColumns+` FROM contracts
		WHERE id = $1 AND tenant_id = $2 AND status = $3`,
		id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, postgres.WrapError(err, "Contract", map[string]any{"contract_id": id})
	}

	contractors, err := r.loadContractors(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	c.Contractors = contractors[id]
	return &c, nil
}

func (r *contractRepository) List(ctx context.Context, filter *types.ContractFilter) ([]*contract.Contract, error) {
	if filter == nil {
		filter = types.NewNoLimitContractFilter()
	}
	q := r.db.GetQuerier(ctx)

	b := r.filterQuery(ctx, filter)
	query, args, err := b.build(
		"SELECT "+contractColumns+" FROM contracts",
		orderAndPage(filter.QueryFilter, contractSortColumns, "id"),
	)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}

	var contracts []*contract.Contract
	if err := q.SelectContext(ctx, &contracts, q.Rebind(query), args...); err != nil {
		return nil, postgres.WrapError(err, "Contract", nil)
	}
	if len(contracts) == 0 {
		return contracts, nil
	}

	ids := lo.Map(contracts, func(c *contract.Contract, _ int) string { return c.ID })
	contractors, err := r.loadContractors(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range contracts {
		c.Contractors = contractors[c.ID]
	}
	return contracts, nil
}

func (r *contractRepository) Count(ctx context.Context, filter *types.ContractFilter) (int, error) {
	if filter == nil {
		filter = types.NewNoLimitContractFilter()
	}
	q := r.db.GetQuerier(ctx)

	query, args, err := r.filterQuery(ctx, filter).build("SELECT COUNT(*) FROM contracts", "")
	if err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}

	var count int
	if err := q.GetContext(ctx, &count, q.Rebind(query), args...); err != nil {
		return 0, postgres.WrapError(err, "Contract", nil)
	}
	return count, nil
}

func (r *contractRepository) Update(ctx context.Context, c *contract.Contract) error {
	q := r.db.GetQuerier(ctx)

	res, err := q.NamedExecContext(ctx, `
		UPDATE contracts SET
			contract_status = :contract_status,
			plan_type = :plan_type,
			base_value = :base_value,
			start_date = :start_date,
			renewal_date = :renewal_date,
			payment_day = :payment_day,
			trial_days = :trial_days,
			primary_contractor_index = :primary_contractor_index,
			revision_counter = :revision_counter,
			terms_version = :terms_version,
			last_approved_revision_id = :last_approved_revision_id,
			cancelled_at = :cancelled_at,
			updated_at = :updated_at,
			updated_by = :updated_by,
			version = version + 1
		WHERE id = :id AND tenant_id = :tenant_id AND version = :version`, c)
	if err != nil {
		return postgres.WrapError(err, "Contract", map[string]any{"contract_id": c.ID})
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("contract version conflict").
			WithHint("Someone else is already acting on this contract, refresh and retry").
			WithReportableDetails(map[string]any{
				"contract_id": c.ID,
				"version":     c.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	c.Version++
	return nil
}

func (r *contractRepository) filterQuery(ctx context.Context, filter *types.ContractFilter) *queryBuilder {
	b := newQueryBuilder(types.GetTenantID(ctx))
	b.in("id", filter.ContractIDs, len(filter.ContractIDs))
	b.in("contract_status", filter.ContractStatuses, len(filter.ContractStatuses))
	if filter.ContractNumber != "" {
		b.add("contract_number = ?", filter.ContractNumber)
	}
	if filter.State != "" {
		b.add("id IN (SELECT contract_id FROM contractors WHERE tenant_id = ? AND UPPER(state) = UPPER(?))",
			types.GetTenantID(ctx), filter.State)
	}
	return b
}

func (r *contractRepository) loadContractors(ctx context.Context, contractIDs []string) (map[string][]*contract.Contractor, error) {
	q := r.db.GetQuerier(ctx)

	query, args, err := newQueryBuilder(types.GetTenantID(ctx)).
		in("contract_id", contractIDs, len(contractIDs)).
		build("SELECT "+contractorColumns+" FROM contractors", " ORDER BY contract_id, position")
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}

	var contractors []*contract.Contractor
	if err := q.SelectContext(ctx, &contractors, q.Rebind(query), args...); err != nil {
		return nil, postgres.WrapError(err, "Contractor", nil)
	}

	return lo.GroupBy(contractors, func(c *contract.Contractor) string {
		return c.ContractID
	}), nil
}
