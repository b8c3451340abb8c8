package service

import (
	"context"

	"github.com/flexprice/contractflow/internal/api/dto"
	"github.com/flexprice/contractflow/internal/domain/revenue"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/gocarina/gocsv"
	"github.com/sourcegraph/conc/pool"
)

// RevenueService derives the monthly revenue roll-up from stored state. It
// holds no mutable state of its own.
type RevenueService interface {
	GetAggregate(ctx context.Context, filter types.RevenueFilter) (*dto.RevenueAggregateResponse, error)
	ExportAggregateCSV(ctx context.Context, filter types.RevenueFilter) ([]byte, error)
}

type revenueService struct {
	ServiceParams
	config revenue.Config
}

func NewRevenueService(params ServiceParams) RevenueService {
	return &revenueService{
		ServiceParams: params,
		config: revenue.Config{
			Currency:       params.Config.Reporting.Currency,
			RoundingPlaces: params.Config.Reporting.RoundingPlaces,
			ActiveOnly:     params.Config.Reporting.ActiveOnly,
		},
	}
}

func (s *revenueService) GetAggregate(ctx context.Context, filter types.RevenueFilter) (*dto.RevenueAggregateResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := revenue.Aggregate(s.config, snap, filter)
	return &dto.RevenueAggregateResponse{Result: result}, nil
}

func (s *revenueService) ExportAggregateCSV(ctx context.Context, filter types.RevenueFilter) ([]byte, error) {
	resp, err := s.GetAggregate(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := resp.Rows()
	if limit := s.Config.Reporting.MaxExportRecords; limit > 0 && len(rows) > limit {
		return nil, ierr.NewError("export too large").
			WithHintf("The export has %d rows, narrow the filter to at most %d", len(rows), limit).
			WithReportableDetails(map[string]any{
				"rows":  len(rows),
				"limit": limit,
			}).
			Mark(ierr.ErrValidation)
	}

	out, err := gocsv.MarshalBytes(rows)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to export revenue report").
			Mark(ierr.ErrSystem)
	}
	return out, nil
}

// loadSnapshot reads the four ledgers concurrently. Each read is tenant
// scoped through ctx.
func (s *revenueService) loadSnapshot(ctx context.Context) (revenue.Snapshot, error) {
	var snap revenue.Snapshot

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		contracts, err := s.ContractRepo.List(ctx, types.NewNoLimitContractFilter())
		snap.Contracts = contracts
		return err
	})
	p.Go(func(ctx context.Context) error {
		revisions, err := s.RevisionRepo.List(ctx, types.NewNoLimitRevisionFilter())
		snap.Revisions = revisions
		return err
	})
	p.Go(func(ctx context.Context) error {
		addons, err := s.AddonRepo.List(ctx, types.NewNoLimitAddonFilter())
		snap.Addons = addons
		return err
	})
	p.Go(func(ctx context.Context) error {
		signatures, err := s.SignatureRepo.List(ctx, types.NewNoLimitSignatureFilter())
		snap.Signatures = signatures
		return err
	})

	if err := p.Wait(); err != nil {
		return revenue.Snapshot{}, err
	}

	s.Logger.Debugw("revenue snapshot loaded",
		"contracts", len(snap.Contracts),
		"revisions", len(snap.Revisions),
		"addons", len(snap.Addons),
		"signatures", len(snap.Signatures),
	)
	return snap, nil
}
