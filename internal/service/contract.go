package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/contractflow/internal/api/dto"
	"github.com/flexprice/contractflow/internal/domain/contract"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
)

const conflictHint = "Someone else is already acting on this contract, refresh and retry"

// errUnchanged tells transition the contract is already in the wanted
// state and must not be written
var errUnchanged = errors.New("contract unchanged")

// ContractService is the contract ledger. It owns the contract record and
// is the only component that writes it.
type ContractService interface {
	CreateContract(ctx context.Context, req dto.CreateContractRequest) (*dto.ContractResponse, error)
	GetContract(ctx context.Context, id string) (*dto.ContractResponse, error)
	ListContracts(ctx context.Context, filter *types.ContractFilter) (*dto.ListContractsResponse, error)

	// LockForRevision flips an active contract to under_revision. The status
	// is the lock: a contract already under revision is reported with
	// contract.ErrAlreadyLocked.
	LockForRevision(ctx context.Context, id string) (*contract.Contract, error)

	// ReserveRevisionNumber assigns the next revision number of a locked
	// contract and persists the counter
	ReserveRevisionNumber(ctx context.Context, id string) (int, error)

	// ApplyApprovedTerms overlays terms on a locked contract, bumps its terms
	// version and records the approved revision
	ApplyApprovedTerms(ctx context.Context, id string, revisionID string, terms contract.ContractTerms) (*contract.Contract, error)

	// Unlock returns a contract under revision to active
	Unlock(ctx context.Context, id string) (*contract.Contract, error)

	// Activate moves a draft contract to active on its first signature. It
	// is a no-op for contracts already in force.
	Activate(ctx context.Context, id string) (*contract.Contract, error)

	// Cancel moves an active contract to the terminal cancelled status
	Cancel(ctx context.Context, id string) (*contract.Contract, error)
}

type contractService struct {
	ServiceParams
	notifier *notifier
}

func NewContractService(params ServiceParams) ContractService {
	return &contractService{
		ServiceParams: params,
		notifier:      newNotifier(params),
	}
}

func (s *contractService) CreateContract(ctx context.Context, req dto.CreateContractRequest) (*dto.ContractResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c := req.ToContract(ctx, s.Config.Reporting.Currency, s.Config.Ledger.ContractNumberPrefix)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		return s.ContractRepo.Create(txCtx, c)
	}); err != nil {
		return nil, err
	}

	s.Logger.Infow("contract created",
		"contract_id", c.ID,
		"contract_number", c.ContractNumber,
		"contractors", len(c.Contractors),
	)
	s.notifier.contractEvent(ctx, types.WebhookEventContractCreated, c)

	return &dto.ContractResponse{Contract: c}, nil
}

func (s *contractService) GetContract(ctx context.Context, id string) (*dto.ContractResponse, error) {
	if id == "" {
		return nil, ierr.NewError("contract ID is required").
			WithHint("Contract ID is required").
			Mark(ierr.ErrValidation)
	}

	c, err := s.ContractRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ContractResponse{Contract: c}, nil
}

func (s *contractService) ListContracts(ctx context.Context, filter *types.ContractFilter) (*dto.ListContractsResponse, error) {
	if filter == nil {
		filter = types.NewContractFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	contracts, err := s.ContractRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.ContractRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(contracts, func(c *contract.Contract, _ int) *dto.ContractResponse {
		return &dto.ContractResponse{Contract: c}
	})
	resp := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

func (s *contractService) LockForRevision(ctx context.Context, id string) (*contract.Contract, error) {
	return s.transition(ctx, id, func(c *contract.Contract) error {
		switch c.ContractStatus {
		case types.ContractStatusActive:
		case types.ContractStatusUnderRevision:
			return ierr.WithError(contract.ErrAlreadyLocked).
				WithHint(conflictHint).
				WithReportableDetails(map[string]any{
					"contract_id":     c.ID,
					"contract_status": c.ContractStatus,
				}).
				Mark(ierr.ErrConflict)
		default:
			return ierr.WithError(contract.ErrNotRevisable).
				WithHintf("A %s contract cannot be revised", c.ContractStatus).
				WithReportableDetails(map[string]any{
					"contract_id":     c.ID,
					"contract_status": c.ContractStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		c.ContractStatus = types.ContractStatusUnderRevision
		return nil
	})
}

func (s *contractService) ReserveRevisionNumber(ctx context.Context, id string) (int, error) {
	c, err := s.transition(ctx, id, func(c *contract.Contract) error {
		if err := requireLocked(c); err != nil {
			return err
		}
		c.RevisionCounter++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return c.RevisionCounter, nil
}

func (s *contractService) ApplyApprovedTerms(ctx context.Context, id string, revisionID string, terms contract.ContractTerms) (*contract.Contract, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	return s.transition(ctx, id, func(c *contract.Contract) error {
		if err := requireLocked(c); err != nil {
			return err
		}
		c.ApplyTerms(terms)
		if err := c.Terms().Validate(); err != nil {
			return err
		}
		c.TermsVersion++
		c.LastApprovedRevisionID = lo.ToPtr(revisionID)
		return nil
	})
}

func (s *contractService) Unlock(ctx context.Context, id string) (*contract.Contract, error) {
	return s.transition(ctx, id, func(c *contract.Contract) error {
		if err := requireLocked(c); err != nil {
			return err
		}
		c.ContractStatus = types.ContractStatusActive
		return nil
	})
}

func (s *contractService) Activate(ctx context.Context, id string) (*contract.Contract, error) {
	return s.transition(ctx, id, func(c *contract.Contract) error {
		switch c.ContractStatus {
		case types.ContractStatusDraft:
			c.ContractStatus = types.ContractStatusActive
			return nil
		case types.ContractStatusActive, types.ContractStatusUnderRevision:
			return errUnchanged
		}
		return ierr.NewError("contract cannot be activated").
			WithHintf("A %s contract cannot be signed", c.ContractStatus).
			Mark(ierr.ErrInvalidOperation)
	})
}

func (s *contractService) Cancel(ctx context.Context, id string) (*contract.Contract, error) {
	c, err := s.transition(ctx, id, func(c *contract.Contract) error {
		switch c.ContractStatus {
		case types.ContractStatusActive:
		case types.ContractStatusUnderRevision:
			return ierr.WithError(contract.ErrAlreadyLocked).
				WithHint(conflictHint).
				WithReportableDetails(map[string]any{
					"contract_id":     c.ID,
					"contract_status": c.ContractStatus,
				}).
				Mark(ierr.ErrConflict)
		default:
			return ierr.NewError("contract cannot be cancelled").
				WithHintf("A %s contract cannot be cancelled", c.ContractStatus).
				Mark(ierr.ErrInvalidOperation)
		}
		now := time.Now().UTC()
		c.ContractStatus = types.ContractStatusCancelled
		c.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("contract cancelled", "contract_id", c.ID)
	s.notifier.contractEvent(ctx, types.WebhookEventContractCancelled, c)
	return c, nil
}

// transition re-reads the contract, applies mutate and writes it back
// guarded by its version. A lost version race is retried a bounded number
// of times, the re-read contract is evaluated again by mutate.
func (s *contractService) transition(ctx context.Context, id string, mutate func(c *contract.Contract) error) (*contract.Contract, error) {
	var result *contract.Contract

	operation := func() error {
		c, err := s.ContractRepo.Get(ctx, id)
		if err != nil {
			return backoff.Permanent(err)
		}

		if err := mutate(c); err != nil {
			if errors.Is(err, errUnchanged) {
				result = c
				return nil
			}
			return backoff.Permanent(err)
		}
		c.Touch(ctx)

		if err := s.ContractRepo.Update(ctx, c); err != nil {
			if ierr.IsVersionConflict(err) {
				s.Logger.Debugw("contract version conflict, retrying",
					"contract_id", id,
					"version", c.Version,
				)
				return err
			}
			return backoff.Permanent(err)
		}

		result = c
		return nil
	}

	if err := backoff.Retry(operation, s.retryPolicy(ctx)); err != nil {
		if ierr.IsVersionConflict(err) {
			return nil, ierr.WithError(err).
				WithHint(conflictHint).
				Mark(ierr.ErrVersionConflict)
		}
		return nil, err
	}
	return result, nil
}

func (s *contractService) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, s.Config.Ledger.LockRetryAttempts), ctx)
}

func requireLocked(c *contract.Contract) error {
	if c.IsLocked() {
		return nil
	}
	return ierr.WithError(contract.ErrNotLocked).
		WithHint("This contract has no revision in progress, refresh and retry").
		WithReportableDetails(map[string]any{
			"contract_id":     c.ID,
			"contract_status": c.ContractStatus,
		}).
		Mark(ierr.ErrConflict)
}
