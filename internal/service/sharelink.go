package service

import (
	"context"

	"github.com/flexprice/contractflow/internal/api/dto"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/types"
)

// ShareLinkService issues and resolves the tokens that let a contractor view
// their contract without an account.
type ShareLinkService interface {
	IssueShareLink(ctx context.Context, contractID string, req dto.CreateShareLinkRequest) (*dto.ShareLinkResponse, error)
	ResolveShareLink(ctx context.Context, token string) (*dto.SharedContractResponse, error)
}

type shareLinkService struct {
	ServiceParams
	revisions RevisionService
}

func NewShareLinkService(params ServiceParams) ShareLinkService {
	return &shareLinkService{
		ServiceParams: params,
		revisions:     NewRevisionService(params),
	}
}

func (s *shareLinkService) IssueShareLink(ctx context.Context, contractID string, req dto.CreateShareLinkRequest) (*dto.ShareLinkResponse, error) {
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

	token, expiresAt, err := s.ShareLinks.GenerateToken(c.TenantID, c.ID, req.ContractorID, req.TTL())
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("share link issued",
		"contract_id", c.ID,
		"contractor_id", req.ContractorID,
		"expires_at", expiresAt,
	)

	return &dto.ShareLinkResponse{
		Token:     token,
		URL:       s.ShareLinks.LinkURL(token),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *shareLinkService) ResolveShareLink(ctx context.Context, token string) (*dto.SharedContractResponse, error) {
	if token == "" {
		return nil, ierr.NewError("token is required").
			WithHint("Invalid share link").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, err := s.ShareLinks.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	ctx = types.SetTenantID(ctx, claims.TenantID)

	c, err := s.ContractRepo.Get(ctx, claims.ContractID)
	if err != nil {
		return nil, err
	}
	ctr, ok := c.GetContractor(claims.ContractorID)
	if !ok {
		// the contractor was removed after the link was issued
		return nil, ierr.NewError("contractor no longer on contract").
			WithHint("Invalid share link").
			Mark(ierr.ErrPermissionDenied)
	}

	filter := types.NewNoLimitSignatureFilter()
	filter.ContractIDs = []string{c.ID}
	filter.ContractorIDs = []string{ctr.ID}
	signatures, err := s.SignatureRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	negotiation, err := s.revisions.GetNegotiationState(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	return &dto.SharedContractResponse{
		Contract:    c.ScopedTo(ctr),
		Contractor:  ctr,
		Signatures:  signatures,
		Negotiation: negotiation,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}
