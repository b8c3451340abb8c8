package signature

import (
	"context"

	"github.com/flexprice/contractflow/internal/auth"
	"github.com/flexprice/contractflow/internal/types"
)

// NativeProvider signs in-house: the signing URL is a share link and the
// signature is posted back through the API by the contractor.
type NativeProvider struct {
	shareLinks *auth.ShareLinkAuth
}

func NewNativeProvider(shareLinks *auth.ShareLinkAuth) *NativeProvider {
	return &NativeProvider{shareLinks: shareLinks}
}

func (p *NativeProvider) Type() types.ProviderType {
	return types.ProviderNative
}

func (p *NativeProvider) CreateSigningRequest(ctx context.Context, snapshot ContractSnapshot, identity ContractorIdentity) (*SigningRequestResult, error) {
	token, _, err := p.shareLinks.GenerateToken(snapshot.TenantID, snapshot.ContractID, identity.ContractorID, 0)
	if err != nil {
		return nil, err
	}

	return &SigningRequestResult{
		ExternalID: types.GenerateUUIDWithPrefix(string(types.ProviderNative)),
		SigningURL: p.shareLinks.LinkURL(token),
	}, nil
}
