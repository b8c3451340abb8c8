package signature

import (
	"context"
	"fmt"
	"net/http"

	"github.com/flexprice/contractflow/internal/config"
	"github.com/flexprice/contractflow/internal/httpclient"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/types"
)

type zapSignDocRequest struct {
	Name       string          `json:"name"`
	ExternalID string          `json:"external_id"`
	Lang       string          `json:"lang"`
	Signers    []zapSignSigner `json:"signers"`
}

type zapSignSigner struct {
	Name               string `json:"name"`
	Email              string `json:"email,omitempty"`
	CPF                string `json:"cpf,omitempty"`
	ExternalID         string `json:"external_id"`
	SendAutomaticEmail bool   `json:"send_automatic_email"`
}

type zapSignDocResponse struct {
	Token   string `json:"token"`
	Signers []struct {
		Token   string `json:"token"`
		SignURL string `json:"sign_url"`
	} `json:"signers"`
}

type ZapSignProvider struct {
	client vendorClient
}

func NewZapSignProvider(cfg config.VendorConfig, client httpclient.Client, log *logger.Logger) *ZapSignProvider {
	return &ZapSignProvider{client: newVendorClient(types.ProviderZapSign, cfg, client, log)}
}

func (p *ZapSignProvider) Type() types.ProviderType {
	return types.ProviderZapSign
}

func (p *ZapSignProvider) CreateSigningRequest(ctx context.Context, snapshot ContractSnapshot, identity ContractorIdentity) (*SigningRequestResult, error) {
	req := zapSignDocRequest{
		Name:       fmt.Sprintf("Contract %s", snapshot.ContractNumber),
		ExternalID: snapshot.ContractID,
		Lang:       "pt-br",
		Signers: []zapSignSigner{{
			Name:               identity.ResponsibleName,
			Email:              identity.Email,
			CPF:                identity.ResponsiblePersonalID,
			ExternalID:         identity.ContractorID,
			SendAutomaticEmail: identity.Email != "",
		}},
	}

	var resp zapSignDocResponse
	headers := map[string]string{"Authorization": "Bearer " + p.client.config.APIKey}
	if err := p.client.makeRequest(ctx, http.MethodPost, "/docs/", headers, req, &resp); err != nil {
		return nil, err
	}

	if resp.Token == "" {
		return nil, p.client.missingField("document token")
	}
	if len(resp.Signers) == 0 || resp.Signers[0].SignURL == "" {
		return nil, p.client.missingField("signing url")
	}

	return &SigningRequestResult{
		ExternalID: resp.Token,
		SigningURL: resp.Signers[0].SignURL,
	}, nil
}
