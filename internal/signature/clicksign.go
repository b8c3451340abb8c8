package signature

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/flexprice/contractflow/internal/config"
	"github.com/flexprice/contractflow/internal/httpclient"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/types"
)

type clickSignEnvelopeRequest struct {
	Envelope clickSignEnvelope `json:"envelope"`
}

type clickSignEnvelope struct {
	ExternalReference string          `json:"external_reference"`
	Title             string          `json:"title"`
	Signer            clickSignSigner `json:"signer"`
}

type clickSignSigner struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

type clickSignEnvelopeResponse struct {
	Envelope struct {
		Key    string `json:"key"`
		Signer struct {
			URL string `json:"url"`
		} `json:"signer"`
	} `json:"envelope"`
}

type ClickSignProvider struct {
	client vendorClient
}

func NewClickSignProvider(cfg config.VendorConfig, client httpclient.Client, log *logger.Logger) *ClickSignProvider {
	return &ClickSignProvider{client: newVendorClient(types.ProviderClickSign, cfg, client, log)}
}

func (p *ClickSignProvider) Type() types.ProviderType {
	return types.ProviderClickSign
}

func (p *ClickSignProvider) CreateSigningRequest(ctx context.Context, snapshot ContractSnapshot, identity ContractorIdentity) (*SigningRequestResult, error) {
	req := clickSignEnvelopeRequest{
		Envelope: clickSignEnvelope{
			ExternalReference: fmt.Sprintf("%s:%s:%d", snapshot.ContractID, identity.ContractorID, snapshot.TermsVersion),
			Title:             fmt.Sprintf("Contract %s", snapshot.ContractNumber),
			Signer: clickSignSigner{
				Name:          identity.ResponsibleName,
				Email:         identity.Email,
				Documentation: identity.ResponsiblePersonalID,
			},
		},
	}

	var resp clickSignEnvelopeResponse
	endpoint := "/envelopes?access_token=" + url.QueryEscape(p.client.config.APIKey)
	if err := p.client.makeRequest(ctx, http.MethodPost, endpoint, nil, req, &resp); err != nil {
		return nil, err
	}

	if resp.Envelope.Key == "" {
		return nil, p.client.missingField("envelope key")
	}
	if resp.Envelope.Signer.URL == "" {
		return nil, p.client.missingField("signing url")
	}

	return &SigningRequestResult{
		ExternalID: resp.Envelope.Key,
		SigningURL: resp.Envelope.Signer.URL,
	}, nil
}
