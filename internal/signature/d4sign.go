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

type d4SignDocumentRequest struct {
	Name    string         `json:"name"`
	UUIDRef string         `json:"uuid_ref"`
	Signers []d4SignSigner `json:"signers"`
}

type d4SignSigner struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Document    string `json:"documentation,omitempty"`
	Act         string `json:"act"`
	ForeignLang string `json:"foreign_lang"`
}

type d4SignDocumentResponse struct {
	UUID    string `json:"uuid"`
	Message string `json:"message"`
	Signers []struct {
		Email string `json:"email"`
		Link  string `json:"link"`
	} `json:"signers"`
}

type D4SignProvider struct {
	client vendorClient
}

func NewD4SignProvider(cfg config.VendorConfig, client httpclient.Client, log *logger.Logger) *D4SignProvider {
	return &D4SignProvider{client: newVendorClient(types.ProviderD4Sign, cfg, client, log)}
}

func (p *D4SignProvider) Type() types.ProviderType {
	return types.ProviderD4Sign
}

func (p *D4SignProvider) CreateSigningRequest(ctx context.Context, snapshot ContractSnapshot, identity ContractorIdentity) (*SigningRequestResult, error) {
	req := d4SignDocumentRequest{
		Name:    fmt.Sprintf("Contract %s v%d", snapshot.ContractNumber, snapshot.TermsVersion),
		UUIDRef: snapshot.ContractID,
		Signers: []d4SignSigner{{
			Email:       identity.Email,
			Name:        identity.ResponsibleName,
			Document:    identity.ResponsiblePersonalID,
			Act:         "1",
			ForeignLang: "ptBR",
		}},
	}

	var resp d4SignDocumentResponse
	headers := map[string]string{"tokenAPI": p.client.config.APIKey}
	if err := p.client.makeRequest(ctx, http.MethodPost, "/documents/create", headers, req, &resp); err != nil {
		return nil, err
	}

	if resp.UUID == "" {
		return nil, p.client.missingField("document uuid")
	}
	if len(resp.Signers) == 0 || resp.Signers[0].Link == "" {
		return nil, p.client.missingField("signing url")
	}

	return &SigningRequestResult{
		ExternalID: resp.UUID,
		SigningURL: resp.Signers[0].Link,
	}, nil
}
