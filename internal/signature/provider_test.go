package signature

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flexprice/contractflow/internal/auth"
	"github.com/flexprice/contractflow/internal/config"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/httpclient"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() ContractSnapshot {
	return ContractSnapshot{
		TenantID:       types.DefaultTenantID,
		ContractID:     "ctr_1",
		ContractNumber: "CT-ABC123",
		TermsVersion:   2,
		PlanType:       types.PlanTypeMonthly,
		BaseValue:      decimal.NewFromInt(500),
		Currency:       "BRL",
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testIdentity() ContractorIdentity {
	return ContractorIdentity{
		ContractorID:          "ctrr_1",
		LegalName:             "Acme Ltda",
		ResponsibleName:       "Maria Silva",
		ResponsiblePersonalID: "123.456.789-00",
		Email:                 "maria@acme.test",
	}
}

func testHTTPClient() httpclient.Client {
	return httpclient.NewDefaultClient(httpclient.ClientConfig{
		Timeout:      2 * time.Second,
		RetryMax:     0,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: time.Millisecond,
	}, logger.NewNopLogger())
}

func TestRegistry(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Signature.Enabled = []types.ProviderType{types.ProviderNative, types.ProviderZapSign}

	r, err := NewRegistry(cfg, testHTTPClient(), auth.NewShareLinkAuth(cfg), logger.NewNopLogger())
	require.NoError(t, err)

	p, err := r.Get(types.ProviderNative)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderNative, p.Type())
	assert.True(t, r.IsEnabled(types.ProviderZapSign))

	_, err = r.Get(types.ProviderClickSign)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))

	_, err = r.Get(types.ProviderType("docusign"))
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestRegistryRejectsUnknownProvider(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Signature.Enabled = []types.ProviderType{"docusign"}

	_, err := NewRegistry(cfg, testHTTPClient(), auth.NewShareLinkAuth(cfg), logger.NewNopLogger())
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestNativeProvider(t *testing.T) {
	cfg := config.GetDefaultConfig()
	shareLinks := auth.NewShareLinkAuth(cfg)
	p := NewNativeProvider(shareLinks)

	result, err := p.CreateSigningRequest(context.Background(), testSnapshot(), testIdentity())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.ExternalID, "native_"))
	require.True(t, strings.HasPrefix(result.SigningURL, "http://localhost:8080/v1/share/"))

	token := strings.TrimPrefix(result.SigningURL, "http://localhost:8080/v1/share/")
	claims, err := shareLinks.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ctr_1", claims.ContractID)
	assert.Equal(t, "ctrr_1", claims.ContractorID)
}

func TestZapSignProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/docs/", r.URL.Path)
		assert.Equal(t, "Bearer zap-key", r.Header.Get("Authorization"))

		var body zapSignDocRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ctr_1", body.ExternalID)
		if assert.Len(t, body.Signers, 1) {
			assert.Equal(t, "ctrr_1", body.Signers[0].ExternalID)
		}

		_, _ = w.Write([]byte(`{"token":"doc_123","signers":[{"token":"s_1","sign_url":"https://zap.test/s_1"}]}`))
	}))
	defer srv.Close()

	p := NewZapSignProvider(config.VendorConfig{BaseURL: srv.URL, APIKey: "zap-key"}, testHTTPClient(), logger.NewNopLogger())
	result, err := p.CreateSigningRequest(context.Background(), testSnapshot(), testIdentity())
	require.NoError(t, err)
	assert.Equal(t, "doc_123", result.ExternalID)
	assert.Equal(t, "https://zap.test/s_1", result.SigningURL)
}

func TestClickSignProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/envelopes", r.URL.Path)
		assert.Equal(t, "click-key", r.URL.Query().Get("access_token"))
		_, _ = w.Write([]byte(`{"envelope":{"key":"env_1","signer":{"url":"https://click.test/env_1"}}}`))
	}))
	defer srv.Close()

	p := NewClickSignProvider(config.VendorConfig{BaseURL: srv.URL, APIKey: "click-key"}, testHTTPClient(), logger.NewNopLogger())
	result, err := p.CreateSigningRequest(context.Background(), testSnapshot(), testIdentity())
	require.NoError(t, err)
	assert.Equal(t, "env_1", result.ExternalID)
	assert.Equal(t, "https://click.test/env_1", result.SigningURL)
}

func TestD4SignProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "d4-key", r.Header.Get("tokenAPI"))
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	p := NewD4SignProvider(config.VendorConfig{BaseURL: srv.URL, APIKey: "d4-key"}, testHTTPClient(), logger.NewNopLogger())
	_, err := p.CreateSigningRequest(context.Background(), testSnapshot(), testIdentity())
	require.Error(t, err)
	assert.True(t, ierr.IsHTTPClient(err))

	unconfigured := NewD4SignProvider(config.VendorConfig{}, testHTTPClient(), logger.NewNopLogger())
	_, err = unconfigured.CreateSigningRequest(context.Background(), testSnapshot(), testIdentity())
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
}

func TestParseCallback(t *testing.T) {
	payload, err := ParseCallback([]byte(`{"event":"doc_signed","externalId":"doc_123","signerIdentity":{"name":"Maria","email":"maria@acme.test"},"status":"Signed"}`))
	require.NoError(t, err)
	assert.Equal(t, "doc_123", payload.ExternalID)
	assert.Equal(t, "maria@acme.test", payload.SignerIdentity.Email)
	assert.True(t, payload.IsCompleted())

	payload.Status = "viewed"
	assert.False(t, payload.IsCompleted())

	_, err = ParseCallback([]byte(`{`))
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}
