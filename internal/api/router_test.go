package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexprice/contractflow/internal/api/dto"
	v1 "github.com/flexprice/contractflow/internal/api/v1"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/rest/middleware"
	"github.com/flexprice/contractflow/internal/service"
	"github.com/flexprice/contractflow/internal/testutil"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	router *gin.Engine
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.router = s.newRouter()
}

func (s *RouterSuite) newRouter() *gin.Engine {
	stores := s.GetStores()
	params := service.NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		s.GetCache(),
		s.GetSentry(),
		stores.ContractRepo,
		stores.RevisionRepo,
		stores.AddonRepo,
		stores.SignatureRepo,
		stores.SigningRequestRepo,
		stores.ProviderEventRepo,
		s.GetProviders(),
		s.GetShareLinks(),
		s.GetWebhookPublisher(),
	)

	log := s.GetLogger()
	handlers := Handlers{
		Health:    v1.NewHealthHandler(log),
		Contract:  v1.NewContractHandler(service.NewContractService(params), log),
		Revision:  v1.NewRevisionHandler(service.NewRevisionService(params), log),
		Signature: v1.NewSignatureHandler(service.NewSignatureService(params), log),
		ShareLink: v1.NewShareLinkHandler(service.NewShareLinkService(params), log),
		Revenue:   v1.NewRevenueHandler(service.NewRevenueService(params), log),
	}
	return NewRouter(handlers, s.GetConfig(), log, s.GetSentry())
}

func (s *RouterSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case []byte:
			buf.Write(b)
		default:
			s.Require().NoError(json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decodeError(w *httptest.ResponseRecorder) ierr.ErrorResponse {
	var resp ierr.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *RouterSuite) createContract() *dto.ContractResponse {
	req := dto.CreateContractRequest{
		PlanType:   types.PlanTypeMonthly,
		BaseValue:  decimal.NewFromInt(400),
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PaymentDay: 10,
		Contractors: []dto.CreateContractorRequest{
			{LegalName: "Acme Ltda", TaxID: "12.345.678/0001-00", City: "Campinas", State: "SP", Email: "ops@acme.example"},
		},
	}

	w := s.do(http.MethodPost, "/v1/contracts", req, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp dto.ContractResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return &resp
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestContractLifecycle() {
	created := s.createContract()
	s.Equal(types.ContractStatusDraft, created.ContractStatus)

	w := s.do(http.MethodGet, "/v1/contracts/"+created.ID, nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/v1/contracts?limit=10", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list dto.ListContractsResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	s.Len(list.Items, 1)

	sign := dto.RecordSignatureRequest{
		ContractorID: created.Contractors[0].ID,
		Provider:     types.ProviderNative,
	}
	sign.Proof.Nonce = "nonce-1"
	w = s.do(http.MethodPost, "/v1/contracts/"+created.ID+"/signatures", sign, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	// replaying the same nonce answers with the stored record
	w = s.do(http.MethodPost, "/v1/contracts/"+created.ID+"/signatures", sign, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var dup dto.SignatureResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &dup))
	s.Equal(types.SignatureOutcomeDuplicate, dup.Outcome)

	w = s.do(http.MethodGet, "/v1/contracts/"+created.ID+"/negotiation", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var state dto.NegotiationStateResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &state))
	s.Equal(types.ContractStatusActive, state.ContractStatus)
	s.Equal(types.NegotiationStateActive, state.State)
}

func (s *RouterSuite) TestErrorRendering() {
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{
			name:   "unknown contract",
			method: http.MethodGet,
			path:   "/v1/contracts/missing",
			status: http.StatusNotFound,
			code:   ierr.ErrCodeNotFound,
		},
		{
			name:   "malformed body",
			method: http.MethodPost,
			path:   "/v1/contracts",
			body:   []byte("{"),
			status: http.StatusBadRequest,
			code:   ierr.ErrCodeValidation,
		},
		{
			name:   "missing contractors",
			method: http.MethodPost,
			path:   "/v1/contracts",
			body:   map[string]any{"plan_type": "monthly", "base_value": "100", "start_date": "2024-01-01T00:00:00Z", "payment_day": 5},
			status: http.StatusBadRequest,
			code:   ierr.ErrCodeValidation,
		},
		{
			name:   "invalid share link",
			method: http.MethodGet,
			path:   "/v1/share/not-a-token",
			status: http.StatusForbidden,
			code:   ierr.ErrCodePermissionDenied,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(tt.method, tt.path, tt.body, nil)
			s.Equal(tt.status, w.Code, w.Body.String())
			resp := s.decodeError(w)
			s.Equal(tt.code, resp.Error.Code)
			s.NotEmpty(resp.Error.Display)
		})
	}
}

func (s *RouterSuite) TestRevisionConflictRendersHint() {
	created := s.createContract()

	sign := dto.RecordSignatureRequest{
		ContractorID: created.Contractors[0].ID,
		Provider:     types.ProviderNative,
	}
	sign.Proof.Nonce = "nonce-1"
	w := s.do(http.MethodPost, "/v1/contracts/"+created.ID+"/signatures", sign, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	proposal := map[string]any{
		"proposed_by": types.ProposedByCompany,
		"terms":       map[string]any{"base_value": "450"},
		"reason":      "annual adjustment",
	}
	w = s.do(http.MethodPost, "/v1/contracts/"+created.ID+"/revisions", proposal, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	proposal["terms"] = map[string]any{"base_value": "500"}
	w = s.do(http.MethodPost, "/v1/contracts/"+created.ID+"/revisions", proposal, nil)
	s.Require().Equal(http.StatusConflict, w.Code, w.Body.String())
}

func (s *RouterSuite) TestProviderCallback() {
	payload := map[string]any{
		"event":          "document.signed",
		"externalId":     "native_unknown",
		"signerIdentity": map[string]any{"name": "Ana", "email": "ana@acme.example"},
		"status":         "signed",
	}

	w := s.do(http.MethodPost, "/v1/webhooks/signatures/native", payload, map[string]string{
		types.HeaderEventID: "evt-1",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.ProviderCallbackResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(types.CallbackOutcomeIgnored, resp.Outcome)

	w = s.do(http.MethodPost, "/v1/webhooks/signatures/native", payload, map[string]string{
		types.HeaderEventID: "evt-1",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(types.CallbackOutcomeDuplicate, resp.Outcome)

	w = s.do(http.MethodPost, "/v1/webhooks/signatures/unknown", payload, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestProviderCallbackSignature() {
	cfg := s.GetConfig()
	cfg.Signature.WebhookSecret = "whsec"
	defer func() { cfg.Signature.WebhookSecret = "" }()
	s.router = s.newRouter()

	body := []byte(`{"event":"document.signed","externalId":"native_x","status":"signed"}`)

	w := s.do(http.MethodPost, "/v1/webhooks/signatures/native", body, map[string]string{
		types.HeaderSignature: "deadbeef",
	})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/v1/webhooks/signatures/native", body, map[string]string{
		types.HeaderSignature: "sha256=" + middleware.SignBody("whsec", body),
	})
	s.Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *RouterSuite) TestRevenueExport() {
	w := s.do(http.MethodGet, "/v1/reports/revenue/export", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Header().Get("Content-Type"), "text/csv")
	s.Contains(w.Header().Get("Content-Disposition"), "revenue-")

	w = s.do(http.MethodGet, "/v1/reports/revenue?period_start=2024-02-01&period_end=2024-01-01", nil, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}
