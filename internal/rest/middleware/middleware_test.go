package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flexprice/contractflow/internal/config"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"externalId":"ext_1"}`)
	valid := SignBody("secret", body)

	tests := []struct {
		name      string
		signature string
		want      bool
	}{
		{"hex digest", valid, true},
		{"prefixed digest", "sha256=" + valid, true},
		{"surrounding space", " " + valid + " ", true},
		{"upper case hex", strings.ToUpper(valid), true},
		{"empty", "", false},
		{"not hex", "zz", false},
		{"other secret", SignBody("other", body), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature("secret", body, tt.signature))
		})
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
		details map[string]any
	}{
		{
			name: "validation with details",
			err: ierr.NewError("bad field").
				WithHint("Base value must be positive").
				WithReportableDetails(map[string]any{"base_value": "must be positive"}).
				Mark(ierr.ErrValidation),
			status:  http.StatusBadRequest,
			code:    ierr.ErrCodeValidation,
			message: "Base value must be positive",
			details: map[string]any{"base_value": "must be positive"},
		},
		{
			name: "conflict",
			err: ierr.NewError("locked").
				WithHint("Someone else is already acting on this contract, refresh and retry").
				Mark(ierr.ErrConflict),
			status:  http.StatusConflict,
			code:    ierr.ErrCodeConflict,
			message: "Someone else is already acting on this contract, refresh and retry",
		},
		{
			name:    "unmarked error",
			err:     ierr.NewError("boom").Mark(ierr.ErrSystem),
			status:  http.StatusInternalServerError,
			code:    ierr.ErrCodeSystemError,
			message: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler(logger.NewNopLogger(), nil))
			r.GET("/", func(c *gin.Context) {
				c.Error(tt.err)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, tt.status, w.Code)
			var resp ierr.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Display)
			for k, v := range tt.details {
				assert.Equal(t, v, resp.Error.Details[k])
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := config.SignatureConfig{RateLimit: 0.001, RateBurst: 2}

	r := gin.New()
	r.Use(ErrorHandler(logger.NewNopLogger(), nil))
	r.POST("/:provider", RateLimitMiddleware(cfg, "provider"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	call := func(provider string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/"+provider, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("clicksign"))
	assert.Equal(t, http.StatusOK, call("clicksign"))
	assert.Equal(t, http.StatusTooManyRequests, call("clicksign"))

	// buckets are per provider
	assert.Equal(t, http.StatusOK, call("zapsign"))
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	r := gin.New()
	r.POST("/:provider", RateLimitMiddleware(config.SignatureConfig{}, "provider"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/native", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestTenantMiddleware(t *testing.T) {
	var tenantID, userID, requestID string

	r := gin.New()
	r.Use(RequestIDMiddleware, TenantMiddleware)
	r.GET("/", func(c *gin.Context) {
		tenantID = types.GetTenantID(c.Request.Context())
		userID = types.GetUserID(c.Request.Context())
		requestID = types.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, types.DefaultTenantID, tenantID)
	assert.Equal(t, types.DefaultUserID, userID)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, w.Header().Get(types.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(types.HeaderTenantID, "tenant_acme")
	req.Header.Set(types.HeaderUserID, "user_ana")
	req.Header.Set(types.HeaderRequestID, "req-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "tenant_acme", tenantID)
	assert.Equal(t, "user_ana", userID)
	assert.Equal(t, "req-1", requestID)
}
