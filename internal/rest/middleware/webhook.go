package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/flexprice/contractflow/internal/config"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/gin-gonic/gin"
)

// maxCallbackBody bounds the provider callback bodies read into memory
const maxCallbackBody = 1 << 20

// WebhookSignatureMiddleware verifies the HMAC-SHA256 of provider callback
// bodies against the X-Signature header. Verification is skipped when no
// webhook secret is configured. The body is restored for the handler.
func WebhookSignatureMiddleware(cfg config.SignatureConfig, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
		if err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Failed to read request body").
				Mark(ierr.ErrValidation))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if cfg.WebhookSecret == "" {
			c.Next()
			return
		}

		if !VerifySignature(cfg.WebhookSecret, body, c.GetHeader(types.HeaderSignature)) {
			log.WithContext(c.Request.Context()).Warnw("provider callback signature mismatch",
				"provider", c.Param("provider"),
				"payload_length", len(body),
			)
			c.Error(ierr.NewError("webhook signature verification failed").
				WithHint("Invalid webhook signature").
				Mark(ierr.ErrPermissionDenied))
			c.Abort()
			return
		}

		c.Next()
	}
}

// VerifySignature reports whether signature is the hex HMAC-SHA256 of body
// under secret. A "sha256=" prefix is accepted.
func VerifySignature(secret string, body []byte, signature string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" {
		return false
	}

	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	want, _ := hex.DecodeString(SignBody(secret, body))
	return hmac.Equal(got, want)
}

// SignBody returns the hex HMAC-SHA256 of body under secret
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
