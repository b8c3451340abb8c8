package v1

import (
	"io"
	"net/http"

	"github.com/flexprice/contractflow/internal/api/dto"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/service"
	sigprovider "github.com/flexprice/contractflow/internal/signature"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/gin-gonic/gin"
)

type SignatureHandler struct {
	service service.SignatureService
	log     *logger.Logger
}

func NewSignatureHandler(service service.SignatureService, log *logger.Logger) *SignatureHandler {
	return &SignatureHandler{
		service: service,
		log:     log,
	}
}

// @Summary Record a signature
// @Description Record a contractor signature on the current terms. Replaying the same nonce returns the stored record.
// @Tags Signatures
// @Accept json
// @Produce json
// @Param id path string true "Contract ID"
// @Param signature body dto.RecordSignatureRequest true "Signature"
// @Success 201 {object} dto.SignatureResponse
// @Success 200 {object} dto.SignatureResponse "Duplicate submission"
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /contracts/{id}/signatures [post]
func (h *SignatureHandler) RecordSignature(c *gin.Context) {
	var req dto.RecordSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.RecordSignature(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusCreated
	if resp.Outcome == types.SignatureOutcomeDuplicate {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// @Summary List signatures
// @Tags Signatures
// @Produce json
// @Param id path string true "Contract ID"
// @Param filter query types.SignatureFilter false "Filter"
// @Success 200 {object} dto.ListSignaturesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /contracts/{id}/signatures [get]
func (h *SignatureHandler) ListSignatures(c *gin.Context) {
	var filter types.SignatureFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListSignatures(c.Request.Context(), c.Param("id"), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel a signature
// @Description Cancel a signature record. Cancelling the last signature of an active contract cancels the contract.
// @Tags Signatures
// @Accept json
// @Produce json
// @Param id path string true "Signature ID"
// @Param cancellation body dto.CancelSignatureRequest true "Cancellation"
// @Success 200 {object} dto.SignatureResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /signatures/{id}/cancel [post]
func (h *SignatureHandler) CancelSignature(c *gin.Context) {
	var req dto.CancelSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CancelSignature(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Request a signature
// @Description Ask a signature provider to collect a contractor signature
// @Tags Signatures
// @Accept json
// @Produce json
// @Param id path string true "Contract ID"
// @Param request body dto.CreateSigningRequestRequest true "Signing request"
// @Success 201 {object} dto.SigningRequestResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /contracts/{id}/signing-requests [post]
func (h *SignatureHandler) RequestSignature(c *gin.Context) {
	var req dto.CreateSigningRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.RequestSignature(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Signature provider callback
// @Description Ingest a provider callback. Applied, ignored and duplicate deliveries all answer 200.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param provider path string true "Provider" Enums(native, clicksign, d4sign, zapsign)
// @Param X-Event-Id header string false "Provider event id"
// @Param X-Signature header string false "Hex HMAC-SHA256 of the body"
// @Param payload body sigprovider.CallbackPayload true "Callback"
// @Success 200 {object} dto.ProviderCallbackResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 429 {object} ierr.ErrorResponse
// @Router /webhooks/signatures/{provider} [post]
func (h *SignatureHandler) HandleProviderCallback(c *gin.Context) {
	provider := types.ProviderType(c.Param("provider"))

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read callback body").
			Mark(ierr.ErrValidation))
		return
	}

	payload, err := sigprovider.ParseCallback(body)
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.IngestProviderCallback(c.Request.Context(), provider, c.GetHeader(types.HeaderEventID), payload)
	if err != nil {
		h.log.Errorw("failed to ingest provider callback",
			"provider", provider,
			"external_id", payload.ExternalID,
			"error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
