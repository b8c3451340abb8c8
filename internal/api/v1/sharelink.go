package v1

import (
	"net/http"

	"github.com/flexprice/contractflow/internal/api/dto"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/service"
	"github.com/gin-gonic/gin"
)

type ShareLinkHandler struct {
	service service.ShareLinkService
	log     *logger.Logger
}

func NewShareLinkHandler(service service.ShareLinkService, log *logger.Logger) *ShareLinkHandler {
	return &ShareLinkHandler{
		service: service,
		log:     log,
	}
}

// @Summary Issue a share link
// @Description Issue a signed, expiring link that lets one contractor view the contract
// @Tags Share links
// @Accept json
// @Produce json
// @Param id path string true "Contract ID"
// @Param request body dto.CreateShareLinkRequest true "Share link"
// @Success 201 {object} dto.ShareLinkResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /contracts/{id}/share-links [post]
func (h *ShareLinkHandler) IssueShareLink(c *gin.Context) {
	var req dto.CreateShareLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.IssueShareLink(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Resolve a share link
// @Tags Share links
// @Produce json
// @Param token path string true "Share link token"
// @Success 200 {object} dto.SharedContractResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Router /share/{token} [get]
func (h *ShareLinkHandler) ResolveShareLink(c *gin.Context) {
	resp, err := h.service.ResolveShareLink(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
