package v1

import (
	"net/http"

	"github.com/flexprice/contractflow/internal/api/dto"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/service"
	"github.com/gin-gonic/gin"
)

type RevisionHandler struct {
	service service.RevisionService
	log     *logger.Logger
}

func NewRevisionHandler(service service.RevisionService, log *logger.Logger) *RevisionHandler {
	return &RevisionHandler{
		service: service,
		log:     log,
	}
}

// @Summary Propose a revision
// @Description Open a negotiation over the billing terms of an active contract
// @Tags Revisions
// @Accept json
// @Produce json
// @Param id path string true "Contract ID"
// @Param revision body dto.ProposeRevisionRequest true "Proposal"
// @Success 201 {object} dto.RevisionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /contracts/{id}/revisions [post]
func (h *RevisionHandler) ProposeRevision(c *gin.Context) {
	var req dto.ProposeRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ProposeRevision(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary List revisions
// @Tags Revisions
// @Produce json
// @Param id path string true "Contract ID"
// @Success 200 {object} dto.ListRevisionsResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /contracts/{id}/revisions [get]
func (h *RevisionHandler) ListRevisions(c *gin.Context) {
	resp, err := h.service.ListRevisions(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get negotiation state
// @Description Whose turn it is in the negotiation of a contract
// @Tags Revisions
// @Produce json
// @Param id path string true "Contract ID"
// @Success 200 {object} dto.NegotiationStateResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /contracts/{id}/negotiation [get]
func (h *RevisionHandler) GetNegotiationState(c *gin.Context) {
	resp, err := h.service.GetNegotiationState(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Resolve a revision
// @Description Approve or reject the pending revision. A contractor rejection of a company proposal becomes a counter-proposal.
// @Tags Revisions
// @Accept json
// @Produce json
// @Param id path string true "Revision ID"
// @Param resolution body dto.ResolveRevisionRequest true "Resolution"
// @Success 200 {object} dto.ResolveRevisionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /revisions/{id}/resolve [post]
func (h *RevisionHandler) ResolveRevision(c *gin.Context) {
	var req dto.ResolveRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ResolveRevision(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
