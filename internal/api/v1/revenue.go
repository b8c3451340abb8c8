package v1

import (
	"fmt"
	"net/http"
	"time"

	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/service"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/gin-gonic/gin"
)

type RevenueHandler struct {
	service service.RevenueService
	log     *logger.Logger
}

func NewRevenueHandler(service service.RevenueService, log *logger.Logger) *RevenueHandler {
	return &RevenueHandler{
		service: service,
		log:     log,
	}
}

// @Summary Get revenue aggregate
// @Description Monthly-equivalent revenue of signed contracts, bucketed by state
// @Tags Reports
// @Produce json
// @Param filter query types.RevenueFilter false "Filter"
// @Success 200 {object} dto.RevenueAggregateResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /reports/revenue [get]
func (h *RevenueHandler) GetRevenue(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	resp, err := h.service.GetAggregate(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Export revenue aggregate
// @Description Revenue aggregate rows as CSV, one row per state plus a total row
// @Tags Reports
// @Produce text/csv
// @Param filter query types.RevenueFilter false "Filter"
// @Success 200 {file} file
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /reports/revenue/export [get]
func (h *RevenueHandler) ExportRevenue(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	data, err := h.service.ExportAggregateCSV(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	filename := fmt.Sprintf("revenue-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *RevenueHandler) bindFilter(c *gin.Context) (types.RevenueFilter, bool) {
	var filter types.RevenueFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return filter, false
	}
	return filter, true
}
