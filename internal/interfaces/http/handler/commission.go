package handler

import (
	"bytes"
	"fmt"
	"net/http"

	appcommission "github.com/fabtrack/backend/internal/application/commission"
	"github.com/fabtrack/backend/internal/infrastructure/export"
	"github.com/gin-gonic/gin"
)

// CommissionHandler serves monthly commission statements and the seller
// registry
type CommissionHandler struct {
	BaseHandler
	commissionService *appcommission.CommissionService
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(commissionService *appcommission.CommissionService) *CommissionHandler {
	return &CommissionHandler{commissionService: commissionService}
}

// Statement godoc
// @Summary      Monthly commission statement
// @Description  One line per installment paid during the month before the given month
// @Tags         commissions
// @Produce      json
// @Param        month query int true "Month (1-12)"
// @Param        year  query int true "Year"
// @Success      200 {object} dto.Response{data=appcommission.StatementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /commissions [get]
func (h *CommissionHandler) Statement(c *gin.Context) {
	var q appcommission.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	statement, err := h.commissionService.Statement(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}

// Summary godoc
// @Summary      Commission totals per seller
// @Tags         commissions
// @Produce      json
// @Param        month query int true "Month (1-12)"
// @Param        year  query int true "Year"
// @Success      200 {object} dto.Response{data=appcommission.SummaryResponse}
// @Router       /commissions/summary [get]
func (h *CommissionHandler) Summary(c *gin.Context) {
	var q appcommission.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	summary, err := h.commissionService.Summary(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Export godoc
// @Summary      Download the commission statement
// @Tags         commissions
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        month query int true "Month (1-12)"
// @Param        year  query int true "Year"
// @Success      200 {file} binary
// @Router       /commissions/export [get]
func (h *CommissionHandler) Export(c *gin.Context) {
	var q appcommission.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	var buf bytes.Buffer
	filename, err := h.commissionService.Export(c.Request.Context(), q, &buf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.XLSXContentType, buf.Bytes())
}

// RegisterSeller godoc
// @Summary      Register a seller
// @Tags         sellers
// @Accept       json
// @Produce      json
// @Param        request body appcommission.CreateSellerRequest true "Seller"
// @Success      201 {object} dto.Response{data=appcommission.SellerResponse}
// @Router       /sellers [post]
func (h *CommissionHandler) RegisterSeller(c *gin.Context) {
	var req appcommission.CreateSellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	seller, err := h.commissionService.RegisterSeller(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, seller)
}

// ListSellers godoc
// @Summary      List sellers
// @Tags         sellers
// @Produce      json
// @Success      200 {object} dto.Response{data=[]appcommission.SellerResponse}
// @Router       /sellers [get]
func (h *CommissionHandler) ListSellers(c *gin.Context) {
	sellers, err := h.commissionService.ListSellers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sellers)
}
