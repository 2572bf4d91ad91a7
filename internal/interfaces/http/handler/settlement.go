package handler

import (
	appfinance "github.com/fabtrack/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// SettlementHandler records installment payments and serves the expenses
// they book
type SettlementHandler struct {
	BaseHandler
	settlementService *appfinance.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *appfinance.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// Settle godoc
// @Summary      Settle an installment
// @Description  Marks the installment paid. A net value below the installment value books the difference as a FEE expense.
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        id      path string                   true "Order ID"
// @Param        number  path int                      true "Installment number"
// @Param        request body appfinance.SettleRequest true "Payment"
// @Success      200 {object} dto.Response{data=appfinance.SettlementResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/installments/{number}/settle [post]
func (h *SettlementHandler) Settle(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	number, ok := h.parseIntParam(c, "number")
	if !ok {
		return
	}
	var req appfinance.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.settlementService.Settle(c.Request.Context(), id, number, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Unsettle godoc
// @Summary      Revert a settlement
// @Tags         settlements
// @Produce      json
// @Param        id     path string true "Order ID"
// @Param        number path int    true "Installment number"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/installments/{number}/unsettle [post]
func (h *SettlementHandler) Unsettle(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	number, ok := h.parseIntParam(c, "number")
	if !ok {
		return
	}

	order, err := h.settlementService.Unsettle(c.Request.Context(), id, number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// OrderExpenses godoc
// @Summary      Expenses of an order
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=[]appfinance.ExpenseResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/expenses [get]
func (h *SettlementHandler) OrderExpenses(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	expenses, err := h.settlementService.OrderExpenses(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expenses)
}

// ListExpenses godoc
// @Summary      List expenses
// @Tags         expenses
// @Produce      json
// @Param        order_id  query string false "Order ID"
// @Param        category  query string false "Category" Enums(TAX, FEE, DISCOUNT, OTHER)
// @Param        page      query int    false "Page"
// @Param        page_size query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]appfinance.ExpenseResponse}
// @Router       /expenses [get]
func (h *SettlementHandler) ListExpenses(c *gin.Context) {
	var filter appfinance.ExpenseListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	expenses, err := h.settlementService.ListExpenses(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expenses)
}
