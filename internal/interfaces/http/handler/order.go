package handler

import (
	"context"
	"errors"
	"io"

	apptrade "github.com/fabtrack/backend/internal/application/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler serves the order lifecycle, pricing, installment and
// production endpoints
type OrderHandler struct {
	BaseHandler
	orderService *apptrade.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *apptrade.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// bindOptionalJSON binds the body when one was sent. An empty body leaves
// req at its zero value.
func (h *OrderHandler) bindOptionalJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return false
	}
	return true
}

// Create godoc
// @Summary      Create a quote
// @Description  Creates an order in QUOTE status from a measurement sheet. An empty item_ids quotes every item of the sheet.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body apptrade.CreateOrderRequest true "Quote"
// @Success      201 {object} dto.Response{data=apptrade.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req apptrade.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// List godoc
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        status      query string false "Order status"
// @Param        stage       query string false "Production stage"
// @Param        seller_id   query string false "Seller ID"
// @Param        customer_id query string false "Customer ID"
// @Param        search      query string false "Order number search"
// @Param        page        query int    false "Page" default(1)
// @Param        page_size   query int    false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]apptrade.OrderListItemResponse,meta=dto.Meta}
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var filter apptrade.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Confirm godoc
// @Summary      Sign the contract
// @Description  Moves a quote to CONTRACT_SIGNED, opens production at NEW_ORDER and sets the business-day delivery deadline
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                       true  "Order ID"
// @Param        request body apptrade.ConfirmOrderRequest false "Delivery days"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/confirm [post]
func (h *OrderHandler) Confirm(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req apptrade.ConfirmOrderRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	order, err := h.orderService.Confirm(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel godoc
// @Summary      Cancel an order
// @Description  Cancels a quote or a signed contract with no paid installment
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                      true "Order ID"
// @Param        request body apptrade.CancelOrderRequest true "Reason"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req apptrade.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orderService.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// SelectItems godoc
// @Summary      Select quoted items
// @Description  Replaces the item selection and reprices the order at list. An empty list selects every item.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                      true "Order ID"
// @Param        request body apptrade.SelectItemsRequest true "Items"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Router       /orders/{id}/items [put]
func (h *OrderHandler) SelectItems(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req apptrade.SelectItemsRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	order, err := h.orderService.SelectItems(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// SetTotal godoc
// @Summary      Negotiate the total
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                   true "Order ID"
// @Param        request body apptrade.SetTotalRequest true "Total"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Router       /orders/{id}/total [put]
func (h *OrderHandler) SetTotal(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req apptrade.SetTotalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orderService.SetTotal(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// EditItemPrice godoc
// @Summary      Edit one item's price
// @Description  Overrides an item's effective price; the total becomes the sum of effective prices
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                        true "Order ID"
// @Param        itemId  path string                        true "Measured item ID"
// @Param        request body apptrade.EditItemPriceRequest true "Price"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/items/{itemId}/price [put]
func (h *OrderHandler) EditItemPrice(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.parseUUIDParam(c, "itemId")
	if !ok {
		return
	}
	var req apptrade.EditItemPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orderService.EditItemPrice(c.Request.Context(), id, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Pricing godoc
// @Summary      Price breakdown
// @Description  Base and effective price of every selected item
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=apptrade.PricingResponse}
// @Router       /orders/{id}/pricing [get]
func (h *OrderHandler) Pricing(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	pricing, err := h.orderService.Pricing(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pricing)
}

// GenerateInstallments godoc
// @Summary      Generate the payment schedule
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                               true "Order ID"
// @Param        request body apptrade.GenerateInstallmentsRequest true "Schedule"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/installments [post]
func (h *OrderHandler) GenerateInstallments(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req apptrade.GenerateInstallmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orderService.GenerateInstallments(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// EditInstallment godoc
// @Summary      Edit an installment value
// @Description  Sets one installment's value; the order total follows
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Order ID"
// @Param        number  path int                             true "Installment number"
// @Param        request body apptrade.EditInstallmentRequest true "Value"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Router       /orders/{id}/installments/{number} [put]
func (h *OrderHandler) EditInstallment(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	number, ok := h.parseIntParam(c, "number")
	if !ok {
		return
	}
	var req apptrade.EditInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orderService.EditInstallment(c.Request.Context(), id, number, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Advance godoc
// @Summary      Advance production
// @Tags         production
// @Accept       json
// @Produce      json
// @Param        id      path string                      true  "Order ID"
// @Param        request body apptrade.StageChangeRequest false "Timestamp"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/production/advance [post]
func (h *OrderHandler) Advance(c *gin.Context) {
	h.changeStage(c, h.orderService.Advance)
}

// Regress godoc
// @Summary      Move production back one stage
// @Tags         production
// @Accept       json
// @Produce      json
// @Param        id      path string                      true  "Order ID"
// @Param        request body apptrade.StageChangeRequest false "Timestamp"
// @Success      200 {object} dto.Response{data=apptrade.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/production/regress [post]
func (h *OrderHandler) Regress(c *gin.Context) {
	h.changeStage(c, h.orderService.Regress)
}

type stageChangeFunc func(ctx context.Context, id uuid.UUID, req apptrade.StageChangeRequest) (*apptrade.OrderResponse, error)

func (h *OrderHandler) changeStage(c *gin.Context, change stageChangeFunc) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req apptrade.StageChangeRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	order, err := change(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Timeline godoc
// @Summary      Production timeline
// @Description  Time spent in each stage, and whether the delivery deadline has passed
// @Tags         production
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=apptrade.TimelineResponse}
// @Router       /orders/{id}/production [get]
func (h *OrderHandler) Timeline(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	timeline, err := h.orderService.Timeline(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, timeline)
}
