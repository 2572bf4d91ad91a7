package trade

import (
	"time"

	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Order Requests ====================

// CreateOrderRequest represents a request to quote a measurement sheet
type CreateOrderRequest struct {
	CustomerID uuid.UUID        `json:"customer_id" binding:"required"`
	SellerID   uuid.UUID        `json:"seller_id" binding:"required"`
	SheetID    uuid.UUID        `json:"sheet_id" binding:"required"`
	ItemIDs    []uuid.UUID      `json:"item_ids"` // empty quotes every item of the sheet
	Total      *decimal.Decimal `json:"total"`    // optional negotiated total
	Notes      string           `json:"notes" binding:"max=2000"`
}

// ConfirmOrderRequest represents a request to sign the contract
type ConfirmOrderRequest struct {
	DeliveryDays *int `json:"delivery_days" binding:"omitempty,min=0,max=365"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// SelectItemsRequest restricts the order to a subset of the sheet
type SelectItemsRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids"`
}

// SetTotalRequest sets an order-level total
type SetTotalRequest struct {
	Total decimal.Decimal `json:"total" binding:"required"`
}

// EditItemPriceRequest sets the price of one item
type EditItemPriceRequest struct {
	Price decimal.Decimal `json:"price" binding:"required"`
}

// GenerateInstallmentsRequest builds a new payment schedule
type GenerateInstallmentsRequest struct {
	DownPayment decimal.Decimal `json:"down_payment"`
	Count       int             `json:"count"`
	Method      string          `json:"method" binding:"omitempty,oneof=PIX BOLETO CREDIT_CARD DEBIT_CARD BANK_TRANSFER CASH CHECK"`
	StartDate   *time.Time      `json:"start_date"` // defaults to today
}

// EditInstallmentRequest changes the value of one pending installment
type EditInstallmentRequest struct {
	Value decimal.Decimal `json:"value" binding:"required"`
}

// StageChangeRequest moves the order along the production pipeline
type StageChangeRequest struct {
	At *time.Time `json:"at"` // defaults to now
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search     string `form:"search"`
	Status     string `form:"status" binding:"omitempty,oneof=QUOTE CONTRACT_SIGNED IN_PRODUCTION FINISHED CANCELLED"`
	Stage      string `form:"stage" binding:"omitempty,oneof=NEW_ORDER PREPARATION PROVISIONING CUTTING_WELDING ASSEMBLY INSTALLATION READY"`
	SellerID   string `form:"seller_id" binding:"omitempty,uuid"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Order Responses ====================

// InstallmentResponse represents one scheduled payment
type InstallmentResponse struct {
	Number      int              `json:"number"`
	DueDate     time.Time        `json:"due_date"`
	Value       decimal.Decimal  `json:"value"`
	Status      string           `json:"status"`
	PaymentDate *time.Time       `json:"payment_date,omitempty"`
	NetValue    *decimal.Decimal `json:"net_value,omitempty"`
	FiscalRef   string           `json:"fiscal_ref,omitempty"`
	Method      string           `json:"method,omitempty"`
}

// StageEntryResponse represents one production history entry
type StageEntryResponse struct {
	Stage     string    `json:"stage"`
	EnteredAt time.Time `json:"entered_at"`
}

// OrderResponse represents an order with its schedule and history
type OrderResponse struct {
	ID               uuid.UUID                  `json:"id"`
	OrderNumber      string                     `json:"order_number"`
	CustomerID       uuid.UUID                  `json:"customer_id"`
	SellerID         uuid.UUID                  `json:"seller_id"`
	SheetID          uuid.UUID                  `json:"sheet_id"`
	SelectedItemIDs  []uuid.UUID                `json:"selected_item_ids"`
	Status           string                     `json:"status"`
	CurrentStage     string                     `json:"current_stage,omitempty"`
	Total            decimal.Decimal            `json:"total"`
	PriceOverrides   map[string]decimal.Decimal `json:"price_overrides,omitempty"`
	Installments     []InstallmentResponse      `json:"installments"`
	History          []StageEntryResponse       `json:"history"`
	DeliveryDays     int                        `json:"delivery_days"`
	DeliveryDeadline *time.Time                 `json:"delivery_deadline,omitempty"`
	ConfirmedAt      *time.Time                 `json:"confirmed_at,omitempty"`
	CancelledAt      *time.Time                 `json:"cancelled_at,omitempty"`
	CancelReason     string                     `json:"cancel_reason,omitempty"`
	Notes            string                     `json:"notes,omitempty"`
	Version          int                        `json:"version"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// OrderListItemResponse represents an order in a list
type OrderListItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	OrderNumber      string          `json:"order_number"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	SellerID         uuid.UUID       `json:"seller_id"`
	Status           string          `json:"status"`
	CurrentStage     string          `json:"current_stage,omitempty"`
	Total            decimal.Decimal `json:"total"`
	PaidInstallments int             `json:"paid_installments"`
	Installments     int             `json:"installments"`
	DeliveryDeadline *time.Time      `json:"delivery_deadline,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ItemPriceResponse represents the pricing of one item
type ItemPriceResponse struct {
	ItemID        uuid.UUID       `json:"item_id"`
	CatalogItemID uuid.UUID       `json:"catalog_item_id"`
	Location      string          `json:"location,omitempty"`
	BasePrice     decimal.Decimal `json:"base_price"`
	Effective     decimal.Decimal `json:"effective_price"`
	Overridden    bool            `json:"overridden"`
}

// PricingResponse represents the per-item pricing of an order
type PricingResponse struct {
	OrderID   uuid.UUID           `json:"order_id"`
	ListTotal decimal.Decimal     `json:"list_total"`
	Total     decimal.Decimal     `json:"total"`
	Scaled    bool                `json:"scaled"`
	Items     []ItemPriceResponse `json:"items"`
}

// StageSpanResponse represents one row of the production timeline
type StageSpanResponse struct {
	Stage           string     `json:"stage"`
	EnteredAt       time.Time  `json:"entered_at"`
	LeftAt          *time.Time `json:"left_at,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	InProgress      bool       `json:"in_progress"`
}

// TimelineResponse represents the production timeline of an order
type TimelineResponse struct {
	OrderID          uuid.UUID           `json:"order_id"`
	Status           string              `json:"status"`
	CurrentStage     string              `json:"current_stage,omitempty"`
	DeliveryDeadline *time.Time          `json:"delivery_deadline,omitempty"`
	Late             bool                `json:"late"`
	Stages           []StageSpanResponse `json:"stages"`
}

// ToOrderResponse converts the domain order to its response
func ToOrderResponse(o *trade.Order) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		CustomerID:       o.CustomerID,
		SellerID:         o.SellerID,
		SheetID:          o.SheetID,
		SelectedItemIDs:  o.SelectedItemIDs,
		Status:           string(o.Status),
		Total:            o.Total,
		Installments:     make([]InstallmentResponse, len(o.Installments)),
		History:          make([]StageEntryResponse, len(o.History)),
		DeliveryDays:     o.DeliveryDays,
		DeliveryDeadline: o.DeliveryDeadline,
		ConfirmedAt:      o.ConfirmedAt,
		CancelledAt:      o.CancelledAt,
		CancelReason:     o.CancelReason,
		Notes:            o.Notes,
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	if stage, ok := o.CurrentStage(); ok {
		resp.CurrentStage = string(stage)
	}
	if o.PriceOverrides != nil {
		resp.PriceOverrides = make(map[string]decimal.Decimal, len(o.PriceOverrides))
		for id, v := range o.PriceOverrides {
			resp.PriceOverrides[id.String()] = v
		}
	}
	for i, inst := range o.Installments {
		resp.Installments[i] = ToInstallmentResponse(inst)
	}
	for i, h := range o.History {
		resp.History[i] = StageEntryResponse{Stage: string(h.Stage), EnteredAt: h.EnteredAt}
	}
	return resp
}

// ToInstallmentResponse converts an installment to its response
func ToInstallmentResponse(inst trade.Installment) InstallmentResponse {
	return InstallmentResponse{
		Number:      inst.Number,
		DueDate:     inst.DueDate,
		Value:       inst.Value,
		Status:      string(inst.Status),
		PaymentDate: inst.PaymentDate,
		NetValue:    inst.NetValue,
		FiscalRef:   inst.FiscalRef,
		Method:      string(inst.Method),
	}
}

// ToOrderListItemResponse converts the domain order to its list row
func ToOrderListItemResponse(o *trade.Order) OrderListItemResponse {
	resp := OrderListItemResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		CustomerID:       o.CustomerID,
		SellerID:         o.SellerID,
		Status:           string(o.Status),
		Total:            o.Total,
		Installments:     len(o.Installments),
		DeliveryDeadline: o.DeliveryDeadline,
		CreatedAt:        o.CreatedAt,
	}
	if stage, ok := o.CurrentStage(); ok {
		resp.CurrentStage = string(stage)
	}
	for _, inst := range o.Installments {
		if inst.IsPaid() {
			resp.PaidInstallments++
		}
	}
	return resp
}

// ToPricingResponse converts a price breakdown to its response
func ToPricingResponse(orderID uuid.UUID, b trade.PriceBreakdown) PricingResponse {
	resp := PricingResponse{
		OrderID:   orderID,
		ListTotal: b.ListTotal,
		Total:     b.Total,
		Scaled:    b.Scaled,
		Items:     make([]ItemPriceResponse, len(b.Items)),
	}
	for i, it := range b.Items {
		resp.Items[i] = ItemPriceResponse{
			ItemID:        it.ItemID,
			CatalogItemID: it.CatalogItemID,
			Location:      it.Location,
			BasePrice:     it.BasePrice,
			Effective:     it.Effective,
			Overridden:    it.Overridden,
		}
	}
	return resp
}
