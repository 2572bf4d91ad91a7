package trade

import (
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated           = "OrderCreated"
	EventTypeOrderConfirmed         = "OrderConfirmed"
	EventTypeOrderCancelled         = "OrderCancelled"
	EventTypeOrderTotalChanged      = "OrderTotalChanged"
	EventTypeInstallmentsScheduled  = "InstallmentsScheduled"
	EventTypeProductionStageChanged = "ProductionStageChanged"
	EventTypeInstallmentSettled     = "InstallmentSettled"
	EventTypeInstallmentUnsettled   = "InstallmentUnsettled"
)

// OrderCreatedEvent is raised when a new quote is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	Total       decimal.Decimal `json:"total"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, order.ID, order.CreatedAt),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		SellerID:        order.SellerID,
		Total:           order.Total,
	}
}

// OrderConfirmedEvent is raised when a quote becomes a signed contract
type OrderConfirmedEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID       `json:"order_id"`
	OrderNumber      string          `json:"order_number"`
	Total            decimal.Decimal `json:"total"`
	DeliveryDays     int             `json:"delivery_days"`
	DeliveryDeadline time.Time       `json:"delivery_deadline"`
}

// NewOrderConfirmedEvent creates a new OrderConfirmedEvent
func NewOrderConfirmedEvent(order *Order) *OrderConfirmedEvent {
	ev := &OrderConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderConfirmed, AggregateTypeOrder, order.ID, order.UpdatedAt),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Total:           order.Total,
		DeliveryDays:    order.DeliveryDays,
	}
	if order.DeliveryDeadline != nil {
		ev.DeliveryDeadline = *order.DeliveryDeadline
	}
	return ev
}

// OrderCancelledEvent is raised when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID   `json:"order_id"`
	OrderNumber    string      `json:"order_number"`
	Reason         string      `json:"reason"`
	PreviousStatus OrderStatus `json:"previous_status"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(order *Order, previous OrderStatus) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, order.ID, order.UpdatedAt),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Reason:          order.CancelReason,
		PreviousStatus:  previous,
	}
}

// OrderTotalChangedEvent is raised when pricing or an installment edit changes the total
type OrderTotalChangedEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID       `json:"order_id"`
	Previous decimal.Decimal `json:"previous"`
	Total    decimal.Decimal `json:"total"`
	Reason   string          `json:"reason"`
}

// NewOrderTotalChangedEvent creates a new OrderTotalChangedEvent
func NewOrderTotalChangedEvent(order *Order, previous decimal.Decimal, reason string) *OrderTotalChangedEvent {
	return &OrderTotalChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderTotalChanged, AggregateTypeOrder, order.ID, order.UpdatedAt),
		OrderID:         order.ID,
		Previous:        previous,
		Total:           order.Total,
		Reason:          reason,
	}
}

// InstallmentsScheduledEvent is raised when a schedule is generated
type InstallmentsScheduledEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID       `json:"order_id"`
	Count   int             `json:"count"`
	Total   decimal.Decimal `json:"total"`
}

// NewInstallmentsScheduledEvent creates a new InstallmentsScheduledEvent
func NewInstallmentsScheduledEvent(order *Order) *InstallmentsScheduledEvent {
	return &InstallmentsScheduledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentsScheduled, AggregateTypeOrder, order.ID, order.UpdatedAt),
		OrderID:         order.ID,
		Count:           len(order.Installments),
		Total:           order.InstallmentsTotal(),
	}
}

// ProductionStageChangedEvent is raised on every advance or regress
type ProductionStageChangedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID       `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	FromStage      ProductionStage `json:"from_stage"`
	ToStage        ProductionStage `json:"to_stage"`
	PreviousStatus OrderStatus     `json:"previous_status"`
	Status         OrderStatus     `json:"status"`
}

// NewProductionStageChangedEvent creates a new ProductionStageChangedEvent
func NewProductionStageChangedEvent(order *Order, from, to ProductionStage, previousStatus OrderStatus, at time.Time) *ProductionStageChangedEvent {
	return &ProductionStageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductionStageChanged, AggregateTypeOrder, order.ID, at),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		FromStage:       from,
		ToStage:         to,
		PreviousStatus:  previousStatus,
		Status:          order.Status,
	}
}

// Regressed returns true when the stage moved backwards
func (e *ProductionStageChangedEvent) Regressed() bool {
	return e.ToStage.Index() < e.FromStage.Index()
}

// InstallmentSettledEvent is raised when an installment is marked paid
type InstallmentSettledEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Number      int             `json:"number"`
	Value       decimal.Decimal `json:"value"`
	NetValue    decimal.Decimal `json:"net_value"`
	PaymentDate time.Time       `json:"payment_date"`
	Method      PaymentMethod   `json:"method"`
}

// NewInstallmentSettledEvent creates a new InstallmentSettledEvent
func NewInstallmentSettledEvent(order *Order, inst Installment) *InstallmentSettledEvent {
	ev := &InstallmentSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentSettled, AggregateTypeOrder, order.ID, order.UpdatedAt),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Number:          inst.Number,
		Value:           inst.Value,
		Method:          inst.Method,
	}
	if inst.NetValue != nil {
		ev.NetValue = *inst.NetValue
	}
	if inst.PaymentDate != nil {
		ev.PaymentDate = *inst.PaymentDate
	}
	return ev
}

// InstallmentUnsettledEvent is raised when a settlement is reverted
type InstallmentUnsettledEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Number      int       `json:"number"`
}

// NewInstallmentUnsettledEvent creates a new InstallmentUnsettledEvent
func NewInstallmentUnsettledEvent(order *Order, number int) *InstallmentUnsettledEvent {
	return &InstallmentUnsettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentUnsettled, AggregateTypeOrder, order.ID, order.UpdatedAt),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Number:          number,
	}
}
