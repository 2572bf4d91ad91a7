package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/shared/service"
	"github.com/fabtrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the commercial status of an order
type OrderStatus string

const (
	OrderStatusQuote          OrderStatus = "QUOTE"
	OrderStatusContractSigned OrderStatus = "CONTRACT_SIGNED"
	OrderStatusInProduction   OrderStatus = "IN_PRODUCTION"
	OrderStatusFinished       OrderStatus = "FINISHED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusQuote, OrderStatusContractSigned, OrderStatusInProduction, OrderStatusFinished, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// FINISHED is reachable from any production status because reaching the
// READY stage finishes the order whatever its prior status was.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusQuote:
		return target == OrderStatusContractSigned || target == OrderStatusCancelled
	case OrderStatusContractSigned:
		return target == OrderStatusInProduction || target == OrderStatusFinished || target == OrderStatusCancelled
	case OrderStatusInProduction:
		return target == OrderStatusFinished
	case OrderStatusFinished, OrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// Order is the aggregate root for a customer order. It is the only
// aggregate mutated by pricing, scheduling, production and settlement.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber      string
	CustomerID       uuid.UUID
	SellerID         uuid.UUID
	SheetID          uuid.UUID
	SelectedItemIDs  []uuid.UUID // nil selects every item of the sheet
	Status           OrderStatus
	History          []ProductionHistoryEntry
	Total            decimal.Decimal
	PriceOverrides   map[uuid.UUID]decimal.Decimal // nil until a price is edited
	Installments     []Installment
	DeliveryDays     int
	DeliveryDeadline *time.Time
	ConfirmedAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string
	Notes            string
}

// NewOrder creates a new quote for the customer's measurement sheet
func NewOrder(orderNumber string, customerID, sellerID, sheetID uuid.UUID, total decimal.Decimal) (*Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller ID cannot be empty")
	}
	if sheetID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHEET", "Measurement sheet ID cannot be empty")
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Order total cannot be negative")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		SellerID:          sellerID,
		SheetID:           sheetID,
		Status:            OrderStatusQuote,
		History:           make([]ProductionHistoryEntry, 0),
		Total:             total,
		Installments:      make([]Installment, 0),
	}

	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// Clone returns a deep copy of the order. Domain services mutate the clone
// and hand it back so the caller's value stays authoritative until persisted.
func (o *Order) Clone() *Order {
	c := *o
	c.BaseAggregateRoot = o.BaseAggregateRoot.CloneBase()

	if o.SelectedItemIDs != nil {
		c.SelectedItemIDs = make([]uuid.UUID, len(o.SelectedItemIDs))
		copy(c.SelectedItemIDs, o.SelectedItemIDs)
	}
	c.History = make([]ProductionHistoryEntry, len(o.History))
	copy(c.History, o.History)

	if o.PriceOverrides != nil {
		c.PriceOverrides = make(map[uuid.UUID]decimal.Decimal, len(o.PriceOverrides))
		for k, v := range o.PriceOverrides {
			c.PriceOverrides[k] = v
		}
	}

	c.Installments = make([]Installment, len(o.Installments))
	for i, inst := range o.Installments {
		c.Installments[i] = inst.clone()
	}

	c.DeliveryDeadline = cloneTime(o.DeliveryDeadline)
	c.ConfirmedAt = cloneTime(o.ConfirmedAt)
	c.CancelledAt = cloneTime(o.CancelledAt)
	return &c
}

// Confirm turns the quote into a signed contract. Production starts at
// NEW_ORDER and the delivery deadline is counted in business days from at.
func (o *Order) Confirm(deliveryDays int, at time.Time) error {
	if !o.Status.CanTransitionTo(OrderStatusContractSigned) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm order in %s status", o.Status))
	}
	if deliveryDays < 0 {
		return shared.NewDomainError("INVALID_DELIVERY_DAYS", "Delivery days cannot be negative")
	}

	deadline := service.AddBusinessDays(at, deliveryDays)
	o.Status = OrderStatusContractSigned
	o.History = append(o.History, ProductionHistoryEntry{Stage: StageNewOrder, EnteredAt: at})
	o.DeliveryDays = deliveryDays
	o.DeliveryDeadline = &deadline
	o.ConfirmedAt = &at
	o.UpdatedAt = at

	o.AddDomainEvent(NewOrderConfirmedEvent(o))

	return nil
}

// Cancel cancels a quote or a signed contract that has not entered production
func (o *Order) Cancel(reason string, at time.Time) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	if o.HasPaidInstallments() {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel an order with paid installments")
	}

	previous := o.Status
	o.Status = OrderStatusCancelled
	o.CancelledAt = &at
	o.CancelReason = reason
	o.UpdatedAt = at

	o.AddDomainEvent(NewOrderCancelledEvent(o, previous))

	return nil
}

// SetNotes replaces the free-text notes
func (o *Order) SetNotes(notes string) {
	o.Notes = notes
	o.UpdatedAt = time.Now()
}

// CurrentStage returns the production stage of the last history entry.
// ok is false until the order is confirmed.
func (o *Order) CurrentStage() (stage ProductionStage, ok bool) {
	if len(o.History) == 0 {
		return "", false
	}
	return o.History[len(o.History)-1].Stage, true
}

// IsSelected reports whether the measured item is part of this order
func (o *Order) IsSelected(itemID uuid.UUID, sheetItemIDs []uuid.UUID) bool {
	ids := o.SelectedItemIDs
	if ids == nil {
		ids = sheetItemIDs
	}
	for _, id := range ids {
		if id == itemID {
			return true
		}
	}
	return false
}

// FindInstallment returns the index of the installment with the given number
func (o *Order) FindInstallment(number int) (int, bool) {
	for i := range o.Installments {
		if o.Installments[i].Number == number {
			return i, true
		}
	}
	return -1, false
}

// InstallmentsTotal returns the sum of all installment values
func (o *Order) InstallmentsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range o.Installments {
		total = total.Add(inst.Value)
	}
	return total
}

// HasPaidInstallments returns true if any installment is PAID
func (o *Order) HasPaidInstallments() bool {
	for _, inst := range o.Installments {
		if inst.IsPaid() {
			return true
		}
	}
	return false
}

// IsCancelled returns true if the order is cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// CanReprice returns true if prices and schedule may still change
func (o *Order) CanReprice() bool {
	return o.Status != OrderStatusCancelled && o.Status != OrderStatusFinished
}

// CheckInvariants verifies the rules every persisted order must satisfy:
// a non-empty schedule sums to the total within one cent, installments are
// numbered 1..n, and the production history is ordered in time.
func (o *Order) CheckInvariants() error {
	if len(o.Installments) > 0 && !valueobject.WithinTolerance(o.InstallmentsTotal(), o.Total) {
		return shared.NewDomainError("INVARIANT_VIOLATION",
			fmt.Sprintf("Installments sum %s does not match order total %s", o.InstallmentsTotal().StringFixed(2), o.Total.StringFixed(2)))
	}
	for i, inst := range o.Installments {
		if inst.Number != i+1 {
			return shared.NewDomainError("INVARIANT_VIOLATION", "Installments must be numbered contiguously from 1")
		}
	}
	for i := 1; i < len(o.History); i++ {
		if o.History[i].EnteredAt.Before(o.History[i-1].EnteredAt) {
			return shared.NewDomainError("INVARIANT_VIOLATION", "Production history must be ordered in time")
		}
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
