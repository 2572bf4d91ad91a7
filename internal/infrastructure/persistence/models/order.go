package models

import (
	"encoding/json"
	"time"

	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	OrderNumber         string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID          uuid.UUID              `gorm:"type:uuid;not null;index"`
	SellerID            uuid.UUID              `gorm:"type:uuid;not null;index"`
	SheetID             uuid.UUID              `gorm:"type:uuid;not null;index"`
	SelectedItemIDsJSON string                 `gorm:"column:selected_item_ids;type:jsonb;not null;default:'null'"`
	PriceOverridesJSON  string                 `gorm:"column:price_overrides;type:jsonb;not null;default:'null'"`
	Status              trade.OrderStatus      `gorm:"type:varchar(20);not null;default:'QUOTE';index"`
	CurrentStage        *trade.ProductionStage `gorm:"type:varchar(30);index"`
	Total               decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	DeliveryDays        int                    `gorm:"not null;default:0"`
	DeliveryDeadline    *time.Time             `gorm:"index"`
	ConfirmedAt         *time.Time             `gorm:"index"`
	CancelledAt         *time.Time
	CancelReason        string              `gorm:"type:varchar(500)"`
	Notes               string              `gorm:"type:text"`
	Installments        []InstallmentModel  `gorm:"foreignKey:OrderID;references:ID"`
	History             []StageHistoryModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() (*trade.Order, error) {
	order := &trade.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		CustomerID:        m.CustomerID,
		SellerID:          m.SellerID,
		SheetID:           m.SheetID,
		Status:            m.Status,
		Total:             m.Total,
		DeliveryDays:      m.DeliveryDays,
		DeliveryDeadline:  m.DeliveryDeadline,
		ConfirmedAt:       m.ConfirmedAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		Notes:             m.Notes,
		Installments:      make([]trade.Installment, len(m.Installments)),
		History:           make([]trade.ProductionHistoryEntry, len(m.History)),
	}

	if err := decodeJSONColumn(m.SelectedItemIDsJSON, &order.SelectedItemIDs); err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(m.PriceOverridesJSON, &order.PriceOverrides); err != nil {
		return nil, err
	}
	for i, inst := range m.Installments {
		order.Installments[i] = inst.ToDomain()
	}
	for i, entry := range m.History {
		order.History[i] = entry.ToDomain()
	}
	return order, nil
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *trade.Order) error {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.SellerID = o.SellerID
	m.SheetID = o.SheetID
	m.Status = o.Status
	m.Total = o.Total
	m.DeliveryDays = o.DeliveryDays
	m.DeliveryDeadline = o.DeliveryDeadline
	m.ConfirmedAt = o.ConfirmedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.Notes = o.Notes

	m.CurrentStage = nil
	if stage, ok := o.CurrentStage(); ok {
		m.CurrentStage = &stage
	}

	selected, err := json.Marshal(o.SelectedItemIDs)
	if err != nil {
		return err
	}
	m.SelectedItemIDsJSON = string(selected)

	overrides, err := json.Marshal(o.PriceOverrides)
	if err != nil {
		return err
	}
	m.PriceOverridesJSON = string(overrides)

	m.Installments = make([]InstallmentModel, len(o.Installments))
	for i, inst := range o.Installments {
		m.Installments[i] = InstallmentModelFromDomain(o.ID, inst)
	}
	m.History = make([]StageHistoryModel, len(o.History))
	for i, entry := range o.History {
		m.History[i] = StageHistoryModel{
			OrderID:   o.ID,
			Seq:       i + 1,
			Stage:     entry.Stage,
			EnteredAt: entry.EnteredAt,
		}
	}
	return nil
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *trade.Order) (*OrderModel, error) {
	m := &OrderModel{}
	if err := m.FromDomain(o); err != nil {
		return nil, err
	}
	return m, nil
}

// InstallmentModel is the persistence model for one installment of an order's schedule.
type InstallmentModel struct {
	OrderID     uuid.UUID               `gorm:"type:uuid;primaryKey"`
	Number      int                     `gorm:"primaryKey;autoIncrement:false"`
	DueDate     time.Time               `gorm:"not null"`
	Value       decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	Status      trade.InstallmentStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	PaymentDate *time.Time              `gorm:"index"`
	NetValue    *decimal.Decimal        `gorm:"type:decimal(18,2)"`
	FiscalRef   string                  `gorm:"type:varchar(100)"`
	Method      trade.PaymentMethod     `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string {
	return "order_installments"
}

// ToDomain converts the persistence model to a domain Installment.
func (m *InstallmentModel) ToDomain() trade.Installment {
	return trade.Installment{
		Number:      m.Number,
		DueDate:     m.DueDate,
		Value:       m.Value,
		Status:      m.Status,
		PaymentDate: m.PaymentDate,
		NetValue:    m.NetValue,
		FiscalRef:   m.FiscalRef,
		Method:      m.Method,
	}
}

// InstallmentModelFromDomain creates a persistence model for an installment of the order.
func InstallmentModelFromDomain(orderID uuid.UUID, i trade.Installment) InstallmentModel {
	return InstallmentModel{
		OrderID:     orderID,
		Number:      i.Number,
		DueDate:     i.DueDate,
		Value:       i.Value,
		Status:      i.Status,
		PaymentDate: i.PaymentDate,
		NetValue:    i.NetValue,
		FiscalRef:   i.FiscalRef,
		Method:      i.Method,
	}
}

// StageHistoryModel is one production history entry. Rows are append-only.
type StageHistoryModel struct {
	OrderID   uuid.UUID             `gorm:"type:uuid;primaryKey"`
	Seq       int                   `gorm:"primaryKey;autoIncrement:false"`
	Stage     trade.ProductionStage `gorm:"type:varchar(30);not null"`
	EnteredAt time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StageHistoryModel) TableName() string {
	return "order_stage_history"
}

// ToDomain converts the persistence model to a domain history entry.
func (m *StageHistoryModel) ToDomain() trade.ProductionHistoryEntry {
	return trade.ProductionHistoryEntry{Stage: m.Stage, EnteredAt: m.EnteredAt}
}

func decodeJSONColumn(raw string, dst any) error {
	if raw == "" || raw == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

// OrderNumberSequenceModel holds the last order number issued per year
type OrderNumberSequenceModel struct {
	Year      int `gorm:"primaryKey;autoIncrement:false"`
	LastValue int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderNumberSequenceModel) TableName() string {
	return "order_number_sequences"
}
