package catalog

import (
	"strings"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MeasuredItem is one line of a measurement sheet: a catalog item measured
// on site. Accessories point at the item they belong to through ParentID.
type MeasuredItem struct {
	ID            uuid.UUID
	ParentID      *uuid.UUID
	CatalogItemID uuid.UUID
	Width         decimal.Decimal // metres
	Height        decimal.Decimal // metres
	Quantity      int
	Location      string
}

// Area returns width x height in square metres
func (m MeasuredItem) Area() decimal.Decimal {
	return m.Width.Mul(m.Height)
}

// IsAccessory returns true if the item is grouped under another item
func (m MeasuredItem) IsAccessory() bool {
	return m.ParentID != nil
}

// MeasurementSheet holds the items measured for a customer. Orders price a
// subset (or all) of its items.
type MeasurementSheet struct {
	shared.BaseAggregateRoot
	CustomerID uuid.UUID
	Items      []MeasuredItem
}

// NewMeasurementSheet creates an empty sheet for the customer
func NewMeasurementSheet(customerID uuid.UUID) (*MeasurementSheet, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	return &MeasurementSheet{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Items:             make([]MeasuredItem, 0),
	}, nil
}

// AddItem appends a measured item and returns it
func (s *MeasurementSheet) AddItem(catalogItemID uuid.UUID, parentID *uuid.UUID, width, height decimal.Decimal, quantity int, location string) (*MeasuredItem, error) {
	if catalogItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATALOG_ITEM", "Catalog item ID cannot be empty")
	}
	if width.IsNegative() || height.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DIMENSIONS", "Width and height cannot be negative")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if parentID != nil {
		if _, ok := s.FindItem(*parentID); !ok {
			return nil, shared.NewDomainError("PARENT_NOT_FOUND", "Parent item is not on this sheet")
		}
	}

	item := MeasuredItem{
		ID:            uuid.New(),
		ParentID:      parentID,
		CatalogItemID: catalogItemID,
		Width:         width,
		Height:        height,
		Quantity:      quantity,
		Location:      strings.TrimSpace(location),
	}
	s.Items = append(s.Items, item)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return &s.Items[len(s.Items)-1], nil
}

// FindItem returns the item with the given ID
func (s *MeasurementSheet) FindItem(id uuid.UUID) (MeasuredItem, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return MeasuredItem{}, false
}

// ItemIDs returns the IDs of every item in sheet order
func (s *MeasurementSheet) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.Items))
	for i, item := range s.Items {
		ids[i] = item.ID
	}
	return ids
}
