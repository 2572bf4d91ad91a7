package trade

import (
	"fmt"
	"time"

	"github.com/fabtrack/backend/internal/domain/catalog"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fallbackArea replaces an area that computes to zero, so an AREA item with
// missing dimensions is charged one unit.
var fallbackArea = decimal.NewFromInt(1)

// ItemPrice is the pricing of one selected item of an order
type ItemPrice struct {
	ItemID        uuid.UUID
	CatalogItemID uuid.UUID
	Location      string
	BasePrice     decimal.Decimal
	Effective     decimal.Decimal
	Overridden    bool
}

// PriceBreakdown is the per-item view of an order's pricing
type PriceBreakdown struct {
	Items     []ItemPrice
	ListTotal decimal.Decimal // naive sum of base prices
	Total     decimal.Decimal // order total
	Scaled    bool            // effective prices are scaled to the order total
}

// PricingEngine derives item and order values from the catalog
type PricingEngine struct{}

// NewPricingEngine creates a new PricingEngine
func NewPricingEngine() *PricingEngine {
	return &PricingEngine{}
}

// PriceOf returns the base price of a measured item. AREA items are charged
// per square metre. Quantity is not a multiplier.
func (e *PricingEngine) PriceOf(item catalog.MeasuredItem, ci catalog.CatalogItem) decimal.Decimal {
	if ci.Unit != catalog.UnitArea {
		return ci.UnitPrice
	}
	area := item.Area()
	if area.IsZero() {
		area = fallbackArea
	}
	return ci.UnitPrice.Mul(area)
}

// TotalOf returns the sum of base prices. Items whose catalog entry is
// missing contribute zero.
func (e *PricingEngine) TotalOf(items []catalog.MeasuredItem, cat catalog.Catalog) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if ci, ok := cat.Lookup(item.CatalogItemID); ok {
			total = total.Add(e.PriceOf(item, ci))
		}
	}
	return total
}

// SelectedItems returns the sheet items that belong to the order, in sheet order
func (e *PricingEngine) SelectedItems(order *Order, sheet *catalog.MeasurementSheet) []catalog.MeasuredItem {
	if order.SelectedItemIDs == nil {
		items := make([]catalog.MeasuredItem, len(sheet.Items))
		copy(items, sheet.Items)
		return items
	}
	selected := make(map[uuid.UUID]struct{}, len(order.SelectedItemIDs))
	for _, id := range order.SelectedItemIDs {
		selected[id] = struct{}{}
	}
	items := make([]catalog.MeasuredItem, 0, len(selected))
	for _, item := range sheet.Items {
		if _, ok := selected[item.ID]; ok {
			items = append(items, item)
		}
	}
	return items
}

// ListPrice returns the naive sum of base prices of the selected items
func (e *PricingEngine) ListPrice(order *Order, sheet *catalog.MeasurementSheet, cat catalog.Catalog) decimal.Decimal {
	return e.TotalOf(e.SelectedItems(order, sheet), cat)
}

// EffectivePrice returns the chargeable price of one item of the order
func (e *PricingEngine) EffectivePrice(order *Order, sheet *catalog.MeasurementSheet, cat catalog.Catalog, itemID uuid.UUID) (decimal.Decimal, error) {
	if !order.IsSelected(itemID, sheet.ItemIDs()) {
		return decimal.Zero, itemNotInOrder(itemID)
	}
	item, ok := sheet.FindItem(itemID)
	if !ok {
		return decimal.Zero, itemNotInOrder(itemID)
	}
	return e.effective(order, item, cat, e.ListPrice(order, sheet, cat)), nil
}

// Breakdown prices every selected item of the order
func (e *PricingEngine) Breakdown(order *Order, sheet *catalog.MeasurementSheet, cat catalog.Catalog) PriceBreakdown {
	items := e.SelectedItems(order, sheet)
	naive := e.TotalOf(items, cat)

	breakdown := PriceBreakdown{
		Items:     make([]ItemPrice, 0, len(items)),
		ListTotal: naive,
		Total:     order.Total,
		Scaled:    e.scales(order, naive),
	}
	for _, item := range items {
		_, overridden := order.PriceOverrides[item.ID]
		breakdown.Items = append(breakdown.Items, ItemPrice{
			ItemID:        item.ID,
			CatalogItemID: item.CatalogItemID,
			Location:      item.Location,
			BasePrice:     e.basePrice(item, cat),
			Effective:     e.effective(order, item, cat, naive),
			Overridden:    overridden,
		})
	}
	return breakdown
}

// EditItemPrice returns a copy of the order with one item's price set
// explicitly. Every selected item without an override first gets one at its
// current effective price. The order total becomes the sum of the overrides.
func (e *PricingEngine) EditItemPrice(order *Order, sheet *catalog.MeasurementSheet, cat catalog.Catalog, itemID uuid.UUID, price decimal.Decimal) (*Order, error) {
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Item price cannot be negative")
	}
	if !order.IsSelected(itemID, sheet.ItemIDs()) {
		return nil, itemNotInOrder(itemID)
	}
	if _, ok := sheet.FindItem(itemID); !ok {
		return nil, itemNotInOrder(itemID)
	}

	result, err := e.prepareReprice(order)
	if err != nil {
		return nil, err
	}

	e.materializeOverrides(order, result, sheet, cat)
	result.PriceOverrides[itemID] = price

	e.applyTotal(result, sumOverrides(result.PriceOverrides), "item price edited")

	return result, nil
}

// SetManualTotal returns a copy of the order with an order-level total,
// used for discounts and surcharges over the list price
func (e *PricingEngine) SetManualTotal(order *Order, total decimal.Decimal) (*Order, error) {
	if total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Order total cannot be negative")
	}
	result, err := e.prepareReprice(order)
	if err != nil {
		return nil, err
	}
	e.applyTotal(result, total, "manual total")
	return result, nil
}

// SelectItems returns a copy of the order restricted to the given sheet
// items. An empty selection selects every item. The total is recomputed from
// the effective prices of the new selection. Existing overrides must all
// stay selected.
func (e *PricingEngine) SelectItems(order *Order, sheet *catalog.MeasurementSheet, cat catalog.Catalog, ids []uuid.UUID) (*Order, error) {
	var selection []uuid.UUID
	if len(ids) > 0 {
		seen := make(map[uuid.UUID]struct{}, len(ids))
		selection = make([]uuid.UUID, 0, len(ids))
		for _, id := range ids {
			if _, ok := sheet.FindItem(id); !ok {
				return nil, shared.NewDomainError("ITEM_NOT_IN_SHEET", fmt.Sprintf("Item %s is not on the measurement sheet", id))
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			selection = append(selection, id)
		}
	}

	result, err := e.prepareReprice(order)
	if err != nil {
		return nil, err
	}
	result.SelectedItemIDs = selection

	sheetIDs := sheet.ItemIDs()
	for id := range result.PriceOverrides {
		if !result.IsSelected(id, sheetIDs) {
			return nil, shared.NewDomainError("ITEM_NOT_IN_ORDER", fmt.Sprintf("Item %s has a price override but is not selected", id))
		}
	}

	var total decimal.Decimal
	if result.PriceOverrides == nil {
		total = e.TotalOf(e.SelectedItems(result, sheet), cat)
	} else {
		// newly selected items join the overrides at their base price
		e.materializeOverrides(result, result, sheet, cat)
		total = sumOverrides(result.PriceOverrides)
	}
	e.applyTotal(result, total, "items selected")

	return result, nil
}

// materializeOverrides gives every selected item of target that has no
// override one at its effective price in priced. The sum of the overrides
// then covers the whole selection.
func (e *PricingEngine) materializeOverrides(priced, target *Order, sheet *catalog.MeasurementSheet, cat catalog.Catalog) {
	items := e.SelectedItems(target, sheet)
	naive := e.TotalOf(e.SelectedItems(priced, sheet), cat)
	if target.PriceOverrides == nil {
		target.PriceOverrides = make(map[uuid.UUID]decimal.Decimal, len(items))
	}
	for _, item := range items {
		if _, ok := target.PriceOverrides[item.ID]; !ok {
			target.PriceOverrides[item.ID] = e.effective(priced, item, cat, naive)
		}
	}
}

func sumOverrides(overrides map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range overrides {
		total = total.Add(v)
	}
	return total
}

func (e *PricingEngine) basePrice(item catalog.MeasuredItem, cat catalog.Catalog) decimal.Decimal {
	ci, ok := cat.Lookup(item.CatalogItemID)
	if !ok {
		return decimal.Zero
	}
	return e.PriceOf(item, ci)
}

// effective applies the override and proportional scaling rules. naive is
// the base-price sum of the order's selected items.
func (e *PricingEngine) effective(order *Order, item catalog.MeasuredItem, cat catalog.Catalog, naive decimal.Decimal) decimal.Decimal {
	if order.PriceOverrides != nil {
		if v, ok := order.PriceOverrides[item.ID]; ok {
			return v
		}
		return e.basePrice(item, cat)
	}
	base := e.basePrice(item, cat)
	if e.scales(order, naive) {
		return valueobject.Round2(base.Mul(order.Total).Div(naive))
	}
	return base
}

func (e *PricingEngine) scales(order *Order, naive decimal.Decimal) bool {
	return order.PriceOverrides == nil && naive.IsPositive() && !order.Total.Equal(naive)
}

// prepareReprice clones the order for a pricing change. A schedule with no
// paid installment is dropped and must be generated again for the new total.
func (e *PricingEngine) prepareReprice(order *Order) (*Order, error) {
	if !order.CanReprice() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reprice order in %s status", order.Status))
	}
	if order.HasPaidInstallments() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot reprice an order with paid installments")
	}
	result := order.Clone()
	result.Installments = make([]Installment, 0)
	return result, nil
}

func (e *PricingEngine) applyTotal(order *Order, total decimal.Decimal, reason string) {
	previous := order.Total
	order.Total = total
	order.UpdatedAt = time.Now()
	if !previous.Equal(total) {
		order.AddDomainEvent(NewOrderTotalChangedEvent(order, previous, reason))
	}
}

func itemNotInOrder(itemID uuid.UUID) error {
	return shared.NewDomainError("ITEM_NOT_IN_ORDER", fmt.Sprintf("Item %s is not part of this order", itemID))
}
