package catalog

import (
	"strings"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitOfMeasure determines how a catalog item is priced
type UnitOfMeasure string

const (
	// UnitEach prices an item at its unit price regardless of its dimensions
	UnitEach UnitOfMeasure = "EACH"
	// UnitArea prices an item per square metre of its measured width x height
	UnitArea UnitOfMeasure = "AREA"
)

// IsValid returns true if the unit is a known value
func (u UnitOfMeasure) IsValid() bool {
	switch u {
	case UnitEach, UnitArea:
		return true
	}
	return false
}

// String returns the string representation
func (u UnitOfMeasure) String() string {
	return string(u)
}

// FiscalInfo carries tax classification metadata. The pricing engine does
// not interpret it.
type FiscalInfo struct {
	NCM    string
	CFOP   string
	Origin string
}

// CatalogItem is a priced product or service offered to customers
type CatalogItem struct {
	shared.BaseAggregateRoot
	Code      string
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Unit      UnitOfMeasure
	Fiscal    FiscalInfo
	Active    bool
}

// NewCatalogItem creates a new active catalog item
func NewCatalogItem(code, name, category string, unit UnitOfMeasure, unitPrice decimal.Decimal) (*CatalogItem, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Catalog item code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Catalog item code cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Catalog item name cannot be empty")
	}
	if !unit.IsValid() {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit of measure must be EACH or AREA")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &CatalogItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Category:          category,
		UnitPrice:         unitPrice,
		Unit:              unit,
		Active:            true,
	}, nil
}

// ChangePrice sets a new unit price. Orders already placed keep the
// prices they were confirmed with through their override map or total.
func (c *CatalogItem) ChangePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	c.UnitPrice = price
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// SetFiscalInfo replaces the fiscal metadata
func (c *CatalogItem) SetFiscalInfo(info FiscalInfo) {
	c.Fiscal = info
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// Deactivate hides the item from new quotes
func (c *CatalogItem) Deactivate() {
	c.Active = false
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// Catalog is a read-only lookup of catalog items by ID
type Catalog map[uuid.UUID]CatalogItem

// NewCatalog indexes the given items by ID
func NewCatalog(items []CatalogItem) Catalog {
	c := make(Catalog, len(items))
	for _, item := range items {
		c[item.ID] = item
	}
	return c
}

// Lookup returns the catalog item with the given ID
func (c Catalog) Lookup(id uuid.UUID) (CatalogItem, bool) {
	item, ok := c[id]
	return item, ok
}
