package catalog

import (
	"time"

	"github.com/fabtrack/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCatalogItemRequest represents a request to create a catalog item
type CreateCatalogItemRequest struct {
	Code      string          `json:"code" binding:"required,min=1,max=50"`
	Name      string          `json:"name" binding:"required,min=1,max=200"`
	Category  string          `json:"category" binding:"max=100"`
	Unit      string          `json:"unit" binding:"required,oneof=EACH AREA"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	NCM       string          `json:"ncm" binding:"max=10"`
	CFOP      string          `json:"cfop" binding:"max=10"`
	Origin    string          `json:"origin" binding:"max=10"`
}

// UpdateCatalogItemPriceRequest represents a request to change a unit price
type UpdateCatalogItemPriceRequest struct {
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// CatalogItemListFilter represents filter options for the catalog item list
type CatalogItemListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=code name category unit_price created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CatalogItemResponse represents a catalog item
type CatalogItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	NCM       string          `json:"ncm,omitempty"`
	CFOP      string          `json:"cfop,omitempty"`
	Origin    string          `json:"origin,omitempty"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MeasuredItemRequest is one measured line of a new sheet. ParentIndex
// points at an earlier line of the same request.
type MeasuredItemRequest struct {
	CatalogItemID uuid.UUID       `json:"catalog_item_id" binding:"required"`
	ParentIndex   *int            `json:"parent_index" binding:"omitempty,min=0"`
	Width         decimal.Decimal `json:"width"`
	Height        decimal.Decimal `json:"height"`
	Quantity      int             `json:"quantity" binding:"omitempty,min=1"`
	Location      string          `json:"location" binding:"max=200"`
}

// CreateMeasurementSheetRequest represents a request to record a measurement visit
type CreateMeasurementSheetRequest struct {
	CustomerID uuid.UUID             `json:"customer_id" binding:"required"`
	Items      []MeasuredItemRequest `json:"items" binding:"required,min=1,dive"`
}

// MeasuredItemResponse represents one measured line
type MeasuredItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	ParentID      *uuid.UUID      `json:"parent_id,omitempty"`
	CatalogItemID uuid.UUID       `json:"catalog_item_id"`
	Width         decimal.Decimal `json:"width"`
	Height        decimal.Decimal `json:"height"`
	Quantity      int             `json:"quantity"`
	Location      string          `json:"location,omitempty"`
}

// MeasurementSheetResponse represents a measurement sheet
type MeasurementSheetResponse struct {
	ID         uuid.UUID              `json:"id"`
	CustomerID uuid.UUID              `json:"customer_id"`
	Items      []MeasuredItemResponse `json:"items"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ToCatalogItemResponse converts the domain catalog item to its response
func ToCatalogItemResponse(c *catalog.CatalogItem) CatalogItemResponse {
	return CatalogItemResponse{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Category:  c.Category,
		Unit:      string(c.Unit),
		UnitPrice: c.UnitPrice,
		NCM:       c.Fiscal.NCM,
		CFOP:      c.Fiscal.CFOP,
		Origin:    c.Fiscal.Origin,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToMeasurementSheetResponse converts the domain sheet to its response
func ToMeasurementSheetResponse(s *catalog.MeasurementSheet) MeasurementSheetResponse {
	resp := MeasurementSheetResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		Items:      make([]MeasuredItemResponse, len(s.Items)),
		CreatedAt:  s.CreatedAt,
	}
	for i, it := range s.Items {
		resp.Items[i] = MeasuredItemResponse{
			ID:            it.ID,
			ParentID:      it.ParentID,
			CatalogItemID: it.CatalogItemID,
			Width:         it.Width,
			Height:        it.Height,
			Quantity:      it.Quantity,
			Location:      it.Location,
		}
	}
	return resp
}
