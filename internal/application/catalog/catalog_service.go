package catalog

import (
	"context"
	"fmt"

	"github.com/fabtrack/backend/internal/domain/catalog"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService manages catalog items and measurement sheets
type CatalogService struct {
	itemRepo  catalog.CatalogItemRepository
	sheetRepo catalog.MeasurementSheetRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(itemRepo catalog.CatalogItemRepository, sheetRepo catalog.MeasurementSheetRepository) *CatalogService {
	return &CatalogService{itemRepo: itemRepo, sheetRepo: sheetRepo}
}

// CreateItem creates a catalog item
func (s *CatalogService) CreateItem(ctx context.Context, req CreateCatalogItemRequest) (*CatalogItemResponse, error) {
	item, err := catalog.NewCatalogItem(req.Code, req.Name, req.Category, catalog.UnitOfMeasure(req.Unit), req.UnitPrice)
	if err != nil {
		return nil, err
	}
	if req.NCM != "" || req.CFOP != "" || req.Origin != "" {
		item.SetFiscalInfo(catalog.FiscalInfo{NCM: req.NCM, CFOP: req.CFOP, Origin: req.Origin})
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Catalog item created",
		zap.String("catalog_item_id", item.ID.String()),
		zap.String("code", item.Code),
	)
	resp := ToCatalogItemResponse(item)
	return &resp, nil
}

// GetItem retrieves a catalog item
func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (*CatalogItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCatalogItemResponse(item)
	return &resp, nil
}

// ListItems retrieves catalog items with pagination
func (s *CatalogService) ListItems(ctx context.Context, filter CatalogItemListFilter) ([]CatalogItemResponse, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	f.Search = filter.Search

	items, err := s.itemRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	result := make([]CatalogItemResponse, len(items))
	for i := range items {
		result[i] = ToCatalogItemResponse(&items[i])
	}
	return result, nil
}

// ChangeItemPrice sets a new unit price. Quotes already priced are not repriced.
func (s *CatalogService) ChangeItemPrice(ctx context.Context, id uuid.UUID, req UpdateCatalogItemPriceRequest) (*CatalogItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := item.ChangePrice(req.UnitPrice); err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	resp := ToCatalogItemResponse(item)
	return &resp, nil
}

// CreateSheet records a measurement visit. Every line must reference an
// existing catalog item.
func (s *CatalogService) CreateSheet(ctx context.Context, req CreateMeasurementSheetRequest) (*MeasurementSheetResponse, error) {
	sheet, err := catalog.NewMeasurementSheet(req.CustomerID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.CatalogItemID)
	}
	found, err := s.itemRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load catalog items: %w", err)
	}
	known := catalog.NewCatalog(found)

	for i, it := range req.Items {
		if _, ok := known.Lookup(it.CatalogItemID); !ok {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Catalog item %s not found", it.CatalogItemID))
		}
		var parentID *uuid.UUID
		if it.ParentIndex != nil {
			if *it.ParentIndex >= i {
				return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Item %d must reference an earlier item as parent", i))
			}
			pid := sheet.Items[*it.ParentIndex].ID
			parentID = &pid
		}
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		if _, err := sheet.AddItem(it.CatalogItemID, parentID, it.Width, it.Height, qty, it.Location); err != nil {
			return nil, err
		}
	}

	if err := s.sheetRepo.Save(ctx, sheet); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Measurement sheet created",
		zap.String("sheet_id", sheet.ID.String()),
		zap.Int("items", len(sheet.Items)),
	)
	resp := ToMeasurementSheetResponse(sheet)
	return &resp, nil
}

// GetSheet retrieves a measurement sheet with its items
func (s *CatalogService) GetSheet(ctx context.Context, id uuid.UUID) (*MeasurementSheetResponse, error) {
	sheet, err := s.sheetRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMeasurementSheetResponse(sheet)
	return &resp, nil
}
