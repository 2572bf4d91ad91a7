package catalog

import (
	"context"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CatalogItemRepository defines the interface for catalog item persistence
type CatalogItemRepository interface {
	// FindByID finds a catalog item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*CatalogItem, error)

	// FindByIDs finds multiple catalog items by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]CatalogItem, error)

	// FindAll finds all catalog items matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]CatalogItem, error)

	// Save creates or updates a catalog item
	Save(ctx context.Context, item *CatalogItem) error
}

// MeasurementSheetRepository defines the interface for measurement sheet persistence
type MeasurementSheetRepository interface {
	// FindByID finds a sheet with its items
	FindByID(ctx context.Context, id uuid.UUID) (*MeasurementSheet, error)

	// FindByIDs finds multiple sheets with their items
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]MeasurementSheet, error)

	// Save creates or updates a sheet and replaces its items
	Save(ctx context.Context, sheet *MeasurementSheet) error
}
