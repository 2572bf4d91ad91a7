package persistence

import (
	"context"
	"errors"

	"github.com/fabtrack/backend/internal/domain/catalog"
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCatalogItemRepository implements catalog.CatalogItemRepository using GORM
type GormCatalogItemRepository struct {
	db *gorm.DB
}

// NewGormCatalogItemRepository creates a new GormCatalogItemRepository
func NewGormCatalogItemRepository(db *gorm.DB) *GormCatalogItemRepository {
	return &GormCatalogItemRepository{db: db}
}

// FindByID finds a catalog item by its ID
func (r *GormCatalogItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.CatalogItem, error) {
	var model models.CatalogItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple catalog items by their IDs. Unknown IDs are skipped.
func (r *GormCatalogItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.CatalogItem, error) {
	if len(ids) == 0 {
		return []catalog.CatalogItem{}, nil
	}
	var rows []models.CatalogItemModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]catalog.CatalogItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// FindAll finds all catalog items matching the filter
func (r *GormCatalogItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.CatalogItem, error) {
	query := r.db.WithContext(ctx).Model(&models.CatalogItemModel{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", like, like)
	}
	if category, ok := filter.Filters["category"].(string); ok && category != "" {
		query = query.Where("category = ?", category)
	}
	if active, ok := filter.Filters["active"].(bool); ok {
		query = query.Where("active = ?", active)
	}
	query = applyPaging(query, filter, CatalogItemSortFields, "code")

	var rows []models.CatalogItemModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]catalog.CatalogItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// Save creates or updates a catalog item
func (r *GormCatalogItemRepository) Save(ctx context.Context, item *catalog.CatalogItem) error {
	return r.db.WithContext(ctx).Save(models.CatalogItemModelFromDomain(item)).Error
}

// GormMeasurementSheetRepository implements catalog.MeasurementSheetRepository using GORM
type GormMeasurementSheetRepository struct {
	db *gorm.DB
}

// NewGormMeasurementSheetRepository creates a new GormMeasurementSheetRepository
func NewGormMeasurementSheetRepository(db *gorm.DB) *GormMeasurementSheetRepository {
	return &GormMeasurementSheetRepository{db: db}
}

func (r *GormMeasurementSheetRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

// FindByID finds a sheet with its items
func (r *GormMeasurementSheetRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.MeasurementSheet, error) {
	var model models.MeasurementSheetModel
	if err := r.preloaded(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple sheets with their items
func (r *GormMeasurementSheetRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.MeasurementSheet, error) {
	if len(ids) == 0 {
		return []catalog.MeasurementSheet{}, nil
	}
	var rows []models.MeasurementSheetModel
	if err := r.preloaded(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	sheets := make([]catalog.MeasurementSheet, len(rows))
	for i := range rows {
		sheets[i] = *rows[i].ToDomain()
	}
	return sheets, nil
}

// Save creates or updates a sheet and replaces its items
func (r *GormMeasurementSheetRepository) Save(ctx context.Context, sheet *catalog.MeasurementSheet) error {
	model := models.MeasurementSheetModelFromDomain(sheet)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("sheet_id = ?", sheet.ID).Delete(&models.MeasuredItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	})
}

var (
	_ catalog.CatalogItemRepository      = (*GormCatalogItemRepository)(nil)
	_ catalog.MeasurementSheetRepository = (*GormMeasurementSheetRepository)(nil)
)
