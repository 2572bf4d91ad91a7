package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/fabtrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") })
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.preloaded(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll finds all orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter trade.OrderFilter) ([]trade.Order, error) {
	query := r.applyFilter(r.preloaded(ctx).Model(&models.OrderModel{}), filter)
	query = applyPaging(query, filter.Filter, OrderSortFields, "created_at")

	var rows []models.OrderModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(rows)
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter trade.OrderFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter).Count(&count).Error
	return count, err
}

// FindPaidBetween finds orders holding at least one installment paid in [from, to)
func (r *GormOrderRepository) FindPaidBetween(ctx context.Context, from, to time.Time) ([]trade.Order, error) {
	paid := r.db.WithContext(ctx).
		Model(&models.InstallmentModel{}).
		Select("order_id").
		Where("status = ? AND payment_date >= ? AND payment_date < ?", trade.InstallmentStatusPaid, from, to)

	var rows []models.OrderModel
	if err := r.preloaded(ctx).
		Where("id IN (?)", paid).
		Order("order_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(rows)
}

// Save creates or updates an order.
// Updates must carry the stored version; the stored version is bumped on success.
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	var version int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		version, err = saveOrderTx(tx, order)
		return err
	})
	if err != nil {
		return err
	}
	order.Version = version
	return nil
}

// saveOrderTx writes the order inside tx and returns the version now stored.
func saveOrderTx(tx *gorm.DB, order *trade.Order) (int, error) {
	if err := order.CheckInvariants(); err != nil {
		return 0, err
	}
	model, err := models.OrderModelFromDomain(order)
	if err != nil {
		return 0, fmt.Errorf("encode order %s: %w", order.ID, err)
	}

	var current models.OrderModel
	err = tx.Select("id", "version").Where("id = ?", order.ID).First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := tx.Create(model).Error; err != nil {
			return 0, err
		}
		return model.Version, nil
	}
	if err != nil {
		return 0, err
	}

	if current.Version != order.Version {
		return 0, shared.ErrConcurrencyConflict
	}

	var storedHistory int64
	if err := tx.Model(&models.StageHistoryModel{}).Where("order_id = ?", order.ID).Count(&storedHistory).Error; err != nil {
		return 0, err
	}
	if int(storedHistory) > len(model.History) {
		return 0, shared.NewDomainError("INVARIANT_VIOLATION", "Production history cannot shrink")
	}

	next := current.Version + 1
	result := tx.Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", order.ID, current.Version).
		Updates(map[string]any{
			"selected_item_ids": model.SelectedItemIDsJSON,
			"price_overrides":   model.PriceOverridesJSON,
			"status":            model.Status,
			"current_stage":     model.CurrentStage,
			"total":             model.Total,
			"delivery_days":     model.DeliveryDays,
			"delivery_deadline": model.DeliveryDeadline,
			"confirmed_at":      model.ConfirmedAt,
			"cancelled_at":      model.CancelledAt,
			"cancel_reason":     model.CancelReason,
			"notes":             model.Notes,
			"version":           next,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrConcurrencyConflict
	}

	if err := tx.Where("order_id = ?", order.ID).Delete(&models.InstallmentModel{}).Error; err != nil {
		return 0, err
	}
	if len(model.Installments) > 0 {
		if err := tx.Create(&model.Installments).Error; err != nil {
			return 0, err
		}
	}

	if appended := model.History[storedHistory:]; len(appended) > 0 {
		if err := tx.Create(&appended).Error; err != nil {
			return 0, err
		}
	}
	return next, nil
}

// Delete deletes an order with its schedule and history
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.InstallmentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.StageHistoryModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.OrderModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// nextOrderNumberSQL bumps the per-year counter in one statement, so
// concurrent callers never read the same value
const nextOrderNumberSQL = `INSERT INTO order_number_sequences (year, last_value) VALUES (?, 1)
ON CONFLICT (year) DO UPDATE SET last_value = order_number_sequences.last_value + 1
RETURNING last_value`

// GenerateOrderNumber generates the next order number of the current year
// Format: PED-YYYY-NNNNN (e.g., PED-2026-00001)
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	var next int
	if err := r.db.WithContext(ctx).Raw(nextOrderNumberSQL, year).Scan(&next).Error; err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	if next < 1 {
		return "", fmt.Errorf("next order number: counter for %d returned %d", year, next)
	}
	return fmt.Sprintf("PED-%d-%05d", year, next), nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter trade.OrderFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("order_number LIKE ?", "%"+filter.Search+"%")
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Stage != nil {
		query = query.Where("current_stage = ?", *filter.Stage)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	return query
}

func toDomainOrders(rows []models.OrderModel) ([]trade.Order, error) {
	orders := make([]trade.Order, 0, len(rows))
	for i := range rows {
		order, err := rows[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("decode order %s: %w", rows[i].ID, err)
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// Ensure GormOrderRepository implements trade.OrderRepository
var _ trade.OrderRepository = (*GormOrderRepository)(nil)
