package persistence

import (
	"context"

	"github.com/fabtrack/backend/internal/domain/finance"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/fabtrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByOrder finds all expenses booked against an order, oldest first
func (r *GormExpenseRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]finance.Expense, error) {
	var rows []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("date ASC").Order("installment_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainExpenses(rows), nil
}

// FindAll finds all expenses matching the filter
func (r *GormExpenseRepository) FindAll(ctx context.Context, filter finance.ExpenseFilter) ([]finance.Expense, error) {
	query := r.db.WithContext(ctx).Model(&models.ExpenseModel{})
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Search != "" {
		query = query.Where("description LIKE ?", "%"+filter.Search+"%")
	}
	query = applyPaging(query, filter.Filter, ExpenseSortFields, "date")

	var rows []models.ExpenseModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainExpenses(rows), nil
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	return r.db.WithContext(ctx).Save(models.ExpenseModelFromDomain(expense)).Error
}

func toDomainExpenses(rows []models.ExpenseModel) []finance.Expense {
	expenses := make([]finance.Expense, len(rows))
	for i := range rows {
		expenses[i] = *rows[i].ToDomain()
	}
	return expenses
}

// GormSettlementStore persists a settled order together with its shortfall
// expense in a single transaction
type GormSettlementStore struct {
	db *gorm.DB
}

// NewGormSettlementStore creates a new GormSettlementStore
func NewGormSettlementStore(db *gorm.DB) *GormSettlementStore {
	return &GormSettlementStore{db: db}
}

// SaveSettlement stores the order and, when present, the expense. Either
// both are committed or neither is.
func (s *GormSettlementStore) SaveSettlement(ctx context.Context, order *trade.Order, expense *finance.Expense) error {
	var version int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if version, err = saveOrderTx(tx, order); err != nil {
			return err
		}
		if expense == nil {
			return nil
		}
		return tx.Create(models.ExpenseModelFromDomain(expense)).Error
	})
	if err != nil {
		return err
	}
	order.Version = version
	return nil
}

var (
	_ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
	_ finance.SettlementStore   = (*GormSettlementStore)(nil)
)
