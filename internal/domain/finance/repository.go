package finance

import (
	"context"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/google/uuid"
)

// ExpenseFilter narrows expense listings
type ExpenseFilter struct {
	shared.Filter
	OrderID  *uuid.UUID
	Category *ExpenseCategory
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	// FindByOrder finds all expenses booked against an order, oldest first
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Expense, error)

	// FindAll finds all expenses matching the filter
	FindAll(ctx context.Context, filter ExpenseFilter) ([]Expense, error)

	// Save creates or updates an expense
	Save(ctx context.Context, expense *Expense) error
}

// SettlementStore persists a settled order and its optional shortfall
// expense in one transaction: both are stored or neither is.
type SettlementStore interface {
	SaveSettlement(ctx context.Context, order *trade.Order, expense *Expense) error
}
