package models

import (
	"time"

	"github.com/fabtrack/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseModel is the persistence model for the Expense aggregate root.
type ExpenseModel struct {
	AggregateModel
	OrderID           uuid.UUID               `gorm:"type:uuid;not null;index"`
	InstallmentNumber int                     `gorm:"not null;default:0"`
	Description       string                  `gorm:"type:varchar(500);not null"`
	Value             decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	Date              time.Time               `gorm:"not null;index"`
	Category          finance.ExpenseCategory `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense.
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderID:           m.OrderID,
		InstallmentNumber: m.InstallmentNumber,
		Description:       m.Description,
		Value:             m.Value,
		Date:              m.Date,
		Category:          m.Category,
	}
}

// ExpenseModelFromDomain creates a new persistence model from a domain Expense.
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{
		OrderID:           e.OrderID,
		InstallmentNumber: e.InstallmentNumber,
		Description:       e.Description,
		Value:             e.Value,
		Date:              e.Date,
		Category:          e.Category,
	}
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	return m
}
