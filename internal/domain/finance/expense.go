package finance

import (
	"strings"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory represents the category of an expense
type ExpenseCategory string

const (
	ExpenseCategoryTax      ExpenseCategory = "TAX"
	ExpenseCategoryFee      ExpenseCategory = "FEE"
	ExpenseCategoryDiscount ExpenseCategory = "DISCOUNT"
	ExpenseCategoryOther    ExpenseCategory = "OTHER"
)

// IsValid checks if the category is a valid ExpenseCategory
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryTax, ExpenseCategoryFee, ExpenseCategoryDiscount, ExpenseCategoryOther:
		return true
	}
	return false
}

// String returns the string representation of ExpenseCategory
func (c ExpenseCategory) String() string {
	return string(c)
}

// Expense is a cost booked against an order installment
type Expense struct {
	shared.BaseAggregateRoot
	OrderID           uuid.UUID
	InstallmentNumber int
	Description       string
	Value             decimal.Decimal
	Date              time.Time
	Category          ExpenseCategory
}

// NewExpense creates a new expense. The value is rounded to cents.
func NewExpense(orderID uuid.UUID, installmentNumber int, description string, value decimal.Decimal, date time.Time, category ExpenseCategory) (*Expense, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if installmentNumber < 1 {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT", "Installment number must be at least 1")
	}
	if strings.TrimSpace(description) == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Expense description cannot be empty")
	}
	if !value.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense value must be positive")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Invalid expense category")
	}

	expense := &Expense{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		InstallmentNumber: installmentNumber,
		Description:       description,
		Value:             valueobject.Round2(value),
		Date:              date,
		Category:          category,
	}
	return expense, nil
}
