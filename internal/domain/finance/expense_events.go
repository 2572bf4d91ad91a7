package finance

import (
	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeExpense = "Expense"

// Event type constants
const (
	EventTypeShortfallExpenseBooked = "ShortfallExpenseBooked"
)

// ShortfallExpenseBookedEvent is raised when a settlement books a fee
type ShortfallExpenseBookedEvent struct {
	shared.BaseDomainEvent
	ExpenseID         uuid.UUID       `json:"expense_id"`
	OrderID           uuid.UUID       `json:"order_id"`
	OrderNumber       string          `json:"order_number"`
	InstallmentNumber int             `json:"installment_number"`
	Value             decimal.Decimal `json:"value"`
}

// NewShortfallExpenseBookedEvent creates a new ShortfallExpenseBookedEvent
func NewShortfallExpenseBookedEvent(expense *Expense, orderNumber string) *ShortfallExpenseBookedEvent {
	return &ShortfallExpenseBookedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeShortfallExpenseBooked, AggregateTypeExpense, expense.ID, expense.Date),
		ExpenseID:         expense.ID,
		OrderID:           expense.OrderID,
		OrderNumber:       orderNumber,
		InstallmentNumber: expense.InstallmentNumber,
		Value:             expense.Value,
	}
}
