package finance

import (
	"fmt"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/shared/valueobject"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// DescribeShortfall builds the description of a shortfall expense
type DescribeShortfall func(orderNumber string, installmentNumber int) string

// SettlementReconciler marks installments paid and books the difference
// between gross and net received as a fee expense
type SettlementReconciler struct {
	describe DescribeShortfall
	category ExpenseCategory
}

// SettlementReconcilerOption is a functional option for configuring SettlementReconciler
type SettlementReconcilerOption func(*SettlementReconciler)

// WithShortfallDescription overrides how shortfall expenses are described
func WithShortfallDescription(fn DescribeShortfall) SettlementReconcilerOption {
	return func(r *SettlementReconciler) {
		if fn != nil {
			r.describe = fn
		}
	}
}

// NewSettlementReconciler creates a new SettlementReconciler
func NewSettlementReconciler(opts ...SettlementReconcilerOption) *SettlementReconciler {
	r := &SettlementReconciler{
		describe: func(orderNumber string, installmentNumber int) string {
			return fmt.Sprintf("Payment fee - order %s installment %d", orderNumber, installmentNumber)
		},
		category: ExpenseCategoryFee,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Settle returns a copy of the order with the installment marked paid, and
// the FEE expense for gross minus net when that difference is positive.
func (r *SettlementReconciler) Settle(order *trade.Order, number int, paymentDate time.Time, netValue decimal.Decimal, fiscalRef string, method trade.PaymentMethod) (*trade.Order, *Expense, error) {
	if netValue.IsNegative() {
		return nil, nil, shared.NewDomainError("INVALID_AMOUNT", "Net value cannot be negative")
	}
	idx, ok := order.FindInstallment(number)
	if !ok {
		return nil, nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Installment %d not found", number))
	}
	gross := order.Installments[idx].Value

	result := order.Clone()
	if err := result.MarkInstallmentPaid(number, paymentDate, netValue, fiscalRef, method); err != nil {
		return nil, nil, err
	}

	shortfall := valueobject.Round2(gross.Sub(netValue))
	if !shortfall.IsPositive() {
		return result, nil, nil
	}

	expense, err := NewExpense(order.ID, number, r.describe(order.OrderNumber, number), shortfall, paymentDate, r.category)
	if err != nil {
		return nil, nil, err
	}
	expense.AddDomainEvent(NewShortfallExpenseBookedEvent(expense, order.OrderNumber))
	return result, expense, nil
}

// Unsettle returns a copy of the order with the installment back to
// PENDING. A fee expense booked when it was settled is left in place.
func (r *SettlementReconciler) Unsettle(order *trade.Order, number int) (*trade.Order, error) {
	result := order.Clone()
	if err := result.MarkInstallmentPending(number); err != nil {
		return nil, err
	}
	return result, nil
}
