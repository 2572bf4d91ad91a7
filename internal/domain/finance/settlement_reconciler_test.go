package finance

import (
	"fmt"
	"testing"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paymentDay = time.Date(2024, time.March, 15, 14, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// scheduledOrder returns an order of 1000 split into two installments of 500
func scheduledOrder(t *testing.T) *trade.Order {
	t.Helper()
	order, err := trade.NewOrder("PED-2024-00042", uuid.New(), uuid.New(), uuid.New(), dec("1000"))
	require.NoError(t, err)
	order, err = trade.NewInstallmentScheduler().Reschedule(order, decimal.Zero, 2, trade.PaymentMethodBoleto, paymentDay)
	require.NoError(t, err)
	return order
}

// ============================================
// Settle Tests
// ============================================

func TestSettlementReconciler_Settle(t *testing.T) {
	r := NewSettlementReconciler()

	t.Run("shortfall books one FEE expense", func(t *testing.T) {
		order := scheduledOrder(t)
		settled, expense, err := r.Settle(order, 1, paymentDay, dec("480"), "NF-123", trade.PaymentMethodCreditCard)
		require.NoError(t, err)

		inst := settled.Installments[0]
		assert.True(t, inst.IsPaid())
		assert.Equal(t, paymentDay, *inst.PaymentDate)
		assert.True(t, inst.NetValue.Equal(dec("480")))
		assert.Equal(t, "NF-123", inst.FiscalRef)
		assert.Equal(t, trade.PaymentMethodCreditCard, inst.Method)

		require.NotNil(t, expense)
		assert.Equal(t, ExpenseCategoryFee, expense.Category)
		assert.True(t, expense.Value.Equal(dec("20")))
		assert.Equal(t, "20.00", expense.Value.StringFixed(2))
		assert.Equal(t, paymentDay, expense.Date)
		assert.Equal(t, order.ID, expense.OrderID)
		assert.Equal(t, 1, expense.InstallmentNumber)
		assert.Contains(t, expense.Description, "PED-2024-00042")
		assert.Contains(t, expense.Description, "1")
		require.Len(t, expense.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeShortfallExpenseBooked, expense.GetDomainEvents()[0].EventType())

		// input untouched
		assert.False(t, order.Installments[0].IsPaid())
	})

	t.Run("full payment books nothing", func(t *testing.T) {
		settled, expense, err := r.Settle(scheduledOrder(t), 1, paymentDay, dec("500"), "", "")
		require.NoError(t, err)
		assert.Nil(t, expense)
		assert.True(t, settled.Installments[0].IsPaid())
		assert.Equal(t, trade.PaymentMethodBoleto, settled.Installments[0].Method)
	})

	t.Run("overpayment books nothing", func(t *testing.T) {
		_, expense, err := r.Settle(scheduledOrder(t), 2, paymentDay, dec("510"), "", "")
		require.NoError(t, err)
		assert.Nil(t, expense)
	})

	t.Run("shortfall is rounded to cents", func(t *testing.T) {
		_, expense, err := r.Settle(scheduledOrder(t), 1, paymentDay, dec("485.555"), "", "")
		require.NoError(t, err)
		require.NotNil(t, expense)
		assert.Equal(t, "14.45", expense.Value.StringFixed(2))
		assert.True(t, expense.Value.Equal(dec("14.45")))
	})

	t.Run("shortfall below half a cent books nothing", func(t *testing.T) {
		_, expense, err := r.Settle(scheduledOrder(t), 1, paymentDay, dec("499.996"), "", "")
		require.NoError(t, err)
		assert.Nil(t, expense)
	})

	t.Run("unknown installment", func(t *testing.T) {
		_, _, err := r.Settle(scheduledOrder(t), 3, paymentDay, dec("500"), "", "")
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", shared.ErrorCode(err))
	})

	t.Run("negative net value", func(t *testing.T) {
		_, _, err := r.Settle(scheduledOrder(t), 1, paymentDay, dec("-1"), "", "")
		assert.Equal(t, "INVALID_AMOUNT", shared.ErrorCode(err))
	})

	t.Run("already paid", func(t *testing.T) {
		settled, _, err := r.Settle(scheduledOrder(t), 1, paymentDay, dec("500"), "", "")
		require.NoError(t, err)
		_, _, err = r.Settle(settled, 1, paymentDay, dec("400"), "", "")
		assert.Equal(t, "INSTALLMENT_ALREADY_PAID", shared.ErrorCode(err))
	})

	t.Run("custom description", func(t *testing.T) {
		custom := NewSettlementReconciler(WithShortfallDescription(func(n string, i int) string {
			return fmt.Sprintf("Card fee %s/%d", n, i)
		}))
		_, expense, err := custom.Settle(scheduledOrder(t), 2, paymentDay, dec("490"), "", "")
		require.NoError(t, err)
		assert.Equal(t, "Card fee PED-2024-00042/2", expense.Description)
	})
}

// ============================================
// Unsettle Tests
// ============================================

func TestSettlementReconciler_Unsettle(t *testing.T) {
	r := NewSettlementReconciler()
	settled, expense, err := r.Settle(scheduledOrder(t), 1, paymentDay, dec("480"), "NF-1", "")
	require.NoError(t, err)
	require.NotNil(t, expense)

	reverted, err := r.Unsettle(settled, 1)
	require.NoError(t, err)
	inst := reverted.Installments[0]
	assert.Equal(t, trade.InstallmentStatusPending, inst.Status)
	assert.Nil(t, inst.PaymentDate)
	assert.Nil(t, inst.NetValue)
	assert.Empty(t, inst.FiscalRef)
	assert.True(t, settled.Installments[0].IsPaid())

	_, err = r.Unsettle(reverted, 1)
	assert.Equal(t, "INSTALLMENT_NOT_PAID", shared.ErrorCode(err))
	_, err = r.Unsettle(reverted, 5)
	assert.Equal(t, "NOT_FOUND", shared.ErrorCode(err))
}

func TestNewExpense(t *testing.T) {
	orderID := uuid.New()

	e, err := NewExpense(orderID, 1, "Fee", dec("10.005"), paymentDay, ExpenseCategoryFee)
	require.NoError(t, err)
	assert.Equal(t, "10.01", e.Value.StringFixed(2))

	_, err = NewExpense(uuid.Nil, 1, "Fee", dec("1"), paymentDay, ExpenseCategoryFee)
	assert.Error(t, err)
	_, err = NewExpense(orderID, 0, "Fee", dec("1"), paymentDay, ExpenseCategoryFee)
	assert.Error(t, err)
	_, err = NewExpense(orderID, 1, " ", dec("1"), paymentDay, ExpenseCategoryFee)
	assert.Error(t, err)
	_, err = NewExpense(orderID, 1, "Fee", decimal.Zero, paymentDay, ExpenseCategoryFee)
	assert.Error(t, err)
	_, err = NewExpense(orderID, 1, "Fee", dec("1"), paymentDay, ExpenseCategory("RENT"))
	assert.Error(t, err)
}
