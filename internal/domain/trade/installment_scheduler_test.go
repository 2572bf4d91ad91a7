package trade

import (
	"fmt"
	"testing"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scheduleDay = time.Date(2024, time.January, 31, 12, 0, 0, 0, time.UTC)

func assertValues(t *testing.T, installments []Installment, values ...string) {
	t.Helper()
	require.Len(t, installments, len(values))
	for i, v := range values {
		assert.True(t, installments[i].Value.Equal(dec(v)), "installment %d: want %s got %s", i+1, v, installments[i].Value)
		assert.Equal(t, i+1, installments[i].Number)
		assert.Equal(t, InstallmentStatusPending, installments[i].Status)
	}
}

// ============================================
// Generate Tests
// ============================================

func TestInstallmentScheduler_Generate(t *testing.T) {
	s := NewInstallmentScheduler()

	t.Run("even split with remainder on last", func(t *testing.T) {
		got, err := s.Generate(dec("1000"), decimal.Zero, 3, PaymentMethodBoleto, scheduleDay)
		require.NoError(t, err)
		assertValues(t, got, "333.33", "333.33", "333.34")
		assert.Equal(t, PaymentMethodBoleto, got[2].Method)
	})

	t.Run("due dates are monthly and clamp to month end", func(t *testing.T) {
		got, err := s.Generate(dec("300"), decimal.Zero, 3, "", scheduleDay)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC), got[0].DueDate)
		assert.Equal(t, time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC), got[1].DueDate)
		assert.Equal(t, time.Date(2024, time.April, 30, 12, 0, 0, 0, time.UTC), got[2].DueDate)
	})

	t.Run("down payment is first installment due today", func(t *testing.T) {
		got, err := s.Generate(dec("1000"), dec("100"), 4, PaymentMethodPix, scheduleDay)
		require.NoError(t, err)
		assertValues(t, got, "100", "300", "300", "300")
		assert.Equal(t, scheduleDay, got[0].DueDate)
		assert.Equal(t, time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC), got[1].DueDate)
	})

	t.Run("down payment with single installment absorbs the remainder", func(t *testing.T) {
		got, err := s.Generate(dec("1000"), dec("200"), 1, PaymentMethodPix, scheduleDay)
		require.NoError(t, err)
		assertValues(t, got, "1000")
	})

	t.Run("down payment above total leaves zero placeholders", func(t *testing.T) {
		got, err := s.Generate(dec("100"), dec("150"), 3, PaymentMethodPix, scheduleDay)
		require.NoError(t, err)
		assertValues(t, got, "100", "0", "0")
	})

	t.Run("zero total", func(t *testing.T) {
		got, err := s.Generate(decimal.Zero, decimal.Zero, 2, "", scheduleDay)
		require.NoError(t, err)
		assertValues(t, got, "0", "0")
	})

	t.Run("validation", func(t *testing.T) {
		_, err := s.Generate(dec("100"), decimal.Zero, 0, "", scheduleDay)
		assertDomainCode(t, err, "INVALID_INSTALLMENT_COUNT")
		_, err = s.Generate(dec("-1"), decimal.Zero, 1, "", scheduleDay)
		assertDomainCode(t, err, "INVALID_AMOUNT")
		_, err = s.Generate(dec("100"), dec("-1"), 1, "", scheduleDay)
		assertDomainCode(t, err, "INVALID_AMOUNT")
		_, err = s.Generate(dec("100"), decimal.Zero, 1, PaymentMethod("BARTER"), scheduleDay)
		assertDomainCode(t, err, "INVALID_PAYMENT_METHOD")
	})
}

func TestInstallmentScheduler_Generate_SumInvariant(t *testing.T) {
	s := NewInstallmentScheduler()
	totals := []string{"0", "0.01", "1", "99.99", "100", "1000", "1234.57", "99999.99"}
	downs := []string{"0", "0.01", "10", "333.33", "5000"}

	for _, total := range totals {
		for _, down := range downs {
			for count := 1; count <= 12; count++ {
				name := fmt.Sprintf("%s/%s/%d", total, down, count)
				got, err := s.Generate(dec(total), dec(down), count, "", scheduleDay)
				require.NoError(t, err, name)
				assert.Len(t, got, count, name)

				sum := decimal.Zero
				for i, inst := range got {
					assert.Equal(t, i+1, inst.Number, name)
					assert.False(t, inst.Value.IsNegative(), name)
					sum = sum.Add(inst.Value)
				}
				assert.True(t, valueobject.WithinTolerance(sum, dec(total)), "%s: sum %s", name, sum)
			}
		}
	}
}

// ============================================
// Reschedule / EditInstallmentValue Tests
// ============================================

func TestInstallmentScheduler_Reschedule(t *testing.T) {
	s := NewInstallmentScheduler()

	t.Run("replaces the schedule", func(t *testing.T) {
		order := createTestOrder(t, "1000")
		first, err := s.Reschedule(order, decimal.Zero, 2, PaymentMethodPix, scheduleDay)
		require.NoError(t, err)
		second, err := s.Reschedule(first, dec("400"), 4, PaymentMethodBoleto, scheduleDay)
		require.NoError(t, err)

		assertValues(t, second.Installments, "400", "200", "200", "200")
		assert.Len(t, first.Installments, 2)
		assert.Empty(t, order.Installments)
		assert.NoError(t, second.CheckInvariants())
	})

	t.Run("rejects schedule with paid installments", func(t *testing.T) {
		order := createTestOrder(t, "1000")
		order.Installments = []Installment{{Number: 1, Value: dec("1000"), Status: InstallmentStatusPaid}}
		_, err := s.Reschedule(order, decimal.Zero, 2, "", scheduleDay)
		assertDomainCode(t, err, "INVALID_STATE")
	})

	t.Run("propagates validation", func(t *testing.T) {
		_, err := s.Reschedule(createTestOrder(t, "1000"), decimal.Zero, 0, "", scheduleDay)
		assertDomainCode(t, err, "INVALID_INSTALLMENT_COUNT")
	})
}

func TestInstallmentScheduler_EditInstallmentValue(t *testing.T) {
	s := NewInstallmentScheduler()
	order, err := s.Reschedule(createTestOrder(t, "1000"), decimal.Zero, 3, "", scheduleDay)
	require.NoError(t, err)

	t.Run("total follows the installments", func(t *testing.T) {
		edited, err := s.EditInstallmentValue(order, 1, dec("400"))
		require.NoError(t, err)
		assert.True(t, edited.Total.Equal(dec("1066.67")))
		assert.NoError(t, edited.CheckInvariants())
		assert.True(t, order.Total.Equal(dec("1000")))
		assert.True(t, order.Installments[0].Value.Equal(dec("333.33")))
	})

	t.Run("unknown installment", func(t *testing.T) {
		_, err := s.EditInstallmentValue(order, 9, dec("1"))
		assertDomainCode(t, err, "NOT_FOUND")
	})

	t.Run("negative value", func(t *testing.T) {
		_, err := s.EditInstallmentValue(order, 1, dec("-1"))
		assertDomainCode(t, err, "INVALID_AMOUNT")
	})

	t.Run("paid installment", func(t *testing.T) {
		paid := order.Clone()
		require.NoError(t, paid.MarkInstallmentPaid(1, scheduleDay, dec("333.33"), "", ""))
		_, err := s.EditInstallmentValue(paid, 1, dec("1"))
		assertDomainCode(t, err, "INSTALLMENT_ALREADY_PAID")
	})
}

func TestOrder_MarkInstallmentPaidAndPending(t *testing.T) {
	s := NewInstallmentScheduler()
	order, err := s.Reschedule(createTestOrder(t, "1000"), decimal.Zero, 2, PaymentMethodBoleto, scheduleDay)
	require.NoError(t, err)

	require.NoError(t, order.MarkInstallmentPaid(1, scheduleDay, dec("480"), "NF-1", PaymentMethodPix))
	inst := order.Installments[0]
	assert.True(t, inst.IsPaid())
	january := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, inst.PaidBetween(january, january.AddDate(0, 1, 0)))
	assert.False(t, inst.PaidBetween(january.AddDate(0, 1, 0), january.AddDate(0, 2, 0)))
	assert.False(t, inst.PaidBetween(scheduleDay.Add(time.Nanosecond), january.AddDate(0, 1, 0)))
	assert.Equal(t, PaymentMethodPix, inst.Method)
	assert.Equal(t, "NF-1", inst.FiscalRef)

	assertDomainCode(t, order.MarkInstallmentPaid(1, scheduleDay, dec("1"), "", ""), "INSTALLMENT_ALREADY_PAID")
	assertDomainCode(t, order.MarkInstallmentPaid(7, scheduleDay, dec("1"), "", ""), "NOT_FOUND")

	require.NoError(t, order.MarkInstallmentPending(1))
	inst = order.Installments[0]
	assert.False(t, inst.IsPaid())
	assert.Nil(t, inst.PaymentDate)
	assert.Nil(t, inst.NetValue)
	assert.Empty(t, inst.FiscalRef)
	assert.Equal(t, PaymentMethodPix, inst.Method)

	assertDomainCode(t, order.MarkInstallmentPending(1), "INSTALLMENT_NOT_PAID")
}

func TestAddMonths(t *testing.T) {
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
		addMonths(time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), 1))
	assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		addMonths(time.Date(2024, time.November, 15, 0, 0, 0, 0, time.UTC), 2))
}
