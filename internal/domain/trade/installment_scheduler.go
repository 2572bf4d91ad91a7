package trade

import (
	"fmt"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InstallmentScheduler builds and edits payment schedules
type InstallmentScheduler struct{}

// NewInstallmentScheduler creates a new InstallmentScheduler
func NewInstallmentScheduler() *InstallmentScheduler {
	return &InstallmentScheduler{}
}

// Generate splits total into count installments. A positive down payment is
// installment #1, due today; the remainder is split evenly over the other
// installments, due monthly from today, with the last one absorbing the
// rounding difference.
func (s *InstallmentScheduler) Generate(total, downPayment decimal.Decimal, count int, method PaymentMethod, today time.Time) ([]Installment, error) {
	if count < 1 {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_COUNT", "Installment count must be at least 1")
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total cannot be negative")
	}
	if downPayment.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Down payment cannot be negative")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %s", method))
	}

	remaining := decimal.Max(total.Sub(downPayment), decimal.Zero)
	installments := make([]Installment, 0, count)

	n := count
	if downPayment.IsPositive() {
		n = count - 1
		down := decimal.Min(downPayment, total)
		if n == 0 {
			// no slot left for the remainder
			down = total
		}
		installments = append(installments, Installment{
			Number:  1,
			DueDate: today,
			Value:   down,
			Status:  InstallmentStatusPending,
			Method:  method,
		})
	}
	if n == 0 {
		return installments, nil
	}

	each := valueobject.Round2(remaining.Div(decimal.NewFromInt(int64(n))))
	allocated := decimal.Zero
	for i := 1; i <= n; i++ {
		value := each
		if i == n {
			value = remaining.Sub(allocated)
		}
		allocated = allocated.Add(value)
		installments = append(installments, Installment{
			Number:  len(installments) + 1,
			DueDate: addMonths(today, i),
			Value:   value,
			Status:  InstallmentStatusPending,
			Method:  method,
		})
	}
	return installments, nil
}

// Reschedule returns a copy of the order with its schedule fully replaced by
// a newly generated one over the order total
func (s *InstallmentScheduler) Reschedule(order *Order, downPayment decimal.Decimal, count int, method PaymentMethod, today time.Time) (*Order, error) {
	if !order.CanReprice() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot schedule installments for order in %s status", order.Status))
	}
	if order.HasPaidInstallments() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot replace a schedule that has paid installments")
	}
	installments, err := s.Generate(order.Total, downPayment, count, method, today)
	if err != nil {
		return nil, err
	}

	result := order.Clone()
	result.Installments = installments
	result.UpdatedAt = time.Now()
	result.AddDomainEvent(NewInstallmentsScheduledEvent(result))
	return result, nil
}

// EditInstallmentValue returns a copy of the order with one installment's
// value changed. The order total follows the new sum of installments.
func (s *InstallmentScheduler) EditInstallmentValue(order *Order, number int, value decimal.Decimal) (*Order, error) {
	if value.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Installment value cannot be negative")
	}
	if !order.CanReprice() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit installments of order in %s status", order.Status))
	}
	idx, ok := order.FindInstallment(number)
	if !ok {
		return nil, installmentNotFound(number)
	}
	if order.Installments[idx].IsPaid() {
		return nil, shared.NewDomainError("INSTALLMENT_ALREADY_PAID", fmt.Sprintf("Installment %d is already paid", number))
	}

	result := order.Clone()
	result.Installments[idx].Value = value
	previous := result.Total
	result.Total = result.InstallmentsTotal()
	result.UpdatedAt = time.Now()
	if !previous.Equal(result.Total) {
		result.AddDomainEvent(NewOrderTotalChangedEvent(result, previous, "installment edited"))
	}
	return result, nil
}

// MarkInstallmentPaid records a settlement on installment number
func (o *Order) MarkInstallmentPaid(number int, paymentDate time.Time, netValue decimal.Decimal, fiscalRef string, method PaymentMethod) error {
	if o.IsCancelled() {
		return shared.NewDomainError("INVALID_STATE", "Cannot settle installments of a cancelled order")
	}
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %s", method))
	}
	idx, ok := o.FindInstallment(number)
	if !ok {
		return installmentNotFound(number)
	}
	if o.Installments[idx].IsPaid() {
		return shared.NewDomainError("INSTALLMENT_ALREADY_PAID", fmt.Sprintf("Installment %d is already paid", number))
	}
	o.Installments[idx].markPaid(paymentDate, netValue, fiscalRef, method)
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewInstallmentSettledEvent(o, o.Installments[idx]))
	return nil
}

// MarkInstallmentPending reverts the settlement of installment number
func (o *Order) MarkInstallmentPending(number int) error {
	idx, ok := o.FindInstallment(number)
	if !ok {
		return installmentNotFound(number)
	}
	if !o.Installments[idx].IsPaid() {
		return shared.NewDomainError("INSTALLMENT_NOT_PAID", fmt.Sprintf("Installment %d is not paid", number))
	}
	o.Installments[idx].markPending()
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewInstallmentUnsettledEvent(o, number))
	return nil
}

// addMonths adds calendar months, clamping the day to the end of the
// target month (Jan 31 + 1 month = Feb 28/29)
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func installmentNotFound(number int) error {
	return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Installment %d not found", number))
}
