package trade

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the payment status of an installment
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING"
	InstallmentStatusPaid    InstallmentStatus = "PAID"
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	return s == InstallmentStatusPending || s == InstallmentStatusPaid
}

// PaymentMethod is how an installment is (or is expected to be) paid
type PaymentMethod string

const (
	PaymentMethodPix          PaymentMethod = "PIX"
	PaymentMethodBoleto       PaymentMethod = "BOLETO"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheck        PaymentMethod = "CHECK"
)

// IsValid returns true for a known method. The empty method means "not set".
func (m PaymentMethod) IsValid() bool {
	switch m {
	case "", PaymentMethodPix, PaymentMethodBoleto, PaymentMethodCreditCard, PaymentMethodDebitCard,
		PaymentMethodBankTransfer, PaymentMethodCash, PaymentMethodCheck:
		return true
	}
	return false
}

// Installment is one scheduled payment of an order
type Installment struct {
	Number      int
	DueDate     time.Time
	Value       decimal.Decimal
	Status      InstallmentStatus
	PaymentDate *time.Time
	NetValue    *decimal.Decimal
	FiscalRef   string
	Method      PaymentMethod
}

// IsPaid returns true if the installment has been settled
func (i Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// PaidBetween reports whether the installment was paid within [from, to).
// Instants are compared, so the zone PaymentDate was loaded in is irrelevant.
func (i Installment) PaidBetween(from, to time.Time) bool {
	if !i.IsPaid() || i.PaymentDate == nil {
		return false
	}
	return !i.PaymentDate.Before(from) && i.PaymentDate.Before(to)
}

func (i Installment) clone() Installment {
	c := i
	c.PaymentDate = cloneTime(i.PaymentDate)
	if i.NetValue != nil {
		v := *i.NetValue
		c.NetValue = &v
	}
	return c
}

// markPaid records a settlement on the installment
func (i *Installment) markPaid(paymentDate time.Time, netValue decimal.Decimal, fiscalRef string, method PaymentMethod) {
	i.Status = InstallmentStatusPaid
	i.PaymentDate = &paymentDate
	i.NetValue = &netValue
	i.FiscalRef = fiscalRef
	if method != "" {
		i.Method = method
	}
}

// markPending reverts a settlement. The payment method is kept as the
// expected method.
func (i *Installment) markPending() {
	i.Status = InstallmentStatusPending
	i.PaymentDate = nil
	i.NetValue = nil
	i.FiscalRef = ""
}
