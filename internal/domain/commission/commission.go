package commission

import (
	"sort"
	"time"

	"github.com/fabtrack/backend/internal/domain/shared/valueobject"
	"github.com/fabtrack/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seller is read-only reference data for commission statements
type Seller struct {
	ID     uuid.UUID
	Name   string
	Email  string
	Active bool
}

// Rates holds the discount tiers. A discount ratio above HighDiscountThreshold
// earns HighDiscountRate, any other positive discount earns LowDiscountRate
// and no discount earns FullPriceRate.
type Rates struct {
	HighDiscountThreshold decimal.Decimal
	HighDiscountRate      decimal.Decimal
	LowDiscountRate       decimal.Decimal
	FullPriceRate         decimal.Decimal
}

// DefaultRates returns the standard tiers: 4%, 7% and 10% split at a 10% discount
func DefaultRates() Rates {
	return Rates{
		HighDiscountThreshold: decimal.NewFromFloat(0.10),
		HighDiscountRate:      decimal.NewFromFloat(0.04),
		LowDiscountRate:       decimal.NewFromFloat(0.07),
		FullPriceRate:         decimal.NewFromFloat(0.10),
	}
}

// Line is the commission earned on one paid installment
type Line struct {
	OrderID           uuid.UUID
	OrderNumber       string
	SellerID          uuid.UUID
	SellerName        string
	PaymentDate       time.Time
	InstallmentValue  decimal.Decimal
	Rate              decimal.Decimal
	Commission        decimal.Decimal
	DiscountPercent   decimal.Decimal
	InstallmentNumber int
	InstallmentCount  int
}

// Calculator derives commission lines from settled installments. Month
// boundaries are taken in its location, UTC unless set.
type Calculator struct {
	rates    Rates
	location *time.Location
}

// Option is a functional option for configuring Calculator
type Option func(*Calculator)

// WithRates overrides the default tiers
func WithRates(rates Rates) Option {
	return func(c *Calculator) {
		c.rates = rates
	}
}

// WithLocation sets the time zone month boundaries are taken in
func WithLocation(loc *time.Location) Option {
	return func(c *Calculator) {
		if loc != nil {
			c.location = loc
		}
	}
}

// NewCalculator creates a new Calculator
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{rates: DefaultRates(), location: time.UTC}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// In returns a copy of the calculator that takes month boundaries in loc
func (c *Calculator) In(loc *time.Location) *Calculator {
	cp := *c
	WithLocation(loc)(&cp)
	return &cp
}

// Location returns the time zone month boundaries are taken in
func (c *Calculator) Location() *time.Location {
	return c.location
}

// Rates returns the tiers in use
func (c *Calculator) Rates() Rates {
	return c.rates
}

// RecognitionWindow returns the year and month whose payments are paid out
// as commission in the given month: the month before it.
func RecognitionWindow(month time.Month, year int) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// WindowBounds returns [from, to) of the recognition window in loc
func WindowBounds(month time.Month, year int, loc *time.Location) (time.Time, time.Time) {
	y, m := RecognitionWindow(month, year)
	from := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

// DiscountRatio returns (listPrice - total) / listPrice, or zero without a list price
func DiscountRatio(listPrice, total decimal.Decimal) decimal.Decimal {
	if !listPrice.IsPositive() {
		return decimal.Zero
	}
	return listPrice.Sub(total).Div(listPrice)
}

// RateFor returns the commission rate for a discount ratio
func (c *Calculator) RateFor(ratio decimal.Decimal) decimal.Decimal {
	switch {
	case ratio.GreaterThan(c.rates.HighDiscountThreshold):
		return c.rates.HighDiscountRate
	case ratio.IsPositive():
		return c.rates.LowDiscountRate
	default:
		return c.rates.FullPriceRate
	}
}

// CommissionsFor returns one line per installment paid in the month before
// month/year, the same [from, to) WindowBounds gives in the calculator's
// location. listPrices maps order ID to the base-price sum of the order's
// selected items. Cancelled orders earn no commission. Commission is the
// exact product of value and rate; rounding is left to presentation.
func (c *Calculator) CommissionsFor(orders []trade.Order, listPrices map[uuid.UUID]decimal.Decimal, sellers map[uuid.UUID]Seller, month time.Month, year int) []Line {
	from, to := WindowBounds(month, year, c.location)
	lines := make([]Line, 0)

	for i := range orders {
		order := &orders[i]
		if order.IsCancelled() {
			continue
		}
		ratio := DiscountRatio(listPrices[order.ID], order.Total)
		rate := c.RateFor(ratio)

		for _, inst := range order.Installments {
			if !inst.PaidBetween(from, to) {
				continue
			}
			lines = append(lines, Line{
				OrderID:           order.ID,
				OrderNumber:       order.OrderNumber,
				SellerID:          order.SellerID,
				SellerName:        sellers[order.SellerID].Name,
				PaymentDate:       *inst.PaymentDate,
				InstallmentValue:  inst.Value,
				Rate:              rate,
				Commission:        inst.Value.Mul(rate),
				DiscountPercent:   valueobject.Round2(ratio.Mul(decimal.NewFromInt(100))),
				InstallmentNumber: inst.Number,
				InstallmentCount:  len(order.Installments),
			})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if !a.PaymentDate.Equal(b.PaymentDate) {
			return a.PaymentDate.Before(b.PaymentDate)
		}
		if a.OrderNumber != b.OrderNumber {
			return a.OrderNumber < b.OrderNumber
		}
		return a.InstallmentNumber < b.InstallmentNumber
	})
	return lines
}
