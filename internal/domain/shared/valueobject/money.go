package valueobject

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places a settled monetary value carries
const MoneyScale int32 = 2

// SumTolerance is the largest difference accepted between two sums that must agree
var SumTolerance = decimal.NewFromFloat(0.01)

// Round2 rounds an amount to two decimal places (half away from zero)
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// WithinTolerance reports whether |a - b| <= SumTolerance
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(SumTolerance)
}
