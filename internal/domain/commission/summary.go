package commission

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SellerSummary totals a seller's commission lines
type SellerSummary struct {
	SellerID        uuid.UUID
	SellerName      string
	Installments    int
	BaseTotal       decimal.Decimal
	CommissionTotal decimal.Decimal
}

// OrderStatement groups the lines of one order
type OrderStatement struct {
	OrderID         uuid.UUID
	OrderNumber     string
	SellerID        uuid.UUID
	SellerName      string
	Lines           []Line
	BaseTotal       decimal.Decimal
	CommissionTotal decimal.Decimal
}

// SummarizeBySeller folds lines into one summary per seller, by name
func SummarizeBySeller(lines []Line) []SellerSummary {
	index := make(map[uuid.UUID]int)
	summaries := make([]SellerSummary, 0)
	for _, l := range lines {
		i, ok := index[l.SellerID]
		if !ok {
			i = len(summaries)
			index[l.SellerID] = i
			summaries = append(summaries, SellerSummary{
				SellerID:        l.SellerID,
				SellerName:      l.SellerName,
				BaseTotal:       decimal.Zero,
				CommissionTotal: decimal.Zero,
			})
		}
		s := &summaries[i]
		s.Installments++
		s.BaseTotal = s.BaseTotal.Add(l.InstallmentValue)
		s.CommissionTotal = s.CommissionTotal.Add(l.Commission)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].SellerName < summaries[j].SellerName
	})
	return summaries
}

// StatementByOrder folds lines into one statement per order, keeping the
// order in which orders first appear
func StatementByOrder(lines []Line) []OrderStatement {
	index := make(map[uuid.UUID]int)
	statements := make([]OrderStatement, 0)
	for _, l := range lines {
		i, ok := index[l.OrderID]
		if !ok {
			i = len(statements)
			index[l.OrderID] = i
			statements = append(statements, OrderStatement{
				OrderID:         l.OrderID,
				OrderNumber:     l.OrderNumber,
				SellerID:        l.SellerID,
				SellerName:      l.SellerName,
				BaseTotal:       decimal.Zero,
				CommissionTotal: decimal.Zero,
			})
		}
		st := &statements[i]
		st.Lines = append(st.Lines, l)
		st.BaseTotal = st.BaseTotal.Add(l.InstallmentValue)
		st.CommissionTotal = st.CommissionTotal.Add(l.Commission)
	}
	return statements
}

// Total sums the commission of all lines
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Commission)
	}
	return total
}
