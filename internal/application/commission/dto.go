package commission

import (
	"time"

	"github.com/fabtrack/backend/internal/domain/commission"
	"github.com/fabtrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodQuery selects the month a statement is paid out in
type PeriodQuery struct {
	Month int `form:"month" binding:"required,min=1,max=12"`
	Year  int `form:"year" binding:"required,min=2000,max=2100"`
}

// CreateSellerRequest registers a seller
type CreateSellerRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200"`
	Email string `json:"email" binding:"omitempty,email"`
}

// SellerResponse represents a seller
type SellerResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email,omitempty"`
	Active bool      `json:"active"`
}

// LineResponse represents the commission earned on one installment
type LineResponse struct {
	OrderID           uuid.UUID       `json:"order_id"`
	OrderNumber       string          `json:"order_number"`
	SellerID          uuid.UUID       `json:"seller_id"`
	SellerName        string          `json:"seller_name"`
	PaymentDate       time.Time       `json:"payment_date"`
	InstallmentNumber int             `json:"installment_number"`
	InstallmentCount  int             `json:"installment_count"`
	InstallmentValue  decimal.Decimal `json:"installment_value"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	Rate              decimal.Decimal `json:"rate"`
	Commission        decimal.Decimal `json:"commission"`
}

// StatementResponse represents the commission lines of one month
type StatementResponse struct {
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	WindowStart time.Time       `json:"window_start"`
	WindowEnd   time.Time       `json:"window_end"`
	Lines       []LineResponse  `json:"lines"`
	Total       decimal.Decimal `json:"total"`
}

// SellerSummaryResponse represents the totals of one seller
type SellerSummaryResponse struct {
	SellerID        uuid.UUID       `json:"seller_id"`
	SellerName      string          `json:"seller_name"`
	Installments    int             `json:"installments"`
	BaseTotal       decimal.Decimal `json:"base_total"`
	CommissionTotal decimal.Decimal `json:"commission_total"`
}

// SummaryResponse represents the per-seller totals of one month
type SummaryResponse struct {
	Month   int                     `json:"month"`
	Year    int                     `json:"year"`
	Sellers []SellerSummaryResponse `json:"sellers"`
	Total   decimal.Decimal         `json:"total"`
}

// ToSellerResponse converts the domain seller to its response
func ToSellerResponse(s commission.Seller) SellerResponse {
	return SellerResponse{ID: s.ID, Name: s.Name, Email: s.Email, Active: s.Active}
}

// ToLineResponse converts a commission line to its response
func ToLineResponse(l commission.Line) LineResponse {
	return LineResponse{
		OrderID:           l.OrderID,
		OrderNumber:       l.OrderNumber,
		SellerID:          l.SellerID,
		SellerName:        l.SellerName,
		PaymentDate:       l.PaymentDate,
		InstallmentNumber: l.InstallmentNumber,
		InstallmentCount:  l.InstallmentCount,
		InstallmentValue:  l.InstallmentValue,
		DiscountPercent:   l.DiscountPercent,
		Rate:              l.Rate,
		Commission:        valueobject.Round2(l.Commission),
	}
}

// ToSellerSummaryResponse converts a seller summary to its response
func ToSellerSummaryResponse(s commission.SellerSummary) SellerSummaryResponse {
	return SellerSummaryResponse{
		SellerID:        s.SellerID,
		SellerName:      s.SellerName,
		Installments:    s.Installments,
		BaseTotal:       s.BaseTotal,
		CommissionTotal: valueobject.Round2(s.CommissionTotal),
	}
}
