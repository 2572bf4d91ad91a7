package finance

import (
	"time"

	apptrade "github.com/fabtrack/backend/internal/application/trade"
	"github.com/fabtrack/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettleRequest records the payment of one installment
type SettleRequest struct {
	PaymentDate *time.Time      `json:"payment_date"` // defaults to today
	NetValue    decimal.Decimal `json:"net_value" binding:"required"`
	FiscalRef   string          `json:"fiscal_ref" binding:"max=100"`
	Method      string          `json:"method" binding:"omitempty,oneof=PIX BOLETO CREDIT_CARD DEBIT_CARD BANK_TRANSFER CASH CHECK"` // defaults to the scheduled method
}

// ExpenseListFilter represents filter options for the expense list
type ExpenseListFilter struct {
	OrderID  string `form:"order_id" binding:"omitempty,uuid"`
	Category string `form:"category" binding:"omitempty,oneof=TAX FEE DISCOUNT OTHER"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ExpenseResponse represents an expense
type ExpenseResponse struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           uuid.UUID       `json:"order_id"`
	InstallmentNumber int             `json:"installment_number"`
	Description       string          `json:"description"`
	Value             decimal.Decimal `json:"value"`
	Date              time.Time       `json:"date"`
	Category          string          `json:"category"`
	CreatedAt         time.Time       `json:"created_at"`
}

// SettlementResponse represents the settled order and the fee booked for it
type SettlementResponse struct {
	Order   apptrade.OrderResponse `json:"order"`
	Expense *ExpenseResponse       `json:"expense,omitempty"`
}

// ToExpenseResponse converts the domain expense to its response
func ToExpenseResponse(e *finance.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:                e.ID,
		OrderID:           e.OrderID,
		InstallmentNumber: e.InstallmentNumber,
		Description:       e.Description,
		Value:             e.Value,
		Date:              e.Date,
		Category:          string(e.Category),
		CreatedAt:         e.CreatedAt,
	}
}
