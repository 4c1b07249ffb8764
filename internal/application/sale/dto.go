package sale

import (
	"time"

	"github.com/erp/pos/internal/domain/payment"
	"github.com/erp/pos/internal/domain/pricing"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Line DTOs ====================

// LineRequest is a requested sale or order line
type LineRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"max=200"`
	Quantity    decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"decimal_gte0"`
	DiscountPct decimal.Decimal `json:"discount_pct" binding:"decimal_gte0"`
	TaxCode     string          `json:"tax_code" binding:"required,oneof=ITBIS18 ITBIS16 ITBIS0 EXENTO"`
}

// ToLineInputs converts requested lines to domain line inputs
func ToLineInputs(lines []LineRequest) []sales.LineInput {
	out := make([]sales.LineInput, len(lines))
	for i, l := range lines {
		out[i] = sales.LineInput{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
			TaxCode:     pricing.TaxRateCode(l.TaxCode),
		}
	}
	return out
}

// PaymentRequest is the requested condition of payment
type PaymentRequest struct {
	Condition   string          `json:"payment_condition" binding:"required,oneof=CONTADO CREDITO MIXTO"`
	CashPortion decimal.Decimal `json:"cash_portion" binding:"decimal_gte0"`
}

// ToCondition validates and converts the request to a payment condition
func (p PaymentRequest) ToCondition() (payment.Condition, error) {
	return payment.NewCondition(payment.Kind(p.Condition), p.CashPortion)
}

// LineResponse is a priced line in API responses
type LineResponse struct {
	LineNo         int             `json:"line_no"`
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	TaxCode        string          `json:"tax_code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// TotalsResponse are document totals in API responses
type TotalsResponse struct {
	Subtotal             decimal.Decimal `json:"subtotal"`
	LineDiscountTotal    decimal.Decimal `json:"line_discount_total"`
	GlobalDiscountPct    decimal.Decimal `json:"global_discount_pct"`
	GlobalDiscountAmount decimal.Decimal `json:"global_discount_amount"`
	TaxTotal             decimal.Decimal `json:"tax_total"`
	ExemptTotal          decimal.Decimal `json:"exempt_total"`
	Total                decimal.Decimal `json:"total"`
}

// ToLineResponses converts priced lines to responses
func ToLineResponses(lines []sales.LineItem) []LineResponse {
	out := make([]LineResponse, len(lines))
	for i, l := range lines {
		out[i] = LineResponse{
			LineNo:         l.LineNo,
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			DiscountPct:    l.DiscountPct,
			TaxCode:        string(l.TaxCode),
			DiscountAmount: l.DiscountAmount,
			Subtotal:       l.Subtotal,
			TaxAmount:      l.TaxAmount,
			Total:          l.Total,
		}
	}
	return out
}

// ToTotalsResponse converts document totals to a response
func ToTotalsResponse(t sales.Totals) TotalsResponse {
	return TotalsResponse{
		Subtotal:             t.Subtotal,
		LineDiscountTotal:    t.LineDiscountTotal,
		GlobalDiscountPct:    t.GlobalDiscountPct,
		GlobalDiscountAmount: t.GlobalDiscountAmount,
		TaxTotal:             t.TaxTotal,
		ExemptTotal:          t.ExemptTotal,
		Total:                t.Total,
	}
}

// ==================== Sale DTOs ====================

// CreateSaleRequest represents a request to ring up a sale
type CreateSaleRequest struct {
	BranchID   uuid.UUID  `json:"branch_id" binding:"required"`
	CustomerID *uuid.UUID `json:"customer_id"`
	PaymentRequest
	GlobalDiscountPct decimal.Decimal `json:"global_discount_pct" binding:"decimal_gte0"`
	NCFSeries         string          `json:"ncf_series" binding:"omitempty,min=1,max=10"`
	Notes             string          `json:"notes" binding:"max=500"`
	Lines             []LineRequest   `json:"lines" binding:"required,min=1,dive"`
}

// VoidSaleRequest represents a request to void a sale
type VoidSaleRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID               uuid.UUID       `json:"id"`
	SaleNumber       string          `json:"sale_number"`
	NCF              string          `json:"ncf"`
	CustomerID       *uuid.UUID      `json:"customer_id,omitempty"`
	BranchID         uuid.UUID       `json:"branch_id"`
	CashierID        uuid.UUID       `json:"cashier_id"`
	DrawerSessionID  *uuid.UUID      `json:"drawer_session_id,omitempty"`
	OrderID          *uuid.UUID      `json:"order_id,omitempty"`
	PaymentCondition string          `json:"payment_condition"`
	CashAmount       decimal.Decimal `json:"cash_amount"`
	CreditAmount     decimal.Decimal `json:"credit_amount"`
	Totals           TotalsResponse  `json:"totals"`
	Status           string          `json:"status"`
	Notes            string          `json:"notes,omitempty"`
	Lines            []LineResponse  `json:"lines"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
	VoidedAt         *time.Time      `json:"voided_at,omitempty"`
	VoidedBy         *uuid.UUID      `json:"voided_by,omitempty"`
	VoidReason       string          `json:"void_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	Version          int             `json:"version"`
}

// ToSaleResponse converts a domain Sale to SaleResponse
func ToSaleResponse(s *sales.Sale) SaleResponse {
	return SaleResponse{
		ID:               s.ID,
		SaleNumber:       s.SaleNumber,
		NCF:              s.NCF,
		CustomerID:       s.CustomerID,
		BranchID:         s.BranchID,
		CashierID:        s.CashierID,
		DrawerSessionID:  s.DrawerSessionID,
		OrderID:          s.OrderID,
		PaymentCondition: string(s.Condition.Kind),
		CashAmount:       s.CashAmount,
		CreditAmount:     s.CreditAmount,
		Totals:           ToTotalsResponse(s.Totals),
		Status:           string(s.Status),
		Notes:            s.Notes,
		Lines:            ToLineResponses(s.Lines),
		ProcessedAt:      s.ProcessedAt,
		VoidedAt:         s.VoidedAt,
		VoidedBy:         s.VoidedBy,
		VoidReason:       s.VoidReason,
		CreatedAt:        s.CreatedAt,
		Version:          s.Version,
	}
}
