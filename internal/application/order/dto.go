package order

import (
	"time"

	appsale "github.com/erp/pos/internal/application/sale"
	"github.com/erp/pos/internal/domain/orders"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents a request to take a customer order
type CreateOrderRequest struct {
	BranchID   uuid.UUID  `json:"branch_id" binding:"required"`
	CustomerID *uuid.UUID `json:"customer_id"`
	appsale.PaymentRequest
	GlobalDiscountPct decimal.Decimal       `json:"global_discount_pct" binding:"decimal_gte0"`
	Notes             string                `json:"notes" binding:"max=500"`
	Lines             []appsale.LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// EditOrderRequest replaces the content of a pending order
type EditOrderRequest struct {
	appsale.PaymentRequest
	GlobalDiscountPct decimal.Decimal       `json:"global_discount_pct" binding:"decimal_gte0"`
	Notes             string                `json:"notes" binding:"max=500"`
	Lines             []appsale.LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// OrderListFilter represents filter options for order list
type OrderListFilter struct {
	BranchID uuid.UUID `form:"branch_id" binding:"required"`
	Status   string    `form:"status" binding:"omitempty,oneof=PENDIENTE APROBADO PROCESADO ENTREGADO CANCELADO FACTURADO"`
	Page     int       `form:"page" binding:"omitempty,min=1"`
	PageSize int       `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID               uuid.UUID              `json:"id"`
	OrderNumber      string                 `json:"order_number"`
	CustomerID       *uuid.UUID             `json:"customer_id,omitempty"`
	BranchID         uuid.UUID              `json:"branch_id"`
	SellerID         uuid.UUID              `json:"seller_id"`
	PaymentCondition string                 `json:"payment_condition"`
	CashPortion      decimal.Decimal        `json:"cash_portion"`
	Totals           appsale.TotalsResponse `json:"totals"`
	Status           string                 `json:"status"`
	Notes            string                 `json:"notes,omitempty"`
	Lines            []appsale.LineResponse `json:"lines"`
	ApprovedBy       *uuid.UUID             `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time             `json:"approved_at,omitempty"`
	CancelReason     string                 `json:"cancel_reason,omitempty"`
	CancelledBy      *uuid.UUID             `json:"cancelled_by,omitempty"`
	CancelledAt      *time.Time             `json:"cancelled_at,omitempty"`
	SaleID           *uuid.UUID             `json:"sale_id,omitempty"`
	InvoicedAt       *time.Time             `json:"invoiced_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	Version          int                    `json:"version"`
}

// ConvertOrderResponse is the result of invoicing an order
type ConvertOrderResponse struct {
	Order OrderResponse        `json:"order"`
	Sale  appsale.SaleResponse `json:"sale"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *orders.Order) OrderResponse {
	return OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		CustomerID:       o.CustomerID,
		BranchID:         o.BranchID,
		SellerID:         o.SellerID,
		PaymentCondition: string(o.Condition.Kind),
		CashPortion:      o.Condition.CashPortion,
		Totals:           appsale.ToTotalsResponse(o.Totals),
		Status:           string(o.Status),
		Notes:            o.Notes,
		Lines:            appsale.ToLineResponses(o.Lines),
		ApprovedBy:       o.ApprovedBy,
		ApprovedAt:       o.ApprovedAt,
		CancelReason:     o.CancelReason,
		CancelledBy:      o.CancelledBy,
		CancelledAt:      o.CancelledAt,
		SaleID:           o.SaleID,
		InvoicedAt:       o.InvoicedAt,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		Version:          o.Version,
	}
}
