package sales

import (
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeSale is the aggregate type of sales
const AggregateTypeSale = "Sale"

const (
	EventTypeSaleProcessed = "sale.processed"
	EventTypeSaleVoided    = "sale.voided"
)

// SaleProcessedEvent is raised when a sale is issued
type SaleProcessedEvent struct {
	shared.BaseDomainEvent
	SaleNumber   string          `json:"sale_number"`
	NCF          string          `json:"ncf"`
	CashierID    uuid.UUID       `json:"cashier_id"`
	Total        decimal.Decimal `json:"total"`
	CashAmount   decimal.Decimal `json:"cash_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	FromOrder    bool            `json:"from_order"`
}

// NewSaleProcessedEvent creates a new SaleProcessedEvent
func NewSaleProcessedEvent(s *Sale) *SaleProcessedEvent {
	return &SaleProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleProcessed, AggregateTypeSale, s.ID, s.BranchID),
		SaleNumber:      s.SaleNumber,
		NCF:             s.NCF,
		CashierID:       s.CashierID,
		Total:           s.Total,
		CashAmount:      s.CashAmount,
		CreditAmount:    s.CreditAmount,
		FromOrder:       s.OrderID != nil,
	}
}

// SaleVoidedEvent is raised when a sale is annulled
type SaleVoidedEvent struct {
	shared.BaseDomainEvent
	SaleNumber string          `json:"sale_number"`
	NCF        string          `json:"ncf"`
	VoidedBy   uuid.UUID       `json:"voided_by"`
	Total      decimal.Decimal `json:"total"`
	Reason     string          `json:"reason,omitempty"`
}

// NewSaleVoidedEvent creates a new SaleVoidedEvent
func NewSaleVoidedEvent(s *Sale) *SaleVoidedEvent {
	e := &SaleVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleVoided, AggregateTypeSale, s.ID, s.BranchID),
		SaleNumber:      s.SaleNumber,
		NCF:             s.NCF,
		Total:           s.Total,
		Reason:          s.VoidReason,
	}
	if s.VoidedBy != nil {
		e.VoidedBy = *s.VoidedBy
	}
	return e
}
