package inventory

import (
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeStock is the aggregate type of stock records
const AggregateTypeStock = "ProductBranchStock"

// EventTypeStockChanged is raised by every stock ledger operation
const EventTypeStockChanged = "stock.changed"

// StockChangedEvent records one ledger operation and the resulting quantities
type StockChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	Operation string          `json:"operation"`
	Quantity  decimal.Decimal `json:"quantity"`
	OnHand    decimal.Decimal `json:"on_hand"`
	Reserved  decimal.Decimal `json:"reserved"`
	Available decimal.Decimal `json:"available"`
}

// NewStockChangedEvent creates a new StockChangedEvent
func NewStockChangedEvent(s *ProductBranchStock, operation string, quantity decimal.Decimal) *StockChangedEvent {
	return &StockChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockChanged, AggregateTypeStock, s.ID, s.BranchID),
		ProductID:       s.ProductID,
		Operation:       operation,
		Quantity:        quantity,
		OnHand:          s.OnHand,
		Reserved:        s.Reserved,
		Available:       s.Available,
	}
}
