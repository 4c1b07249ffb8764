package orders

import (
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeOrder is the aggregate type of orders
const AggregateTypeOrder = "Order"

const (
	EventTypeOrderCancelled = "order.cancelled"
	EventTypeOrderInvoiced  = "order.invoiced"
)

// OrderCancelledEvent is raised when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	e := &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID, o.BranchID),
		OrderNumber:     o.OrderNumber,
		Reason:          o.CancelReason,
	}
	if o.CancelledBy != nil {
		e.CancelledBy = *o.CancelledBy
	}
	return e
}

// OrderInvoicedEvent is raised when an order is converted into a sale
type OrderInvoicedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	SaleID      uuid.UUID `json:"sale_id"`
}

// NewOrderInvoicedEvent creates a new OrderInvoicedEvent
func NewOrderInvoicedEvent(o *Order) *OrderInvoicedEvent {
	e := &OrderInvoicedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderInvoiced, AggregateTypeOrder, o.ID, o.BranchID),
		OrderNumber:     o.OrderNumber,
	}
	if o.SaleID != nil {
		e.SaleID = *o.SaleID
	}
	return e
}
