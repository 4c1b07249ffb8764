// Package orders models customer orders that reserve stock until they are
// invoiced as a sale or cancelled.
package orders

import (
	"strings"
	"time"

	"github.com/erp/pos/internal/domain/payment"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the status of an order
type Status string

const (
	StatusPending   Status = "PENDIENTE"
	StatusApproved  Status = "APROBADO"
	StatusProcessed Status = "PROCESADO"
	StatusDelivered Status = "ENTREGADO"
	StatusCancelled Status = "CANCELADO"
	StatusInvoiced  Status = "FACTURADO"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusProcessed, StatusCancelled},
	StatusApproved:  {StatusProcessed, StatusCancelled, StatusInvoiced},
	StatusProcessed: {StatusDelivered, StatusCancelled},
	StatusDelivered: {StatusInvoiced},
}

// IsValid checks if the status is a valid order status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusProcessed, StatusDelivered, StatusCancelled, StatusInvoiced:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusInvoiced
}

// HoldsReservation reports whether stock is reserved for an order in this status
func (s Status) HoldsReservation() bool {
	switch s {
	case StatusPending, StatusApproved, StatusProcessed, StatusDelivered:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Order is a customer order. Its lines and totals may change only while pending.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber string
	CustomerID  *uuid.UUID
	BranchID    uuid.UUID
	SellerID    uuid.UUID
	Condition   payment.Condition
	sales.Totals
	Status       Status
	Notes        string
	Lines        []sales.LineItem
	ApprovedBy   *uuid.UUID
	ApprovedAt   *time.Time
	CancelReason string
	CancelledBy  *uuid.UUID
	CancelledAt  *time.Time
	SaleID       *uuid.UUID
	InvoicedAt   *time.Time
}

// NewOrderParams are the inputs of a new order
type NewOrderParams struct {
	CustomerID        *uuid.UUID
	BranchID          uuid.UUID
	SellerID          uuid.UUID
	Condition         payment.Condition
	GlobalDiscountPct decimal.Decimal
	Notes             string
	Lines             []sales.LineInput
}

// NewOrder prices the lines into a pending order
func NewOrder(p NewOrderParams) (*Order, error) {
	if p.BranchID == uuid.Nil {
		return nil, shared.NewValidationError("branch_id", "Branch ID cannot be empty")
	}
	if p.SellerID == uuid.Nil {
		return nil, shared.NewValidationError("seller_id", "Seller ID cannot be empty")
	}
	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        p.CustomerID,
		BranchID:          p.BranchID,
		SellerID:          p.SellerID,
		Status:            StatusPending,
	}
	if err := o.setContent(p.Condition, p.GlobalDiscountPct, p.Notes, p.Lines); err != nil {
		return nil, err
	}
	return o, nil
}

// AssignNumber sets the order number allocated from the order series
func (o *Order) AssignNumber(number string) error {
	if o.OrderNumber != "" {
		return shared.NewDomainError(shared.CodeValidation, "Order number already assigned")
	}
	if number == "" {
		return shared.NewValidationError("order_number", "Order number cannot be empty")
	}
	o.OrderNumber = number
	return nil
}

// Effects returns how the order total would split across cash and credit
func (o *Order) Effects() payment.Effects {
	return o.Condition.Resolve(o.Total)
}

// Edit replaces the order content. Only a pending order can be edited.
func (o *Order) Edit(condition payment.Condition, globalDiscountPct decimal.Decimal, notes string, lines []sales.LineInput) error {
	if o.Status != StatusPending {
		return shared.NewInvalidStateTransitionError("order", string(o.Status), "edit")
	}
	if err := o.setContent(condition, globalDiscountPct, notes, lines); err != nil {
		return err
	}
	o.touch()
	return nil
}

// Approve moves a pending order to approved
func (o *Order) Approve(actorID uuid.UUID) error {
	if err := o.transition(StatusApproved, "approve"); err != nil {
		return err
	}
	now := time.Now()
	o.ApprovedBy = &actorID
	o.ApprovedAt = &now
	return nil
}

// Process marks the order as being prepared
func (o *Order) Process() error {
	return o.transition(StatusProcessed, "process")
}

// Deliver marks a processed order as delivered
func (o *Order) Deliver() error {
	return o.transition(StatusDelivered, "deliver")
}

// Cancel cancels the order. The caller releases its reservations.
func (o *Order) Cancel(reason string, actorID uuid.UUID) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewValidationError("reason", "Cancellation reason is required")
	}
	if actorID == uuid.Nil {
		return shared.NewValidationError("actor_id", "Actor ID cannot be empty")
	}
	if err := o.transition(StatusCancelled, "cancel"); err != nil {
		return err
	}
	now := time.Now()
	o.CancelReason = reason
	o.CancelledBy = &actorID
	o.CancelledAt = &now
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// CanConvert checks that the order may be invoiced
func (o *Order) CanConvert() error {
	if !o.Status.CanTransitionTo(StatusInvoiced) {
		return shared.NewInvalidStateTransitionError("order", string(o.Status), "convert to sale")
	}
	return nil
}

// NewSale builds the pending sale an order converts into. MIXTO orders are invoiced as CONTADO.
func (o *Order) NewSale(cashierID uuid.UUID) (*sales.Sale, error) {
	if err := o.CanConvert(); err != nil {
		return nil, err
	}
	sale, err := sales.NewSaleFromLines(o.CustomerID, o.BranchID, cashierID, o.Condition.NormalizeForConversion(), o.Notes, o.Lines, o.Totals)
	if err != nil {
		return nil, err
	}
	orderID := o.ID
	sale.OrderID = &orderID
	return sale, nil
}

// MarkInvoiced records the sale the order became. An order is invoiced at most once.
func (o *Order) MarkInvoiced(saleID uuid.UUID) error {
	if o.SaleID != nil {
		return shared.NewInvalidStateTransitionError("order", string(o.Status), "convert to sale")
	}
	if err := o.transition(StatusInvoiced, "convert to sale"); err != nil {
		return err
	}
	now := time.Now()
	o.SaleID = &saleID
	o.InvoicedAt = &now
	o.AddDomainEvent(NewOrderInvoicedEvent(o))
	return nil
}

func (o *Order) setContent(condition payment.Condition, globalDiscountPct decimal.Decimal, notes string, inputs []sales.LineInput) error {
	if !condition.Kind.IsValid() {
		return shared.NewValidationError("payment_condition", "Unknown payment condition: "+string(condition.Kind))
	}
	lines, totals, err := sales.BuildLines(inputs, globalDiscountPct)
	if err != nil {
		return err
	}
	if condition.Resolve(totals.Total).AffectsCredit() && (o.CustomerID == nil || *o.CustomerID == uuid.Nil) {
		return shared.NewValidationError("customer_id", "A customer is required for credit orders")
	}
	o.Condition = condition
	o.Lines = lines
	o.Totals = totals
	o.Notes = strings.TrimSpace(notes)
	return nil
}

func (o *Order) transition(target Status, operation string) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewInvalidStateTransitionError("order", string(o.Status), operation)
	}
	o.Status = target
	o.touch()
	return nil
}

func (o *Order) touch() {
	o.Touch(time.Now())
}
