package models

import (
	"time"

	"github.com/erp/pos/internal/domain/orders"
	"github.com/erp/pos/internal/domain/payment"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root
type OrderModel struct {
	AggregateModel
	OrderNumber  string           `gorm:"type:varchar(30);not null;uniqueIndex"`
	CustomerID   *uuid.UUID       `gorm:"type:uuid;index"`
	BranchID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_order_branch_status,priority:1"`
	SellerID     uuid.UUID        `gorm:"type:uuid;not null"`
	PaymentKind  string           `gorm:"type:varchar(10);not null"`
	CashPortion  decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TotalsModel  `gorm:"embedded"`
	Status       string           `gorm:"type:varchar(20);not null;index:idx_order_branch_status,priority:2"`
	Notes        string           `gorm:"type:text"`
	ApprovedBy   *uuid.UUID       `gorm:"type:uuid"`
	ApprovedAt   *time.Time
	CancelReason string           `gorm:"type:varchar(500);not null;default:''"`
	CancelledBy  *uuid.UUID       `gorm:"type:uuid"`
	CancelledAt  *time.Time
	SaleID       *uuid.UUID       `gorm:"type:uuid"`
	InvoicedAt   *time.Time
	Lines        []OrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *orders.Order {
	o := &orders.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		CustomerID:        m.CustomerID,
		BranchID:          m.BranchID,
		SellerID:          m.SellerID,
		Condition:         payment.Condition{Kind: payment.Kind(m.PaymentKind), CashPortion: m.CashPortion},
		Totals:            m.TotalsModel.toDomain(),
		Status:            orders.Status(m.Status),
		Notes:             m.Notes,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		CancelReason:      m.CancelReason,
		CancelledBy:       m.CancelledBy,
		CancelledAt:       m.CancelledAt,
		SaleID:            m.SaleID,
		InvoicedAt:        m.InvoicedAt,
		Lines:             make([]sales.LineItem, len(m.Lines)),
	}
	for i := range m.Lines {
		o.Lines[i] = m.Lines[i].toDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *orders.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.BranchID = o.BranchID
	m.SellerID = o.SellerID
	m.PaymentKind = string(o.Condition.Kind)
	m.CashPortion = o.Condition.CashPortion
	m.TotalsModel = totalsModelFromDomain(o.Totals)
	m.Status = string(o.Status)
	m.Notes = o.Notes
	m.ApprovedBy = o.ApprovedBy
	m.ApprovedAt = o.ApprovedAt
	m.CancelReason = o.CancelReason
	m.CancelledBy = o.CancelledBy
	m.CancelledAt = o.CancelledAt
	m.SaleID = o.SaleID
	m.InvoicedAt = o.InvoicedAt
	m.Lines = make([]OrderLineModel, len(o.Lines))
	for i, l := range o.Lines {
		m.Lines[i] = OrderLineModel{OrderID: o.ID, LineModel: lineModelFromDomain(l)}
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *orders.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderLineModel is the persistence model for an order line
type OrderLineModel struct {
	LineModel
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}
