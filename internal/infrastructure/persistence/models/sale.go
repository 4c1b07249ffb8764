package models

import (
	"time"

	"github.com/erp/pos/internal/domain/payment"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root
type SaleModel struct {
	AggregateModel
	SaleNumber      string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	NCF             string          `gorm:"column:ncf;type:varchar(19);not null;uniqueIndex"`
	CustomerID      *uuid.UUID      `gorm:"type:uuid;index"`
	BranchID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	CashierID       uuid.UUID       `gorm:"type:uuid;not null"`
	DrawerSessionID *uuid.UUID      `gorm:"type:uuid;index"`
	OrderID         *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	PaymentKind     string          `gorm:"type:varchar(10);not null"`
	CashPortion     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalsModel     `gorm:"embedded"`
	CashAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreditAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status          string          `gorm:"type:varchar(20);not null;index"`
	Notes           string          `gorm:"type:text"`
	ProcessedAt     *time.Time
	VoidedAt        *time.Time
	VoidedBy        *uuid.UUID      `gorm:"type:uuid"`
	VoidReason      string          `gorm:"type:varchar(500);not null;default:''"`
	Lines           []SaleLineModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale
func (m *SaleModel) ToDomain() *sales.Sale {
	s := &sales.Sale{
		BaseAggregateRoot: m.ToAggregateRoot(),
		SaleNumber:        m.SaleNumber,
		NCF:               m.NCF,
		CustomerID:        m.CustomerID,
		BranchID:          m.BranchID,
		CashierID:         m.CashierID,
		DrawerSessionID:   m.DrawerSessionID,
		OrderID:           m.OrderID,
		Condition:         payment.Condition{Kind: payment.Kind(m.PaymentKind), CashPortion: m.CashPortion},
		Totals:            m.TotalsModel.toDomain(),
		CashAmount:        m.CashAmount,
		CreditAmount:      m.CreditAmount,
		Status:            sales.Status(m.Status),
		Notes:             m.Notes,
		ProcessedAt:       m.ProcessedAt,
		VoidedAt:          m.VoidedAt,
		VoidedBy:          m.VoidedBy,
		VoidReason:        m.VoidReason,
		Lines:             make([]sales.LineItem, len(m.Lines)),
	}
	for i := range m.Lines {
		s.Lines[i] = m.Lines[i].toDomain()
	}
	return s
}

// FromDomain populates the persistence model from a domain Sale
func (m *SaleModel) FromDomain(s *sales.Sale) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.SaleNumber = s.SaleNumber
	m.NCF = s.NCF
	m.CustomerID = s.CustomerID
	m.BranchID = s.BranchID
	m.CashierID = s.CashierID
	m.DrawerSessionID = s.DrawerSessionID
	m.OrderID = s.OrderID
	m.PaymentKind = string(s.Condition.Kind)
	m.CashPortion = s.Condition.CashPortion
	m.TotalsModel = totalsModelFromDomain(s.Totals)
	m.CashAmount = s.CashAmount
	m.CreditAmount = s.CreditAmount
	m.Status = string(s.Status)
	m.Notes = s.Notes
	m.ProcessedAt = s.ProcessedAt
	m.VoidedAt = s.VoidedAt
	m.VoidedBy = s.VoidedBy
	m.VoidReason = s.VoidReason
	m.Lines = make([]SaleLineModel, len(s.Lines))
	for i, l := range s.Lines {
		m.Lines[i] = SaleLineModel{SaleID: s.ID, LineModel: lineModelFromDomain(l)}
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// SaleLineModel is the persistence model for a sale line
type SaleLineModel struct {
	LineModel
	SaleID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_lines"
}
